// Package customer is the customer-facing half of the order pipeline:
// order intake, customer-initiated cancellation, and the live status feed.
package customer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/plateful/plateful/internal/directory"
	"github.com/plateful/plateful/internal/logger"
	"github.com/plateful/plateful/internal/models"
	"github.com/plateful/plateful/internal/pricing"
)

// OrderStore is the slice of the order repository this service needs.
type OrderStore interface {
	Insert(ctx context.Context, o *models.Order) error
	GetForCustomer(ctx context.Context, number, customerID string) (*models.Order, error)
	ListByCustomer(ctx context.Context, customerID string, status models.OrderStatus) ([]*models.Order, error)
	UpdateStatus(ctx context.Context, number string, version int, target models.OrderStatus, note *string) error
}

// NumberAllocator draws unique order numbers.
type NumberAllocator interface {
	Next(ctx context.Context) (string, error)
}

// EventPublisher publishes the customer-side order events.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, ev *models.OrderCreatedEvent) error
	PublishOrderCancelled(ctx context.Context, ev *models.OrderCancelledEvent) error
}

// Service orchestrates cart validation, pricing, number allocation,
// persistence and event publication.
type Service struct {
	orders      OrderStore
	numbers     NumberAllocator
	customers   directory.CustomerDirectory
	restaurants directory.RestaurantDirectory
	catalog     directory.DishCatalog
	publisher   EventPublisher
}

func NewService(
	orders OrderStore,
	numbers NumberAllocator,
	customers directory.CustomerDirectory,
	restaurants directory.RestaurantDirectory,
	catalog directory.DishCatalog,
	publisher EventPublisher,
) *Service {
	return &Service{
		orders:      orders,
		numbers:     numbers,
		customers:   customers,
		restaurants: restaurants,
		catalog:     catalog,
		publisher:   publisher,
	}
}

// CreateOrderRequest is the intake payload.
type CreateOrderRequest struct {
	RestaurantID string             `json:"restaurant_id" binding:"required"`
	Items        []pricing.CartLine `json:"items" binding:"required"`
	IsDelivery   bool               `json:"is_delivery"`
	AddressID    string             `json:"address_id"`
	CustomerNote string             `json:"customer_note"`
}

// CreateOrder prices the cart, allocates an order number and persists the
// order with status new, then publishes the created event. A publish
// failure is logged and swallowed: the caller already owns a persisted
// order at that point.
func (s *Service) CreateOrder(ctx context.Context, customerID string, req *CreateOrderRequest) (*models.Order, error) {
	cust, err := s.customers.Customer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	rest, err := s.restaurants.Restaurant(ctx, req.RestaurantID)
	if err != nil {
		return nil, err
	}

	var (
		taxState        string
		deliveryAddress *models.Address
	)
	if req.IsDelivery {
		if req.AddressID == "" {
			return nil, fmt.Errorf("%w: address_id is required for delivery orders", models.ErrInvalidAddress)
		}
		saved, ok := cust.AddressByID(req.AddressID)
		if !ok {
			return nil, fmt.Errorf("%w: address %s is not one of the customer's saved addresses", models.ErrInvalidAddress, req.AddressID)
		}
		addr := saved.Address
		deliveryAddress = &addr
		taxState = saved.State
	} else {
		if rest.Address.State == "" {
			return nil, fmt.Errorf("%w: restaurant %s has no address on file", models.ErrInvalidAddress, req.RestaurantID)
		}
		taxState = rest.Address.State
	}

	dishes, err := s.catalog.DishesByIDs(ctx, dishIDs(req.Items))
	if err != nil {
		return nil, fmt.Errorf("resolve dishes: %w", err)
	}

	quote, err := pricing.Price(req.Items, dishes, req.RestaurantID, req.IsDelivery, taxState)
	if err != nil {
		return nil, err
	}

	number, err := s.numbers.Next(ctx)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		OrderNumber:  number,
		CustomerID:   customerID,
		RestaurantID: req.RestaurantID,
		CustomerDetails: models.CustomerDetails{
			FirstName: cust.FirstName,
			LastName:  cust.LastName,
			Email:     cust.Email,
			Phone:     cust.Phone,
		},
		RestaurantDetails: models.RestaurantDetails{
			Name:    rest.Name,
			Phone:   rest.Phone,
			Email:   rest.Email,
			Image:   rest.Image,
			Address: rest.Address,
		},
		Items:           quote.Items,
		Subtotal:        quote.Subtotal.InexactFloat64(),
		TaxRate:         quote.TaxRate.InexactFloat64(),
		TaxAmount:       quote.TaxAmount.InexactFloat64(),
		TotalAmount:     quote.Total.InexactFloat64(),
		IsDelivery:      req.IsDelivery,
		DeliveryAddress: deliveryAddress,
		Status:          models.StatusNew,
		CustomerNote:    req.CustomerNote,
	}
	if quote.DeliveryFee != nil {
		fee := quote.DeliveryFee.InexactFloat64()
		order.DeliveryFee = &fee
	}

	if err := s.orders.Insert(ctx, order); err != nil {
		return nil, err
	}

	if err := s.publisher.PublishOrderCreated(ctx, &models.OrderCreatedEvent{Order: *order}); err != nil {
		logger.FromCtx(ctx).Error("order created event publish failed",
			zap.String("order_number", order.OrderNumber),
			zap.Error(err))
	}

	return order, nil
}

// CancelOrder cancels the customer's order while it is still new or
// received, then publishes the cancellation event.
func (s *Service) CancelOrder(ctx context.Context, customerID, number string) (*models.Order, error) {
	order, err := s.orders.GetForCustomer(ctx, number, customerID)
	if err != nil {
		return nil, err
	}

	if !models.CanCustomerCancel(order) {
		return nil, fmt.Errorf("%w: order %s is %s; only new or received orders can be cancelled",
			models.ErrNotCancellable, number, order.Status)
	}

	if err := s.orders.UpdateStatus(ctx, number, order.Version, models.StatusCancelled, nil); err != nil {
		return nil, err
	}
	order.Status = models.StatusCancelled
	order.Version++

	if err := s.publisher.PublishOrderCancelled(ctx, models.NewOrderCancelledEvent(number, order.RestaurantID)); err != nil {
		logger.FromCtx(ctx).Error("order cancelled event publish failed",
			zap.String("order_number", number),
			zap.Error(err))
	}

	return order, nil
}

// GetOrder returns one of the customer's orders.
func (s *Service) GetOrder(ctx context.Context, customerID, number string) (*models.Order, error) {
	return s.orders.GetForCustomer(ctx, number, customerID)
}

// ListOrders returns the customer's orders, optionally filtered by status.
func (s *Service) ListOrders(ctx context.Context, customerID string, status models.OrderStatus) ([]*models.Order, error) {
	return s.orders.ListByCustomer(ctx, customerID, status)
}

func dishIDs(cart []pricing.CartLine) []string {
	seen := make(map[string]bool, len(cart))
	var ids []string
	for _, line := range cart {
		if !seen[line.DishID] {
			seen[line.DishID] = true
			ids = append(ids, line.DishID)
		}
	}
	return ids
}
