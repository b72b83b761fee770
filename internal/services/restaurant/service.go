// Package restaurant is the restaurant-facing half of the order pipeline:
// ingestion of created orders, status transitions, and the live feeds for
// restaurant clients.
package restaurant

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/plateful/plateful/internal/logger"
	"github.com/plateful/plateful/internal/models"
)

// OrderStore is the slice of the order repository this service needs.
type OrderStore interface {
	GetByNumber(ctx context.Context, number string) (*models.Order, error)
	GetForRestaurant(ctx context.Context, number, restaurantID string) (*models.Order, error)
	ListByRestaurant(ctx context.Context, restaurantID string, status models.OrderStatus) ([]*models.Order, error)
	UpdateStatus(ctx context.Context, number string, version int, target models.OrderStatus, note *string) error
	Activate(ctx context.Context, number string) (bool, error)
}

// EventPublisher publishes the restaurant-side order events.
type EventPublisher interface {
	PublishStatusChanged(ctx context.Context, ev *models.StatusChangedEvent) error
}

// Service validates and applies status transitions and activates newly
// created orders.
type Service struct {
	orders    OrderStore
	publisher EventPublisher
}

func NewService(orders OrderStore, publisher EventPublisher) *Service {
	return &Service{orders: orders, publisher: publisher}
}

// UpdateStatus applies one transition requested by the restaurant. A
// cancelled target requires a note, stored as the restaurant note. The
// persisted write is compare-and-swap on the version read here, so a
// concurrent writer surfaces as models.ErrConcurrentUpdate instead of
// being silently overwritten.
func (s *Service) UpdateStatus(ctx context.Context, restaurantID, number string, target models.OrderStatus, note string) (*models.Order, error) {
	order, err := s.orders.GetForRestaurant(ctx, number, restaurantID)
	if err != nil {
		return nil, err
	}

	if err := models.ValidateTransition(order, target, note); err != nil {
		return nil, err
	}

	var notePtr *string
	if target == models.StatusCancelled {
		trimmed := strings.TrimSpace(note)
		notePtr = &trimmed
	}

	if err := s.orders.UpdateStatus(ctx, number, order.Version, target, notePtr); err != nil {
		return nil, err
	}

	oldStatus := order.Status
	order.Status = target
	order.Version++
	if notePtr != nil {
		order.RestaurantNote = *notePtr
	}

	ev := models.NewStatusChangedEvent(number, oldStatus, target, order.RestaurantNote)
	if err := s.publisher.PublishStatusChanged(ctx, ev); err != nil {
		logger.FromCtx(ctx).Error("status changed event publish failed",
			zap.String("order_number", number),
			zap.Error(err))
	}

	return order, nil
}

// ActivateOrder promotes a created order to received. Redelivered events
// report activated=false without touching the order, which makes ingestion
// safe under at-least-once delivery.
func (s *Service) ActivateOrder(ctx context.Context, number string) (bool, error) {
	activated, err := s.orders.Activate(ctx, number)
	if err != nil {
		return false, err
	}
	if !activated {
		// Either a redelivery of an order already past new, or an event
		// for an order the store has never seen.
		if _, err := s.orders.GetByNumber(ctx, number); err != nil {
			return false, err
		}
	}
	return activated, nil
}

// GetOrder returns one of the restaurant's orders.
func (s *Service) GetOrder(ctx context.Context, restaurantID, number string) (*models.Order, error) {
	return s.orders.GetForRestaurant(ctx, number, restaurantID)
}

// ListOrders returns the restaurant's orders, optionally filtered by status.
func (s *Service) ListOrders(ctx context.Context, restaurantID string, status models.OrderStatus) ([]*models.Order, error) {
	return s.orders.ListByRestaurant(ctx, restaurantID, status)
}
