// Package store is the persistence layer for the order aggregate, the
// single source of truth for order state.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/plateful/plateful/internal/database"
	"github.com/plateful/plateful/internal/models"
)

const uniqueViolation = "23505"

// Orders is the pgx-backed order repository.
type Orders struct {
	db *database.DB
}

func NewOrders(db *database.DB) *Orders {
	return &Orders{db: db}
}

// Insert persists a freshly priced order. A duplicate order number surfaces
// as models.ErrDuplicateNumber so the intake path can map it to a conflict.
func (s *Orders) Insert(ctx context.Context, o *models.Order) error {
	customerJSON, err := json.Marshal(o.CustomerDetails)
	if err != nil {
		return fmt.Errorf("marshal customer details: %w", err)
	}
	restaurantJSON, err := json.Marshal(o.RestaurantDetails)
	if err != nil {
		return fmt.Errorf("marshal restaurant details: %w", err)
	}
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}

	var addressJSON []byte
	if o.DeliveryAddress != nil {
		addressJSON, err = json.Marshal(o.DeliveryAddress)
		if err != nil {
			return fmt.Errorf("marshal delivery address: %w", err)
		}
	}

	err = s.db.QueryRow(ctx, database.InsertOrderSQL,
		o.OrderNumber, o.CustomerID, o.RestaurantID,
		customerJSON, restaurantJSON, itemsJSON,
		o.Subtotal, o.TaxRate, o.TaxAmount, o.DeliveryFee, o.TotalAmount,
		o.IsDelivery, addressJSON, o.Status, nullable(o.CustomerNote),
	).Scan(&o.ID, &o.Version, &o.CreatedAt, &o.UpdatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", models.ErrDuplicateNumber, o.OrderNumber)
	}
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// GetByNumber fetches one order regardless of owner.
func (s *Orders) GetByNumber(ctx context.Context, number string) (*models.Order, error) {
	return scanOrder(s.db.QueryRow(ctx, database.GetOrderByNumberSQL, number))
}

// GetForCustomer fetches one order scoped to its owning customer.
func (s *Orders) GetForCustomer(ctx context.Context, number, customerID string) (*models.Order, error) {
	return scanOrder(s.db.QueryRow(ctx, database.GetOrderForCustomerSQL, number, customerID))
}

// GetForRestaurant fetches one order scoped to its restaurant.
func (s *Orders) GetForRestaurant(ctx context.Context, number, restaurantID string) (*models.Order, error) {
	return scanOrder(s.db.QueryRow(ctx, database.GetOrderForRestaurantSQL, number, restaurantID))
}

// ListByCustomer returns a customer's orders, newest first, optionally
// filtered by status.
func (s *Orders) ListByCustomer(ctx context.Context, customerID string, status models.OrderStatus) ([]*models.Order, error) {
	return s.list(ctx, database.ListOrdersByCustomerSQL, customerID, status)
}

// ListByRestaurant returns a restaurant's orders, newest first, optionally
// filtered by status.
func (s *Orders) ListByRestaurant(ctx context.Context, restaurantID string, status models.OrderStatus) ([]*models.Order, error) {
	return s.list(ctx, database.ListOrdersByRestaurantSQL, restaurantID, status)
}

func (s *Orders) list(ctx context.Context, sql, ownerID string, status models.OrderStatus) ([]*models.Order, error) {
	rows, err := s.db.Query(ctx, sql, ownerID, string(status))
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// OrderNumberExists is the allocator's collision check.
func (s *Orders) OrderNumberExists(ctx context.Context, number string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, database.OrderNumberExistsSQL, number).Scan(&exists)
	return exists, err
}

// UpdateStatus applies a status change with a compare-and-swap on version.
// Zero rows matched means another writer got there first.
func (s *Orders) UpdateStatus(ctx context.Context, number string, version int, target models.OrderStatus, note *string) error {
	tag, err := s.db.Pool.Exec(ctx, database.UpdateOrderStatusSQL, target, note, number, version)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: order %s", models.ErrConcurrentUpdate, number)
	}
	return nil
}

// Activate promotes a freshly created order to received. It matches on the
// current status, so redelivered created events report activated=false
// instead of mutating the order again.
func (s *Orders) Activate(ctx context.Context, number string) (bool, error) {
	tag, err := s.db.Pool.Exec(ctx, database.ActivateOrderSQL, number)
	if err != nil {
		return false, fmt.Errorf("activate order: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var (
		o                            models.Order
		customerJSON                 []byte
		restaurantJSON               []byte
		itemsJSON                    []byte
		addressJSON                  []byte
		customerNote, restaurantNote *string
	)

	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerID, &o.RestaurantID,
		&customerJSON, &restaurantJSON, &itemsJSON,
		&o.Subtotal, &o.TaxRate, &o.TaxAmount, &o.DeliveryFee, &o.TotalAmount,
		&o.IsDelivery, &addressJSON, &o.Status, &customerNote, &restaurantNote,
		&o.Version, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan order: %w", err)
	}

	if err := json.Unmarshal(customerJSON, &o.CustomerDetails); err != nil {
		return nil, fmt.Errorf("decode customer details: %w", err)
	}
	if err := json.Unmarshal(restaurantJSON, &o.RestaurantDetails); err != nil {
		return nil, fmt.Errorf("decode restaurant details: %w", err)
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	if len(addressJSON) > 0 {
		o.DeliveryAddress = &models.Address{}
		if err := json.Unmarshal(addressJSON, o.DeliveryAddress); err != nil {
			return nil, fmt.Errorf("decode delivery address: %w", err)
		}
	}
	if customerNote != nil {
		o.CustomerNote = *customerNote
	}
	if restaurantNote != nil {
		o.RestaurantNote = *restaurantNote
	}
	return &o, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
