package models

import "time"

// Event routing keys on the orders.events exchange. Messages for one order
// always carry the same key per topic, so per-order ordering holds within
// each queue.
const (
	EventOrderCreated   = "order.created"
	EventStatusChanged  = "order.status_changed"
	EventOrderCancelled = "order.cancelled"
)

// OrderCreatedEvent carries the full order so the restaurant side can
// activate and display it without a read back to the store.
type OrderCreatedEvent struct {
	Order Order `json:"order"`
}

// StatusChangedEvent notifies the customer side of a restaurant-applied
// status transition.
type StatusChangedEvent struct {
	OrderNumber string      `json:"order_number"`
	OldStatus   OrderStatus `json:"old_status"`
	NewStatus   OrderStatus `json:"new_status"`
	Note        string      `json:"note,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
}

// OrderCancelledEvent notifies the restaurant side of a customer-initiated
// cancellation.
type OrderCancelledEvent struct {
	OrderNumber  string    `json:"order_number"`
	RestaurantID string    `json:"restaurant_id"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewStatusChangedEvent builds a status change event stamped with the
// current UTC time.
func NewStatusChangedEvent(orderNumber string, from, to OrderStatus, note string) *StatusChangedEvent {
	return &StatusChangedEvent{
		OrderNumber: orderNumber,
		OldStatus:   from,
		NewStatus:   to,
		Note:        note,
		Timestamp:   time.Now().UTC(),
	}
}

// NewOrderCancelledEvent builds a cancellation event stamped with the
// current UTC time.
func NewOrderCancelledEvent(orderNumber, restaurantID string) *OrderCancelledEvent {
	return &OrderCancelledEvent{
		OrderNumber:  orderNumber,
		RestaurantID: restaurantID,
		Timestamp:    time.Now().UTC(),
	}
}
