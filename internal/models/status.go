package models

import (
	"fmt"
	"strings"
)

// OrderStatus is the lifecycle state of an order. Two disjoint vocabularies
// exist, selected by Order.IsDelivery; both share new, received, preparing
// and cancelled.
type OrderStatus string

const (
	StatusNew         OrderStatus = "new"
	StatusReceived    OrderStatus = "received"
	StatusPreparing   OrderStatus = "preparing"
	StatusOnTheWay    OrderStatus = "on_the_way"
	StatusDelivered   OrderStatus = "delivered"
	StatusPickupReady OrderStatus = "pickup_ready"
	StatusPickedUp    OrderStatus = "picked_up"
	StatusCancelled   OrderStatus = "cancelled"
)

var deliveryVocabulary = map[OrderStatus]bool{
	StatusNew:       true,
	StatusReceived:  true,
	StatusPreparing: true,
	StatusOnTheWay:  true,
	StatusDelivered: true,
	StatusCancelled: true,
}

var pickupVocabulary = map[OrderStatus]bool{
	StatusNew:         true,
	StatusReceived:    true,
	StatusPreparing:   true,
	StatusPickupReady: true,
	StatusPickedUp:    true,
	StatusCancelled:   true,
}

// VocabularyFor returns the set of statuses valid for the order kind.
func VocabularyFor(isDelivery bool) map[OrderStatus]bool {
	if isDelivery {
		return deliveryVocabulary
	}
	return pickupVocabulary
}

// IsTerminal reports whether no further transitions are allowed from s.
func IsTerminal(s OrderStatus) bool {
	return s == StatusDelivered || s == StatusPickedUp || s == StatusCancelled
}

// ValidateTransition checks a restaurant-requested status change against the
// state machine. It deliberately does not enforce forward-only ordering among
// the non-terminal states; only vocabulary membership and terminality are
// checked.
func ValidateTransition(o *Order, target OrderStatus, note string) error {
	if target == o.Status {
		return fmt.Errorf("%w: order %s is already %s", ErrInvalidTransition, o.OrderNumber, o.Status)
	}
	if o.Status == StatusCancelled {
		return fmt.Errorf("%w: order %s has been cancelled", ErrInvalidTransition, o.OrderNumber)
	}
	if IsTerminal(o.Status) {
		return fmt.Errorf("%w: order %s is already %s", ErrInvalidTransition, o.OrderNumber, o.Status)
	}
	if !VocabularyFor(o.IsDelivery)[target] {
		kind := "pickup"
		if o.IsDelivery {
			kind = "delivery"
		}
		return fmt.Errorf("%w: status %q is not valid for a %s order", ErrInvalidTransition, target, kind)
	}
	if target == StatusCancelled && strings.TrimSpace(note) == "" {
		return fmt.Errorf("%w: cancelling an order requires a note for the customer", ErrNoteRequired)
	}
	return nil
}

// CanCustomerCancel reports whether the customer-initiated cancellation
// window is still open.
func CanCustomerCancel(o *Order) bool {
	return o.Status == StatusNew || o.Status == StatusReceived
}
