package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deliveryOrder(status OrderStatus) *Order {
	return &Order{OrderNumber: "ORD-00000001", IsDelivery: true, Status: status}
}

func pickupOrder(status OrderStatus) *Order {
	return &Order{OrderNumber: "ORD-00000002", IsDelivery: false, Status: status}
}

func TestValidateTransitionSameStatus(t *testing.T) {
	for _, status := range []OrderStatus{StatusNew, StatusReceived, StatusPreparing} {
		err := ValidateTransition(deliveryOrder(status), status, "")
		assert.ErrorIs(t, err, ErrInvalidTransition, "target == current must be rejected for %s", status)
	}
}

func TestValidateTransitionFromCancelled(t *testing.T) {
	targets := []OrderStatus{StatusNew, StatusReceived, StatusPreparing, StatusOnTheWay, StatusDelivered}
	for _, target := range targets {
		err := ValidateTransition(deliveryOrder(StatusCancelled), target, "a note")
		assert.ErrorIs(t, err, ErrInvalidTransition, "cancelled is terminal, target %s", target)
	}
}

func TestValidateTransitionFromCompleted(t *testing.T) {
	err := ValidateTransition(deliveryOrder(StatusDelivered), StatusPreparing, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	err = ValidateTransition(pickupOrder(StatusPickedUp), StatusPreparing, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestValidateTransitionVocabulary(t *testing.T) {
	// A delivery order cannot take pickup-only statuses and vice versa.
	err := ValidateTransition(deliveryOrder(StatusPreparing), StatusPickupReady, "")
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Contains(t, err.Error(), "delivery")

	err = ValidateTransition(pickupOrder(StatusPreparing), StatusOnTheWay, "")
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Contains(t, err.Error(), "pickup")
}

func TestValidateTransitionSkipsAllowed(t *testing.T) {
	// Forward-only ordering among non-terminal states is deliberately not
	// enforced; jumping new -> pickup_ready in one call is legal.
	assert.NoError(t, ValidateTransition(pickupOrder(StatusNew), StatusPickupReady, ""))
	assert.NoError(t, ValidateTransition(deliveryOrder(StatusNew), StatusOnTheWay, ""))
}

func TestValidateTransitionCancelRequiresNote(t *testing.T) {
	err := ValidateTransition(deliveryOrder(StatusReceived), StatusCancelled, "")
	assert.ErrorIs(t, err, ErrNoteRequired)

	err = ValidateTransition(deliveryOrder(StatusReceived), StatusCancelled, "   ")
	assert.ErrorIs(t, err, ErrNoteRequired)

	assert.NoError(t, ValidateTransition(deliveryOrder(StatusReceived), StatusCancelled, "out of stock"))
}

func TestValidateTransitionHappyPath(t *testing.T) {
	steps := []struct {
		from, to OrderStatus
	}{
		{StatusNew, StatusReceived},
		{StatusReceived, StatusPreparing},
		{StatusPreparing, StatusOnTheWay},
		{StatusOnTheWay, StatusDelivered},
	}
	for _, step := range steps {
		assert.NoError(t, ValidateTransition(deliveryOrder(step.from), step.to, ""), "%s -> %s", step.from, step.to)
	}
}

func TestCanCustomerCancel(t *testing.T) {
	assert.True(t, CanCustomerCancel(deliveryOrder(StatusNew)))
	assert.True(t, CanCustomerCancel(deliveryOrder(StatusReceived)))

	for _, status := range []OrderStatus{StatusPreparing, StatusOnTheWay, StatusDelivered, StatusCancelled} {
		assert.False(t, CanCustomerCancel(deliveryOrder(status)), "status %s", status)
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(StatusDelivered))
	assert.True(t, IsTerminal(StatusPickedUp))
	assert.True(t, IsTerminal(StatusCancelled))
	assert.False(t, IsTerminal(StatusNew))
	assert.False(t, IsTerminal(StatusPreparing))
}
