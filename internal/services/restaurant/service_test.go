package restaurant

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/plateful/plateful/internal/models"
)

type MockOrderStore struct {
	mock.Mock
}

func (m *MockOrderStore) GetByNumber(ctx context.Context, number string) (*models.Order, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderStore) GetForRestaurant(ctx context.Context, number, restaurantID string) (*models.Order, error) {
	args := m.Called(ctx, number, restaurantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderStore) ListByRestaurant(ctx context.Context, restaurantID string, status models.OrderStatus) ([]*models.Order, error) {
	args := m.Called(ctx, restaurantID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Order), args.Error(1)
}

func (m *MockOrderStore) UpdateStatus(ctx context.Context, number string, version int, target models.OrderStatus, note *string) error {
	args := m.Called(ctx, number, version, target, note)
	return args.Error(0)
}

func (m *MockOrderStore) Activate(ctx context.Context, number string) (bool, error) {
	args := m.Called(ctx, number)
	return args.Bool(0), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishStatusChanged(ctx context.Context, ev *models.StatusChangedEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func deliveryOrder(status models.OrderStatus) *models.Order {
	return &models.Order{
		OrderNumber:  "ORD-00001234",
		CustomerID:   "cust-1",
		RestaurantID: "rest-1",
		IsDelivery:   true,
		Status:       status,
		Version:      3,
	}
}

func TestUpdateStatus(t *testing.T) {
	store := &MockOrderStore{}
	publisher := &MockPublisher{}
	service := NewService(store, publisher)
	ctx := context.Background()

	store.On("GetForRestaurant", ctx, "ORD-00001234", "rest-1").Return(deliveryOrder(models.StatusReceived), nil)
	store.On("UpdateStatus", ctx, "ORD-00001234", 3, models.StatusPreparing, (*string)(nil)).Return(nil)
	publisher.On("PublishStatusChanged", ctx, mock.MatchedBy(func(ev *models.StatusChangedEvent) bool {
		return ev.OrderNumber == "ORD-00001234" &&
			ev.OldStatus == models.StatusReceived &&
			ev.NewStatus == models.StatusPreparing
	})).Return(nil)

	order, err := service.UpdateStatus(ctx, "rest-1", "ORD-00001234", models.StatusPreparing, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPreparing, order.Status)
	assert.Equal(t, 4, order.Version)

	store.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestUpdateStatusRejections(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		current models.OrderStatus
		target  models.OrderStatus
		note    string
		wantErr error
	}{
		{"same status", models.StatusPreparing, models.StatusPreparing, "", models.ErrInvalidTransition},
		{"already cancelled", models.StatusCancelled, models.StatusPreparing, "", models.ErrInvalidTransition},
		{"already delivered", models.StatusDelivered, models.StatusPreparing, "", models.ErrInvalidTransition},
		{"pickup status on delivery order", models.StatusPreparing, models.StatusPickupReady, "", models.ErrInvalidTransition},
		{"cancel without note", models.StatusPreparing, models.StatusCancelled, "", models.ErrNoteRequired},
		{"cancel with blank note", models.StatusPreparing, models.StatusCancelled, "   ", models.ErrNoteRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &MockOrderStore{}
			publisher := &MockPublisher{}
			service := NewService(store, publisher)

			store.On("GetForRestaurant", ctx, "ORD-00001234", "rest-1").Return(deliveryOrder(tt.current), nil)

			_, err := service.UpdateStatus(ctx, "rest-1", "ORD-00001234", tt.target, tt.note)
			assert.ErrorIs(t, err, tt.wantErr)
			store.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			publisher.AssertNotCalled(t, "PublishStatusChanged", mock.Anything, mock.Anything)
		})
	}
}

func TestUpdateStatusCancelPersistsNote(t *testing.T) {
	store := &MockOrderStore{}
	publisher := &MockPublisher{}
	service := NewService(store, publisher)
	ctx := context.Background()

	note := "out of dough"
	store.On("GetForRestaurant", ctx, "ORD-00001234", "rest-1").Return(deliveryOrder(models.StatusReceived), nil)
	store.On("UpdateStatus", ctx, "ORD-00001234", 3, models.StatusCancelled, &note).Return(nil)
	publisher.On("PublishStatusChanged", ctx, mock.MatchedBy(func(ev *models.StatusChangedEvent) bool {
		return ev.NewStatus == models.StatusCancelled && ev.Note == "out of dough"
	})).Return(nil)

	order, err := service.UpdateStatus(ctx, "rest-1", "ORD-00001234", models.StatusCancelled, "out of dough")
	require.NoError(t, err)
	assert.Equal(t, "out of dough", order.RestaurantNote)

	store.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestUpdateStatusConcurrentWriter(t *testing.T) {
	store := &MockOrderStore{}
	publisher := &MockPublisher{}
	service := NewService(store, publisher)
	ctx := context.Background()

	store.On("GetForRestaurant", ctx, "ORD-00001234", "rest-1").Return(deliveryOrder(models.StatusReceived), nil)
	store.On("UpdateStatus", ctx, "ORD-00001234", 3, models.StatusPreparing, (*string)(nil)).Return(models.ErrConcurrentUpdate)

	_, err := service.UpdateStatus(ctx, "rest-1", "ORD-00001234", models.StatusPreparing, "")
	assert.ErrorIs(t, err, models.ErrConcurrentUpdate)
	publisher.AssertNotCalled(t, "PublishStatusChanged", mock.Anything, mock.Anything)
}

func TestUpdateStatusPublishFailureIsSwallowed(t *testing.T) {
	store := &MockOrderStore{}
	publisher := &MockPublisher{}
	service := NewService(store, publisher)
	ctx := context.Background()

	store.On("GetForRestaurant", ctx, "ORD-00001234", "rest-1").Return(deliveryOrder(models.StatusReceived), nil)
	store.On("UpdateStatus", ctx, "ORD-00001234", 3, models.StatusPreparing, (*string)(nil)).Return(nil)
	publisher.On("PublishStatusChanged", ctx, mock.Anything).Return(errors.New("broker down"))

	order, err := service.UpdateStatus(ctx, "rest-1", "ORD-00001234", models.StatusPreparing, "")
	require.NoError(t, err, "the status change is already persisted; publish failures are logged")
	assert.Equal(t, models.StatusPreparing, order.Status)
}

func TestActivateOrder(t *testing.T) {
	store := &MockOrderStore{}
	service := NewService(store, &MockPublisher{})
	ctx := context.Background()

	store.On("Activate", ctx, "ORD-00001234").Return(true, nil)

	activated, err := service.ActivateOrder(ctx, "ORD-00001234")
	require.NoError(t, err)
	assert.True(t, activated)
	store.AssertNotCalled(t, "GetByNumber", mock.Anything, mock.Anything)
}

func TestActivateOrderRedelivery(t *testing.T) {
	store := &MockOrderStore{}
	service := NewService(store, &MockPublisher{})
	ctx := context.Background()

	// A second delivery of the same created event finds the order already
	// past new; that is a no-op, not an error.
	store.On("Activate", ctx, "ORD-00001234").Return(false, nil)
	store.On("GetByNumber", ctx, "ORD-00001234").Return(deliveryOrder(models.StatusPreparing), nil)

	activated, err := service.ActivateOrder(ctx, "ORD-00001234")
	require.NoError(t, err)
	assert.False(t, activated)
}

func TestActivateOrderUnknown(t *testing.T) {
	store := &MockOrderStore{}
	service := NewService(store, &MockPublisher{})
	ctx := context.Background()

	store.On("Activate", ctx, "ORD-99999999").Return(false, nil)
	store.On("GetByNumber", ctx, "ORD-99999999").Return(nil, models.ErrNotFound)

	_, err := service.ActivateOrder(ctx, "ORD-99999999")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
