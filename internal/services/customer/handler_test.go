package customer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/plateful/plateful/internal/directory"
	"github.com/plateful/plateful/internal/idempotency"
	"github.com/plateful/plateful/internal/notify"
)

type MockIdempotency struct {
	mock.Mock
}

func (m *MockIdempotency) Lookup(ctx context.Context, scope, key string) (string, error) {
	args := m.Called(ctx, scope, key)
	return args.String(0), args.Error(1)
}

func (m *MockIdempotency) TryLock(ctx context.Context, scope, key string) (bool, error) {
	args := m.Called(ctx, scope, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotency) Release(ctx context.Context, scope, key string) error {
	args := m.Called(ctx, scope, key)
	return args.Error(0)
}

func (m *MockIdempotency) Remember(ctx context.Context, scope, key, orderNumber string) error {
	args := m.Called(ctx, scope, key, orderNumber)
	return args.Error(0)
}

type okPinger struct{}

func (okPinger) Ping(ctx context.Context) error { return nil }

type openBroker struct{}

func (openBroker) IsClosed() bool { return false }

const createOrderBody = `{
	"restaurant_id": "rest-1",
	"items": [{"dish_id": "dish-a", "size_id": "sz-l", "quantity": 2}],
	"is_delivery": true,
	"address_id": "addr-1"
}`

func postOrder(t *testing.T, router *gin.Engine, key string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/customers/cust-1/orders", strings.NewReader(createOrderBody))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(idempotency.Header, key)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateOrderReleasesKeyOnFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newFixture()
	idem := &MockIdempotency{}
	hub := notify.NewHub("customer")
	defer hub.Close()

	h := NewHandler(f.service, hub, idem, okPinger{}, openBroker{})

	idem.On("Lookup", mock.Anything, "cust-1", "key-1").Return("", nil)
	idem.On("TryLock", mock.Anything, "cust-1", "key-1").Return(true, nil)
	idem.On("Release", mock.Anything, "cust-1", "key-1").Return(nil)
	f.customers.On("Customer", mock.Anything, "cust-1").Return(nil, directory.ErrCustomerNotFound)

	w := postOrder(t, h.Routes(), "key-1")

	// The key must be freed so the client's retry can reach the service
	// again instead of bouncing off the in-flight lock.
	assert.Equal(t, http.StatusNotFound, w.Code)
	idem.AssertCalled(t, "Release", mock.Anything, "cust-1", "key-1")
	idem.AssertNotCalled(t, "Remember", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateOrderRemembersKeyOnSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newFixture()
	idem := &MockIdempotency{}
	hub := notify.NewHub("customer")
	defer hub.Close()

	h := NewHandler(f.service, hub, idem, okPinger{}, openBroker{})

	idem.On("Lookup", mock.Anything, "cust-1", "key-1").Return("", nil)
	idem.On("TryLock", mock.Anything, "cust-1", "key-1").Return(true, nil)
	idem.On("Remember", mock.Anything, "cust-1", "key-1", "ORD-00001234").Return(nil)

	f.customers.On("Customer", mock.Anything, "cust-1").Return(testCustomer(), nil)
	f.restaurants.On("Restaurant", mock.Anything, "rest-1").Return(testRestaurant("WA"), nil)
	f.catalog.On("DishesByIDs", mock.Anything, []string{"dish-a"}).Return(testDishes(), nil)
	f.numbers.On("Next", mock.Anything).Return("ORD-00001234", nil)
	f.orders.On("Insert", mock.Anything, mock.Anything).Return(nil)
	f.publisher.On("PublishOrderCreated", mock.Anything, mock.Anything).Return(nil)

	w := postOrder(t, h.Routes(), "key-1")

	assert.Equal(t, http.StatusCreated, w.Code)
	idem.AssertCalled(t, "Remember", mock.Anything, "cust-1", "key-1", "ORD-00001234")
	idem.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateOrderInFlightKeyConflicts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newFixture()
	idem := &MockIdempotency{}
	hub := notify.NewHub("customer")
	defer hub.Close()

	h := NewHandler(f.service, hub, idem, okPinger{}, openBroker{})

	idem.On("Lookup", mock.Anything, "cust-1", "key-1").Return("", nil)
	idem.On("TryLock", mock.Anything, "cust-1", "key-1").Return(false, nil)

	w := postOrder(t, h.Routes(), "key-1")

	assert.Equal(t, http.StatusConflict, w.Code)
	f.orders.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}
