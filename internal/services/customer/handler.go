package customer

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/plateful/plateful/internal/httpapi"
	"github.com/plateful/plateful/internal/idempotency"
	"github.com/plateful/plateful/internal/logger"
	"github.com/plateful/plateful/internal/models"
	"github.com/plateful/plateful/internal/notify"
)

// HealthChecker reports the liveness of one backing dependency.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// BrokerChecker reports whether the broker connection is up.
type BrokerChecker interface {
	IsClosed() bool
}

// IdempotencyStore dedupes order-creation retries keyed by the
// Idempotency-Key header.
type IdempotencyStore interface {
	Lookup(ctx context.Context, scope, key string) (string, error)
	TryLock(ctx context.Context, scope, key string) (bool, error)
	Release(ctx context.Context, scope, key string) error
	Remember(ctx context.Context, scope, key, orderNumber string) error
}

// Handler exposes the customer-facing HTTP surface.
type Handler struct {
	service *Service
	hub     *notify.Hub
	idem    IdempotencyStore
	db      HealthChecker
	broker  BrokerChecker
}

func NewHandler(service *Service, hub *notify.Hub, idem IdempotencyStore, db HealthChecker, broker BrokerChecker) *Handler {
	return &Handler{service: service, hub: hub, idem: idem, db: db, broker: broker}
}

// Routes builds the gin engine for the customer process.
func (h *Handler) Routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), httpapi.RequestLogger())

	r.GET("/health", h.Health)
	r.GET("/ws", func(c *gin.Context) { h.hub.ServeWS(c.Writer, c.Request) })

	api := r.Group("/customers/:customer_id")
	api.POST("/orders", h.CreateOrder)
	api.GET("/orders", h.ListOrders)
	api.GET("/orders/:number", h.GetOrder)
	api.POST("/orders/:number/cancel", h.CancelOrder)

	return r
}

// CreateOrder handles POST /customers/:customer_id/orders. An optional
// Idempotency-Key header makes client retries return the original order.
func (h *Handler) CreateOrder(c *gin.Context) {
	ctx := c.Request.Context()
	customerID := c.Param("customer_id")

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Error(c, models.ErrInvalidCart)
		return
	}

	key := c.GetHeader(idempotency.Header)
	holdsLock := false
	if key != "" && h.idem != nil {
		if number, err := h.idem.Lookup(ctx, customerID, key); err != nil {
			logger.FromCtx(ctx).Warn("idempotency lookup failed", zap.Error(err))
		} else if number != "" {
			if order, err := h.service.GetOrder(ctx, customerID, number); err == nil {
				c.JSON(http.StatusOK, order)
				return
			}
		}

		locked, err := h.idem.TryLock(ctx, customerID, key)
		if err != nil {
			logger.FromCtx(ctx).Warn("idempotency lock failed", zap.Error(err))
		} else if !locked {
			c.JSON(http.StatusConflict, gin.H{"error": "a request with this idempotency key is already in flight"})
			return
		} else {
			holdsLock = true
		}
	}

	order, err := h.service.CreateOrder(ctx, customerID, &req)
	if err != nil {
		// Free the key so the client's retry is not stuck behind a lock
		// guarding a request that produced nothing.
		if holdsLock {
			if relErr := h.idem.Release(ctx, customerID, key); relErr != nil {
				logger.FromCtx(ctx).Warn("idempotency release failed", zap.Error(relErr))
			}
		}
		httpapi.Error(c, err)
		return
	}

	if key != "" && h.idem != nil {
		if err := h.idem.Remember(ctx, customerID, key, order.OrderNumber); err != nil {
			logger.FromCtx(ctx).Warn("idempotency remember failed", zap.Error(err))
		}
	}

	c.JSON(http.StatusCreated, order)
}

// GetOrder handles GET /customers/:customer_id/orders/:number.
func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.service.GetOrder(c.Request.Context(), c.Param("customer_id"), c.Param("number"))
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// ListOrders handles GET /customers/:customer_id/orders?status=.
func (h *Handler) ListOrders(c *gin.Context) {
	orders, err := h.service.ListOrders(c.Request.Context(),
		c.Param("customer_id"), models.OrderStatus(c.Query("status")))
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// CancelOrder handles POST /customers/:customer_id/orders/:number/cancel.
func (h *Handler) CancelOrder(c *gin.Context) {
	order, err := h.service.CancelOrder(c.Request.Context(), c.Param("customer_id"), c.Param("number"))
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	components := gin.H{"database": "ok", "rabbitmq": "ok"}
	status := http.StatusOK
	if err := h.db.Ping(ctx); err != nil {
		components["database"] = "down"
		status = http.StatusServiceUnavailable
	}
	if h.broker == nil || h.broker.IsClosed() {
		components["rabbitmq"] = "down"
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"service":    "customer-api",
		"healthy":    status == http.StatusOK,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}
