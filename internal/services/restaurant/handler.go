package restaurant

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/plateful/plateful/internal/httpapi"
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

// Handler exposes the restaurant-facing HTTP surface.
type Handler struct {
	service *Service
	hub     *notify.Hub
	db      HealthChecker
	broker  BrokerChecker
}

func NewHandler(service *Service, hub *notify.Hub, db HealthChecker, broker BrokerChecker) *Handler {
	return &Handler{service: service, hub: hub, db: db, broker: broker}
}

// Routes builds the gin engine for the restaurant process.
func (h *Handler) Routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), httpapi.RequestLogger())

	r.GET("/health", h.Health)
	r.GET("/ws", func(c *gin.Context) { h.hub.ServeWS(c.Writer, c.Request) })

	api := r.Group("/restaurants/:restaurant_id")
	api.GET("/orders", h.ListOrders)
	api.GET("/orders/:number", h.GetOrder)
	api.PATCH("/orders/:number/status", h.UpdateStatus)

	return r
}

type updateStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
	Note   string             `json:"note"`
}

// UpdateStatus handles PATCH /restaurants/:restaurant_id/orders/:number/status.
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Error(c, models.ErrInvalidTransition)
		return
	}

	order, err := h.service.UpdateStatus(c.Request.Context(),
		c.Param("restaurant_id"), c.Param("number"), req.Status, req.Note)
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// GetOrder handles GET /restaurants/:restaurant_id/orders/:number.
func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.service.GetOrder(c.Request.Context(), c.Param("restaurant_id"), c.Param("number"))
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// ListOrders handles GET /restaurants/:restaurant_id/orders?status=.
func (h *Handler) ListOrders(c *gin.Context) {
	orders, err := h.service.ListOrders(c.Request.Context(),
		c.Param("restaurant_id"), models.OrderStatus(c.Query("status")))
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
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
		"service":    "restaurant-api",
		"healthy":    status == http.StatusOK,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}
