package restaurant

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/plateful/plateful/internal/logger"
	"github.com/plateful/plateful/internal/models"
	"github.com/plateful/plateful/internal/notify"
)

// IngestConsumer activates orders from order.created events and pushes
// them to connected restaurant clients.
type IngestConsumer struct {
	service *Service
	hub     *notify.Hub
}

func NewIngestConsumer(service *Service, hub *notify.Hub) *IngestConsumer {
	return &IngestConsumer{service: service, hub: hub}
}

// Handle processes one created event. Unparseable payloads and events for
// orders the store has never seen are logged and dropped; transient store
// failures are returned so the delivery is requeued.
func (c *IngestConsumer) Handle(ctx context.Context, body []byte) error {
	var ev models.OrderCreatedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		logger.FromCtx(ctx).Error("dropping unparseable created event", zap.Error(err))
		return nil
	}

	number := ev.Order.OrderNumber
	activated, err := c.service.ActivateOrder(ctx, number)
	if errors.Is(err, models.ErrNotFound) {
		logger.FromCtx(ctx).Error("created event for unknown order",
			zap.String("order_number", number))
		return nil
	}
	if err != nil {
		return err
	}
	if !activated {
		logger.FromCtx(ctx).Info("duplicate created event, order already active",
			zap.String("order_number", number))
		return nil
	}

	logger.FromCtx(ctx).Info("order activated",
		zap.String("order_number", number),
		zap.String("restaurant_id", ev.Order.RestaurantID),
		zap.Float64("total_amount", ev.Order.TotalAmount))

	ev.Order.Status = models.StatusReceived
	c.hub.Broadcast("order_created", ev.Order)
	return nil
}

// CancelConsumer forwards order.cancelled events to connected restaurant
// clients. The cancellation was persisted by the customer side before
// publishing.
type CancelConsumer struct {
	hub *notify.Hub
}

func NewCancelConsumer(hub *notify.Hub) *CancelConsumer {
	return &CancelConsumer{hub: hub}
}

func (c *CancelConsumer) Handle(ctx context.Context, body []byte) error {
	var ev models.OrderCancelledEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		logger.FromCtx(ctx).Error("dropping unparseable cancelled event", zap.Error(err))
		return nil
	}

	logger.FromCtx(ctx).Info("order cancelled by customer",
		zap.String("order_number", ev.OrderNumber),
		zap.String("restaurant_id", ev.RestaurantID))

	c.hub.Broadcast("order_cancelled", ev)
	return nil
}
