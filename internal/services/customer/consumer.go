package customer

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/plateful/plateful/internal/logger"
	"github.com/plateful/plateful/internal/models"
	"github.com/plateful/plateful/internal/notify"
)

// StatusConsumer forwards order.status_changed events to connected
// customer clients. The status change itself was persisted by the
// restaurant side before publishing; there is nothing else to do here.
type StatusConsumer struct {
	hub *notify.Hub
}

func NewStatusConsumer(hub *notify.Hub) *StatusConsumer {
	return &StatusConsumer{hub: hub}
}

// Handle decodes one status event and broadcasts it. Malformed payloads
// are logged and dropped so they never block the queue.
func (c *StatusConsumer) Handle(ctx context.Context, body []byte) error {
	var ev models.StatusChangedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		logger.FromCtx(ctx).Error("dropping unparseable status event", zap.Error(err))
		return nil
	}

	logger.FromCtx(ctx).Info("order status changed",
		zap.String("order_number", ev.OrderNumber),
		zap.String("old_status", string(ev.OldStatus)),
		zap.String("new_status", string(ev.NewStatus)))

	c.hub.Broadcast("order_status_changed", ev)
	return nil
}
