package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/plateful/plateful/internal/logger"
	"github.com/plateful/plateful/internal/models"
)

// Publisher publishes order events to the orders.events exchange. All
// methods return the publish error to the caller; services decide whether
// to surface or just log it.
type Publisher struct {
	conn *Connection
}

func NewPublisher(conn *Connection) *Publisher {
	return &Publisher{conn: conn}
}

func (p *Publisher) PublishOrderCreated(ctx context.Context, ev *models.OrderCreatedEvent) error {
	return p.publish(ctx, models.EventOrderCreated, ev)
}

func (p *Publisher) PublishStatusChanged(ctx context.Context, ev *models.StatusChangedEvent) error {
	return p.publish(ctx, models.EventStatusChanged, ev)
}

func (p *Publisher) PublishOrderCancelled(ctx context.Context, ev *models.OrderCancelledEvent) error {
	return p.publish(ctx, models.EventOrderCancelled, ev)
}

func (p *Publisher) publish(ctx context.Context, routingKey string, message any) error {
	if p.conn.IsClosed() {
		if err := p.conn.Reconnect(); err != nil {
			return fmt.Errorf("reconnect: %w", err)
		}
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err = p.conn.Channel().PublishWithContext(
		ctx,
		Exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}

	logger.FromCtx(ctx).Debug("event published",
		zap.String("routing_key", routingKey),
		zap.Int("message_size", len(body)))
	return nil
}
