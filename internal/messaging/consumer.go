package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/plateful/plateful/internal/logger"
)

// Handler processes one decoded message body. A returned error requeues the
// delivery; returning nil acknowledges it.
type Handler func(ctx context.Context, body []byte) error

// Consumer is a long-lived subscription to one queue, processing deliveries
// one at a time. A failed message never stops the loop.
type Consumer struct {
	conn        *Connection
	queueName   string
	consumerTag string
	prefetch    int
}

// NewConsumer builds a consumer for one queue. The consumer tag is derived
// from the queue name: tags registered on a connection must be unique, or
// the broker library closes the earlier subscription with the same tag.
func NewConsumer(conn *Connection, queueName, consumerTag string) *Consumer {
	return &Consumer{
		conn:        conn,
		queueName:   queueName,
		consumerTag: consumerTag + "." + queueName,
		prefetch:    1,
	}
}

// Start consumes until ctx is cancelled. It blocks; callers run it in a
// goroutine alongside the HTTP server. Each Start opens its own channel so
// several consumers can share one connection.
func (c *Consumer) Start(ctx context.Context, handler Handler) error {
	if c.conn.IsClosed() {
		if err := c.conn.Reconnect(); err != nil {
			return fmt.Errorf("reconnect: %w", err)
		}
	}

	ch, err := c.conn.NewChannel()
	if err != nil {
		return fmt.Errorf("open consumer channel: %w", err)
	}
	defer ch.Close()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}

	msgs, err := ch.Consume(
		c.queueName,
		c.consumerTag,
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	log := logger.L().With(zap.String("queue", c.queueName), zap.String("consumer", c.consumerTag))
	log.Info("consumer started")

	for {
		select {
		case <-ctx.Done():
			log.Info("consumer stopped")
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				log.Warn("delivery channel closed, resubscribing")
				ch.Close()
				if c.conn.IsClosed() {
					if err := c.conn.Reconnect(); err != nil {
						return fmt.Errorf("reconnect after channel closed: %w", err)
					}
				}
				return c.Start(ctx, handler)
			}
			c.process(ctx, d, handler, log)
		}
	}
}

func (c *Consumer) process(ctx context.Context, d amqp091.Delivery, handler Handler, log *zap.Logger) {
	// Reject unparseable payloads without requeue; a poison message must
	// not block the queue.
	if !json.Valid(d.Body) {
		log.Error("dropping malformed message",
			zap.String("routing_key", d.RoutingKey),
			zap.Int("message_size", len(d.Body)))
		if err := d.Nack(false, false); err != nil {
			log.Error("nack failed", zap.Error(err))
		}
		return
	}

	start := time.Now()
	handlerCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err := handler(handlerCtx, d.Body)
	cancel()

	if err != nil {
		log.Error("message processing failed",
			zap.String("routing_key", d.RoutingKey),
			zap.Duration("took", time.Since(start)),
			zap.Error(err))
		if nackErr := d.Nack(false, true); nackErr != nil {
			log.Error("nack failed", zap.Error(nackErr))
		}
		return
	}

	log.Debug("message processed",
		zap.String("routing_key", d.RoutingKey),
		zap.Duration("took", time.Since(start)))
	if ackErr := d.Ack(false); ackErr != nil {
		log.Error("ack failed", zap.Error(ackErr))
	}
}
