// Package messaging is the event channel between the customer-facing and
// restaurant-facing processes: one topic exchange, one durable queue per
// event kind. Delivery is at-least-once; per-order ordering holds within a
// queue because every message for an order uses the same routing key.
package messaging

import (
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/plateful/plateful/internal/config"
	"github.com/plateful/plateful/internal/logger"
	"github.com/plateful/plateful/internal/models"
)

const Exchange = "orders.events"

// Queue names, one per routing key.
const (
	QueueOrderCreated   = "orders.created.q"
	QueueStatusChanged  = "orders.status.q"
	QueueOrderCancelled = "orders.cancelled.q"
)

var bindings = []struct {
	queue      string
	routingKey string
}{
	{QueueOrderCreated, models.EventOrderCreated},
	{QueueStatusChanged, models.EventStatusChanged},
	{QueueOrderCancelled, models.EventOrderCancelled},
}

// Connection wraps the RabbitMQ connection with startup retry and
// reconnection. It is constructed explicitly in main and closed on
// shutdown; nothing else owns broker state.
type Connection struct {
	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel
	url     string
}

// Connect establishes the broker connection and declares the topology.
func Connect(cfg *config.Config) (*Connection, error) {
	c := &Connection{url: cfg.RabbitMQURL()}
	if err := c.connect(); err != nil {
		return nil, fmt.Errorf("establish initial connection: %w", err)
	}
	return c, nil
}

func (c *Connection) connect() error {
	maxRetries := 5
	var err error

	for i := 0; i < maxRetries; i++ {
		c.conn, err = amqp091.Dial(c.url)
		if err == nil {
			c.channel, err = c.conn.Channel()
			if err == nil {
				if setupErr := c.setupTopology(); setupErr != nil {
					c.close()
					err = setupErr
				} else {
					return nil
				}
			} else {
				c.conn.Close()
			}
		}

		if i < maxRetries-1 {
			wait := time.Duration(i+1) * 2 * time.Second
			logger.L().Warn("rabbitmq connect failed, retrying",
				zap.Duration("wait", wait),
				zap.Error(err))
			time.Sleep(wait)
		}
	}

	return fmt.Errorf("connect to RabbitMQ after %d attempts: %w", maxRetries, err)
}

func (c *Connection) setupTopology() error {
	err := c.channel.ExchangeDeclare(
		Exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare %s exchange: %w", Exchange, err)
	}

	for _, b := range bindings {
		_, err = c.channel.QueueDeclare(
			b.queue,
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", b.queue, err)
		}

		err = c.channel.QueueBind(b.queue, b.routingKey, Exchange, false, nil)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.routingKey, err)
		}
	}

	return nil
}

// Channel returns the channel owned by the connection. Publishers share it;
// consumers must open their own with NewChannel.
func (c *Connection) Channel() *amqp091.Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channel
}

// NewChannel opens a dedicated channel on the connection. Each consumer runs
// on its own channel so tearing one subscription down cannot close
// another's deliveries.
func (c *Connection) NewChannel() (*amqp091.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || c.conn.IsClosed() {
		return nil, amqp091.ErrClosed
	}
	return c.conn.Channel()
}

// IsClosed checks if the connection is closed.
func (c *Connection) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn == nil || c.conn.IsClosed()
}

// Reconnect re-establishes the connection if it is down. When several
// goroutines notice the outage at once, the first one reconnects and the
// rest find the connection already healthy.
func (c *Connection) Reconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil && !c.conn.IsClosed() {
		return nil
	}
	c.close()
	return c.connect()
}

// Close closes the channel and connection.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.close()
}

func (c *Connection) close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
