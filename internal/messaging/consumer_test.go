package messaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewConsumerTagsAreUniquePerQueue(t *testing.T) {
	conn := &Connection{}

	// One process runs several consumers on the same connection; a shared
	// tag would make the second registration close the first subscription.
	ingest := NewConsumer(conn, QueueOrderCreated, "restaurant-api")
	cancelled := NewConsumer(conn, QueueOrderCancelled, "restaurant-api")

	assert.NotEqual(t, ingest.consumerTag, cancelled.consumerTag)
	assert.Equal(t, "restaurant-api.orders.created.q", ingest.consumerTag)
	assert.Equal(t, "restaurant-api.orders.cancelled.q", cancelled.consumerTag)
}

func TestNewConsumerDefaults(t *testing.T) {
	c := NewConsumer(&Connection{}, QueueStatusChanged, "customer-api")

	assert.Equal(t, QueueStatusChanged, c.queueName)
	assert.Equal(t, 1, c.prefetch)
}

func TestNewChannelOnClosedConnection(t *testing.T) {
	conn := &Connection{}

	_, err := conn.NewChannel()
	assert.Error(t, err)
}
