// Package ordernum allocates the human-facing order identifiers.
package ordernum

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/plateful/plateful/internal/models"
)

const (
	prefix      = "ORD-"
	maxAttempts = 5
)

// Store is the collision check against persisted orders.
type Store interface {
	OrderNumberExists(ctx context.Context, number string) (bool, error)
}

// Allocator draws random candidates and retries on collision. Retries are
// bounded; after maxAttempts collisions the request fails rather than loop.
type Allocator struct {
	store Store
}

func New(store Store) *Allocator {
	return &Allocator{store: store}
}

// Next returns an order number not currently present in the store. The
// uniqueness guarantee is ultimately the store's unique index; a candidate
// that races past this check still fails at insert.
func (a *Allocator) Next(ctx context.Context) (string, error) {
	for i := 0; i < maxAttempts; i++ {
		candidate := fmt.Sprintf("%s%08d", prefix, rand.IntN(100_000_000))

		exists, err := a.store.OrderNumberExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check order number: %w", err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: gave up after %d collisions", models.ErrDuplicateNumber, maxAttempts)
}
