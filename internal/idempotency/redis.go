// Package idempotency backs the Idempotency-Key header on order creation so
// client retries of the same request return the original order.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Header is the request header clients send to dedupe retries.
const Header = "Idempotency-Key"

// Store remembers the outcome of a keyed request for a TTL.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// TryLock claims a key. It returns false when another request already holds
// or completed it.
func (s *Store) TryLock(ctx context.Context, scope, key string) (bool, error) {
	return s.rdb.SetNX(ctx, "idemp:"+scope+":"+key, "1", s.ttl).Result()
}

// Release frees a claimed key after the request it guarded failed, so the
// client's retry with the same key is not rejected as in flight.
func (s *Store) Release(ctx context.Context, scope, key string) error {
	return s.rdb.Del(ctx, "idemp:"+scope+":"+key).Err()
}

// Remember records the order number produced for a key.
func (s *Store) Remember(ctx context.Context, scope, key, orderNumber string) error {
	return s.rdb.Set(ctx, "idemp:map:"+scope+":"+key, orderNumber, s.ttl).Err()
}

// Lookup returns the remembered order number for a key, or "" when none.
func (s *Store) Lookup(ctx context.Context, scope, key string) (string, error) {
	v, err := s.rdb.Get(ctx, "idemp:map:"+scope+":"+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}
