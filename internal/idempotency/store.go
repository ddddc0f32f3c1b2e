// Package idempotency remembers which external notifications were already
// acted upon.
package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Checker reports whether a key has been seen before, marking it as seen.
type Checker interface {
	Seen(ctx context.Context, key string) (bool, error)
}

// Store is a Redis-backed Checker. Keys expire after ttl.
type Store struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewStore(rdb redis.UniversalClient, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// PaymentKey is the key of an approved payment notification.
func PaymentKey(paymentID string) string {
	return fmt.Sprintf("webhook:payment:%s:approved", paymentID)
}

func (s *Store) Seen(ctx context.Context, key string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, key, "1", s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record idempotency key: %w", err)
	}

	return !ok, nil
}

// Nop never reports a key as seen.
type Nop struct{}

func (Nop) Seen(context.Context, string) (bool, error) { return false, nil }
