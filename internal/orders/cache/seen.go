// Package cache provides a Redis-backed recently-seen set for request
// ids. It is a fast advisory front for the idempotency store: a hit
// short-circuits an obvious duplicate before a transaction is opened, a
// miss proves nothing. Correctness stays with the unique index in
// PostgreSQL.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultTTL = 24 * time.Hour

type Seen struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewSeen(client redis.Cmdable, prefix string) *Seen {
	return &Seen{client: client, prefix: prefix, ttl: defaultTTL}
}

func (s *Seen) key(requestID uuid.UUID) string {
	return fmt.Sprintf("%s:seen:%s", s.prefix, requestID)
}

// Seen reports whether the request id was marked recently. Errors are
// returned so the caller can decide to fall through to the store.
func (s *Seen) Seen(ctx context.Context, requestID uuid.UUID) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(requestID)).Result()
	if err != nil {
		return false, fmt.Errorf("check seen request: %w", err)
	}
	return n > 0, nil
}

// MarkSeen records the request id after a successful commit.
func (s *Seen) MarkSeen(ctx context.Context, requestID uuid.UUID) error {
	if err := s.client.Set(ctx, s.key(requestID), 1, s.ttl).Err(); err != nil {
		return fmt.Errorf("mark request seen: %w", err)
	}
	return nil
}
