package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/husnainn01/dealership-gateway/internal/core/port"
)

// RateLimitStore implements the fixed-window counter on Redis for
// multi-instance deployments. INCR makes the check-and-increment atomic
// across processes; the key expires with the window.
type RateLimitStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRateLimitStore constructs a store using the provided Redis client.
func NewRateLimitStore(client *redis.Client, keyPrefix string) *RateLimitStore {
	return &RateLimitStore{client: client, keyPrefix: keyPrefix}
}

// Allow performs the fixed-window check-and-increment for key.
func (s *RateLimitStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (port.RateDecision, error) {
	storageKey := s.key(key)

	count, err := s.client.Incr(ctx, storageKey).Result()
	if err != nil {
		return port.RateDecision{}, fmt.Errorf("redis incr: %w", err)
	}

	if count == 1 {
		// First hit of a fresh window; the key's TTL defines the window end.
		if err := s.client.PExpire(ctx, storageKey, window).Err(); err != nil {
			return port.RateDecision{}, fmt.Errorf("redis pexpire: %w", err)
		}
	}

	ttl, err := s.client.PTTL(ctx, storageKey).Result()
	if err != nil {
		return port.RateDecision{}, fmt.Errorf("redis pttl: %w", err)
	}
	if ttl < 0 {
		ttl = window
	}

	decision := port.RateDecision{
		Limit: limit,
		Reset: time.Now().Add(ttl),
	}

	if count > int64(limit) {
		decision.RetryAfter = ttl
		return decision, nil
	}

	decision.Allowed = true
	decision.Remaining = limit - int(count)

	return decision, nil
}

func (s *RateLimitStore) key(key string) string {
	if s.keyPrefix == "" {
		return key
	}
	return fmt.Sprintf("%s:%s", s.keyPrefix, key)
}

var _ port.RateLimitStore = (*RateLimitStore)(nil)
