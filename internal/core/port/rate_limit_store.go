package port

import (
	"context"
	"time"
)

// RateDecision is the outcome of one fixed-window check-and-increment.
type RateDecision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// Reset is when the current window ends.
	Reset time.Time
	// RetryAfter is zero when the request was admitted.
	RetryAfter time.Duration
}

// RateLimitStore performs an atomic fixed-window check-and-increment for the
// supplied key. Concurrent calls sharing a key must never admit more than
// limit requests within one window.
type RateLimitStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (RateDecision, error)
}
