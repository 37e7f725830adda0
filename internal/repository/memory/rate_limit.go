package memory

import (
	"context"
	"sync"
	"time"

	"github.com/husnainn01/dealership-gateway/internal/core/port"
)

// bucket tracks one fixed window for a single key.
type bucket struct {
	count       int
	windowStart time.Time
}

// RateLimitStore is an in-process fixed-window counter. The bucket map is
// the only shared mutable state in the gateway; every check-and-increment
// happens under the store mutex so concurrent requests sharing a key can
// never be admitted past the limit together.
type RateLimitStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time

	sweepEvery time.Duration
	done       chan struct{}
	closeOnce  sync.Once
}

// RateLimitStoreOption configures optional store behaviour.
type RateLimitStoreOption func(*RateLimitStore)

// WithClock injects a custom clock (primarily for testing).
func WithClock(now func() time.Time) RateLimitStoreOption {
	return func(s *RateLimitStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSweepInterval overrides how often stale buckets are evicted.
// A non-positive interval disables the janitor.
func WithSweepInterval(interval time.Duration) RateLimitStoreOption {
	return func(s *RateLimitStore) {
		s.sweepEvery = interval
	}
}

// NewRateLimitStore constructs the store and starts its stale-bucket janitor.
func NewRateLimitStore(opts ...RateLimitStoreOption) *RateLimitStore {
	s := &RateLimitStore{
		buckets:    make(map[string]*bucket),
		now:        time.Now,
		sweepEvery: 5 * time.Minute,
		done:       make(chan struct{}),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	if s.sweepEvery > 0 {
		go s.janitor()
	}

	return s
}

// Allow performs the fixed-window check-and-increment for key.
func (s *RateLimitStore) Allow(_ context.Context, key string, limit int, window time.Duration) (port.RateDecision, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[key]
	if !ok || now.Sub(b.windowStart) >= window {
		b = &bucket{windowStart: now}
		s.buckets[key] = b
	}

	decision := port.RateDecision{
		Limit: limit,
		Reset: b.windowStart.Add(window),
	}

	if b.count >= limit {
		decision.RetryAfter = decision.Reset.Sub(now)
		if decision.RetryAfter < 0 {
			decision.RetryAfter = 0
		}
		return decision, nil
	}

	b.count++
	decision.Allowed = true
	decision.Remaining = limit - b.count

	return decision, nil
}

// Close stops the janitor goroutine.
func (s *RateLimitStore) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

func (s *RateLimitStore) janitor() {
	ticker := time.NewTicker(s.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.done:
			return
		}
	}
}

// sweep drops buckets whose window ended at least a full sweep interval
// ago. Anything younger will be reset lazily on next access anyway.
func (s *RateLimitStore) sweep() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, b := range s.buckets {
		if now.Sub(b.windowStart) >= s.sweepEvery {
			delete(s.buckets, key)
		}
	}
}

var _ port.RateLimitStore = (*RateLimitStore)(nil)
