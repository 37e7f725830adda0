package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestAllowAdmitsExactlyLimitUnderConcurrency(t *testing.T) {
	store := NewRateLimitStore(WithSweepInterval(0))

	const (
		limit = 5
		burst = 40
	)

	var admitted, rejected int64
	var wg sync.WaitGroup

	start := make(chan struct{})
	for i := 0; i < burst; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start

			decision, err := store.Allow(context.Background(), "login:192.0.2.1", limit, time.Minute)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if decision.Allowed {
				atomic.AddInt64(&admitted, 1)
			} else {
				atomic.AddInt64(&rejected, 1)
			}
		}()
	}

	close(start)
	wg.Wait()

	if admitted != limit {
		t.Fatalf("expected exactly %d admitted, got %d", limit, admitted)
	}
	if rejected != burst-limit {
		t.Fatalf("expected %d rejected, got %d", burst-limit, rejected)
	}
}

func TestAllowResetsAfterWindowElapses(t *testing.T) {
	now := time.Date(2025, 10, 12, 10, 0, 0, 0, time.UTC)
	store := NewRateLimitStore(
		WithClock(func() time.Time { return now }),
		WithSweepInterval(0),
	)

	const limit = 3

	for i := 0; i < limit; i++ {
		decision, err := store.Allow(context.Background(), "login:ip", limit, time.Minute)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !decision.Allowed {
			t.Fatalf("attempt %d should be admitted", i+1)
		}
	}

	decision, err := store.Allow(context.Background(), "login:ip", limit, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Allowed {
		t.Fatalf("exhausted window should reject")
	}
	if decision.RetryAfter <= 0 || decision.RetryAfter > time.Minute {
		t.Fatalf("unexpected retry-after %v", decision.RetryAfter)
	}

	// Advance past the window; a fresh attempt is evaluated normally.
	now = now.Add(time.Minute + time.Second)

	decision, err = store.Allow(context.Background(), "login:ip", limit, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Allowed {
		t.Fatalf("attempt after window reset should be admitted")
	}
	if decision.Remaining != limit-1 {
		t.Fatalf("expected remaining %d, got %d", limit-1, decision.Remaining)
	}
}

func TestAllowKeysAreIndependent(t *testing.T) {
	store := NewRateLimitStore(WithSweepInterval(0))

	for i := 0; i < 3; i++ {
		if decision, _ := store.Allow(context.Background(), "login:a", 3, time.Minute); !decision.Allowed {
			t.Fatalf("key a attempt %d should be admitted", i+1)
		}
	}

	if decision, _ := store.Allow(context.Background(), "login:a", 3, time.Minute); decision.Allowed {
		t.Fatalf("key a should be exhausted")
	}

	if decision, _ := store.Allow(context.Background(), "login:b", 3, time.Minute); !decision.Allowed {
		t.Fatalf("key b should not share key a's window")
	}
}

func TestSweepDropsStaleBuckets(t *testing.T) {
	now := time.Date(2025, 10, 12, 10, 0, 0, 0, time.UTC)
	store := NewRateLimitStore(
		WithClock(func() time.Time { return now }),
		WithSweepInterval(0),
	)

	if _, err := store.Allow(context.Background(), "login:stale", 3, time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	store.sweepEvery = time.Minute
	now = now.Add(5 * time.Minute)
	store.sweep()

	store.mu.Lock()
	_, exists := store.buckets["login:stale"]
	store.mu.Unlock()

	if exists {
		t.Fatalf("stale bucket should have been evicted")
	}
}
