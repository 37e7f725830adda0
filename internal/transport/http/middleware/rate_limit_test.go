package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"

	"github.com/husnainn01/dealership-gateway/internal/core/port"
)

type fakeRateLimitStore struct {
	decision port.RateDecision
	err      error

	keys   []string
	limits []int
}

func (f *fakeRateLimitStore) Allow(_ context.Context, key string, limit int, _ time.Duration) (port.RateDecision, error) {
	f.keys = append(f.keys, key)
	f.limits = append(f.limits, limit)
	return f.decision, f.err
}

func newLimitedRouter(limiter *RateLimiter) *gin.Engine {
	router := gin.New()
	router.Use(limiter.RateLimit(RateLimitRule{
		Name:   "login",
		Limit:  5,
		Window: time.Minute,
		Identifier: func(c *gin.Context) (string, bool) {
			return "192.0.2.1", true
		},
	}))
	router.GET("/", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestRateLimiterAllowsWhenBelowLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	now := time.Date(2025, 10, 12, 10, 0, 0, 0, time.UTC)
	reset := now.Add(30 * time.Second)

	store := &fakeRateLimitStore{
		decision: port.RateDecision{
			Allowed:   true,
			Limit:     5,
			Remaining: 2,
			Reset:     reset,
		},
	}

	limiter := NewRateLimiter(store, zaptest.NewLogger(t)).WithClock(func() time.Time { return now })
	router := newLimitedRouter(limiter)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	if len(store.keys) != 1 || store.keys[0] != "login:192.0.2.1" {
		t.Fatalf("unexpected store keys %v", store.keys)
	}

	if got := rr.Header().Get("X-RateLimit-Limit"); got != "5" {
		t.Fatalf("expected limit header 5, got %q", got)
	}

	if got := rr.Header().Get("X-RateLimit-Remaining"); got != "2" {
		t.Fatalf("expected remaining header 2, got %q", got)
	}

	if got := rr.Header().Get("X-RateLimit-Reset"); got != strconv.FormatInt(reset.Unix(), 10) {
		t.Fatalf("expected reset header %d, got %q", reset.Unix(), got)
	}

	if got := rr.Header().Get("Retry-After"); got != "" {
		t.Fatalf("expected no retry-after header, got %q", got)
	}
}

func TestRateLimiterBlocksWhenLimitExceeded(t *testing.T) {
	gin.SetMode(gin.TestMode)

	now := time.Date(2025, 10, 12, 10, 0, 0, 0, time.UTC)

	store := &fakeRateLimitStore{
		decision: port.RateDecision{
			Allowed:    false,
			Limit:      5,
			Remaining:  0,
			Reset:      now.Add(30 * time.Second),
			RetryAfter: 30 * time.Second,
		},
	}

	var limitedRule string
	limiter := NewRateLimiter(store, zaptest.NewLogger(t)).
		WithClock(func() time.Time { return now }).
		WithLimitedCallback(func(_ *gin.Context, rule RateLimitRule, _ port.RateDecision) {
			limitedRule = rule.Name
		})
	router := newLimitedRouter(limiter)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}

	if got := rr.Header().Get("Retry-After"); got != "30" {
		t.Fatalf("expected retry-after 30, got %q", got)
	}

	if limitedRule != "login" {
		t.Fatalf("expected limited callback for login rule, got %q", limitedRule)
	}

	var problem ProblemDetails
	if err := json.Unmarshal(rr.Body.Bytes(), &problem); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}

	if problem.Status != http.StatusTooManyRequests {
		t.Fatalf("unexpected problem status %d", problem.Status)
	}

	if problem.RetryAfter != 30 {
		t.Fatalf("expected problem retry_after 30, got %d", problem.RetryAfter)
	}
}

func TestRateLimiterFailsOpenOnStoreError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := &fakeRateLimitStore{err: errors.New("redis down")}

	limiter := NewRateLimiter(store, zaptest.NewLogger(t))
	router := newLimitedRouter(limiter)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 when failing open, got %d", rr.Code)
	}
}

func TestRateLimiterSkipsRulesWithoutIdentifier(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := &fakeRateLimitStore{
		decision: port.RateDecision{Allowed: false, Limit: 1},
	}

	limiter := NewRateLimiter(store, zaptest.NewLogger(t))

	router := gin.New()
	router.Use(limiter.RateLimit(RateLimitRule{
		Name:   "login",
		Limit:  1,
		Window: time.Minute,
		Identifier: func(c *gin.Context) (string, bool) {
			return "", false
		},
	}))
	router.GET("/", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected pass-through without identifier, got %d", rr.Code)
	}

	if len(store.keys) != 0 {
		t.Fatalf("store should not be consulted, got keys %v", store.keys)
	}
}
