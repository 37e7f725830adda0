package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/husnainn01/dealership-gateway/internal/core/port"
)

const (
	rateLimitProblemType  = "https://gateway.dealership.example.com/errors/rate-limit-exceeded"
	rateLimitProblemTitle = "Rate Limit Exceeded"
)

// IdentifierFunc extracts the identifier used to scope rate limits (e.g., client IP).
type IdentifierFunc func(*gin.Context) (string, bool)

// RateLimitRule configures a fixed-window limit for a particular identifier.
type RateLimitRule struct {
	Name       string
	Limit      int
	Window     time.Duration
	Identifier IdentifierFunc
}

// LimitedFunc observes requests rejected by the limiter.
type LimitedFunc func(c *gin.Context, rule RateLimitRule, decision port.RateDecision)

// RateLimiter turns a RateLimitStore into reusable Gin middleware. A store
// outage fails open: throttling degrades rather than taking logins down.
type RateLimiter struct {
	store     port.RateLimitStore
	logger    *zap.Logger
	now       func() time.Time
	onLimited LimitedFunc
}

// ProblemDetails represents an RFC 9457 compatible error payload for rate limits.
type ProblemDetails struct {
	Type       string `json:"type"`
	Title      string `json:"title"`
	Status     int    `json:"status"`
	Detail     string `json:"detail"`
	Instance   string `json:"instance"`
	RetryAfter int    `json:"retry_after"`
	TraceID    string `json:"trace_id,omitempty"`
}

// NewRateLimiter builds a reusable rate limiter middleware helper.
func NewRateLimiter(store port.RateLimitStore, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RateLimiter{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock allows injection of a custom clock (primarily for testing).
func (rl *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	if now != nil {
		rl.now = now
	}
	return rl
}

// WithLimitedCallback registers an observer invoked on every rejection.
func (rl *RateLimiter) WithLimitedCallback(fn LimitedFunc) *RateLimiter {
	rl.onLimited = fn
	return rl
}

// ClientIPIdentifier builds an IdentifierFunc using the request's client IP.
func ClientIPIdentifier() IdentifierFunc {
	return func(c *gin.Context) (string, bool) {
		ip := c.ClientIP()
		if ip == "" {
			return "", false
		}
		return ip, true
	}
}

// RateLimit returns a Gin middleware enforcing the provided rules.
func (rl *RateLimiter) RateLimit(rules ...RateLimitRule) gin.HandlerFunc {
	filtered := make([]RateLimitRule, 0, len(rules))
	for _, rule := range rules {
		if rule.Identifier == nil || rule.Limit <= 0 || rule.Window <= 0 {
			continue
		}
		if rule.Name == "" {
			rule.Name = "default"
		}
		filtered = append(filtered, rule)
	}

	return func(c *gin.Context) {
		if len(filtered) == 0 || rl.store == nil {
			c.Next()
			return
		}

		var headerDecision *port.RateDecision

		for _, rule := range filtered {
			identifier, ok := rule.Identifier(c)
			if !ok || identifier == "" {
				continue
			}

			key := fmt.Sprintf("%s:%s", rule.Name, identifier)

			decision, err := rl.store.Allow(c.Request.Context(), key, rule.Limit, rule.Window)
			if err != nil {
				rl.logger.Warn("rate limit check failed",
					zap.String("rule", rule.Name),
					zap.String("identifier", identifier),
					zap.Error(err))
				continue
			}

			if headerDecision == nil || shouldReplaceHeaderDecision(*headerDecision, decision) {
				snapshot := decision
				headerDecision = &snapshot
			}

			if !decision.Allowed {
				applyRateHeaders(c, decision)
				if rl.onLimited != nil {
					rl.onLimited(c, rule, decision)
				}
				rl.respondRateLimited(c, decision)
				return
			}
		}

		if headerDecision != nil {
			applyRateHeaders(c, *headerDecision)
		}

		c.Next()
	}
}

func shouldReplaceHeaderDecision(current, candidate port.RateDecision) bool {
	if !candidate.Allowed && current.Allowed {
		return true
	}

	if candidate.Allowed == current.Allowed {
		if candidate.Remaining < current.Remaining {
			return true
		}
		if candidate.Remaining == current.Remaining && candidate.Reset.Before(current.Reset) {
			return true
		}
	}

	return false
}

func applyRateHeaders(c *gin.Context, decision port.RateDecision) {
	headers := c.Writer.Header()
	headers.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(maxInt(decision.Remaining, 0)))
	headers.Set("X-RateLimit-Reset", strconv.FormatInt(decision.Reset.Unix(), 10))

	if !decision.Allowed {
		headers.Set("Retry-After", strconv.Itoa(retrySeconds(decision)))
	}
}

func (rl *RateLimiter) respondRateLimited(c *gin.Context, decision port.RateDecision) {
	seconds := retrySeconds(decision)

	instance := c.FullPath()
	if instance == "" {
		instance = c.Request.URL.Path
	}

	problem := ProblemDetails{
		Type:       rateLimitProblemType,
		Title:      rateLimitProblemTitle,
		Status:     http.StatusTooManyRequests,
		Detail:     fmt.Sprintf("Too many requests. Try again in %d seconds.", seconds),
		Instance:   instance,
		RetryAfter: seconds,
		TraceID:    GetTraceID(c),
	}

	c.AbortWithStatusJSON(http.StatusTooManyRequests, problem)
}

func retrySeconds(decision port.RateDecision) int {
	seconds := int(math.Ceil(decision.RetryAfter.Seconds()))
	if seconds < 0 {
		seconds = 0
	}
	return seconds
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
