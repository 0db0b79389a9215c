package middleware

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/dmitrymomot/soloweb"
	"github.com/dmitrymomot/soloweb/core/request"
	"github.com/dmitrymomot/soloweb/core/response"
	"github.com/dmitrymomot/soloweb/pkg/clientip"
	"github.com/dmitrymomot/soloweb/pkg/ratelimiter"
)

// rateLimitKey is the request value key for the limiter result.
type rateLimitKey struct{}

// RateLimiter decides whether a key may proceed. ratelimiter.MemoryStore
// implements it.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (*ratelimiter.Result, error)
}

// RateLimitConfig configures the rate limiting middleware.
type RateLimitConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(req *request.Request) bool
	// Limiter is the rate limiting implementation to use
	Limiter RateLimiter
	// KeyExtractor defines how to extract the rate limiting key from requests (default: client IP)
	KeyExtractor func(req *request.Request) string
	// SetHeaders determines whether to include rate limit information in response headers
	SetHeaders bool
}

type rateLimit struct {
	cfg RateLimitConfig
}

// RateLimit creates a rate limiting middleware.
// Requests over the limit fail with 429 Too Many Requests. With SetHeaders the
// X-RateLimit-* headers are set on every response, and Retry-After on denied
// ones. Panics if no limiter is provided.
func RateLimit(cfg RateLimitConfig) soloweb.Middleware {
	if cfg.Limiter == nil {
		panic("ratelimit middleware: limiter is required")
	}

	if cfg.KeyExtractor == nil {
		cfg.KeyExtractor = func(req *request.Request) string {
			if ip, ok := GetClientIP(req); ok {
				return ip
			}
			return clientip.GetIP(req)
		}
	}

	return &rateLimit{cfg: cfg}
}

func (m *rateLimit) ProcessRequest(req *request.Request) (*response.Response, error) {
	if m.cfg.Skip != nil && m.cfg.Skip(req) {
		return nil, nil
	}

	result, err := m.cfg.Limiter.Allow(req.Context(), m.cfg.KeyExtractor(req))
	if err != nil {
		return nil, errors.Join(response.ErrServiceUnavailable, err)
	}
	req.SetValue(rateLimitKey{}, result)

	if !result.Allowed() {
		return nil, response.ErrTooManyRequests.WithDetails(map[string]any{
			"retry_after": retryAfterSeconds(result.RetryAfter()),
		})
	}
	return nil, nil
}

func (m *rateLimit) ProcessResponse(req *request.Request, resp *response.Response) (*response.Response, error) {
	if !m.cfg.SetHeaders {
		return resp, nil
	}
	result, ok := req.Value(rateLimitKey{}).(*ratelimiter.Result)
	if !ok {
		return resp, nil
	}

	resp.WithHeader("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	resp.Header.Set("X-RateLimit-Remaining", strconv.Itoa(max(0, result.Remaining)))
	resp.Header.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
	if !result.Allowed() {
		resp.Header.Set("Retry-After", strconv.Itoa(retryAfterSeconds(result.RetryAfter())))
	}
	return resp, nil
}

// retryAfterSeconds rounds up so clients never retry too early.
func retryAfterSeconds(d time.Duration) int {
	return max(1, int(math.Ceil(d.Seconds())))
}
