package middleware

import (
	"fmt"
	"mime"

	"github.com/dmitrymomot/soloweb"
	"github.com/dmitrymomot/soloweb/core/request"
	"github.com/dmitrymomot/soloweb/core/response"
)

// DefaultBodyLimit is the body size allowed when no limit is configured.
const DefaultBodyLimit int64 = 4 << 20

// BodyLimitConfig configures the body limit middleware.
type BodyLimitConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(req *request.Request) bool
	// MaxSize is the largest accepted body in bytes (default: 4MB)
	MaxSize int64
	// ContentTypeLimit overrides MaxSize per media type, e.g. "multipart/form-data".
	ContentTypeLimit map[string]int64
}

type bodyLimit struct {
	cfg BodyLimitConfig
}

// BodyLimit creates a body limit middleware with the default 4MB limit.
func BodyLimit() soloweb.Middleware {
	return BodyLimitWithConfig(BodyLimitConfig{})
}

// BodyLimitWithSize creates a body limit middleware with a custom limit.
func BodyLimitWithSize(maxSize int64) soloweb.Middleware {
	return BodyLimitWithConfig(BodyLimitConfig{MaxSize: maxSize})
}

// BodyLimitWithConfig creates a body limit middleware.
// The server caps bodies globally while reading them; this middleware applies
// tighter limits per application or per content type and fails with 413.
func BodyLimitWithConfig(cfg BodyLimitConfig) soloweb.Middleware {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultBodyLimit
	}
	return &bodyLimit{cfg: cfg}
}

func (m *bodyLimit) ProcessRequest(req *request.Request) (*response.Response, error) {
	if m.cfg.Skip != nil && m.cfg.Skip(req) {
		return nil, nil
	}

	limit := m.limitFor(req.Header.Get("Content-Type"))
	size := max(int64(len(req.Body)), req.ContentLength)
	if size <= limit {
		return nil, nil
	}

	return nil, response.ErrRequestEntityTooLarge.
		WithMessage(fmt.Sprintf("Request body too large. Size: %s, Maximum allowed: %s",
			formatBytes(size), formatBytes(limit))).
		WithDetails(map[string]any{"limit": limit, "size": size})
}

func (m *bodyLimit) ProcessResponse(_ *request.Request, resp *response.Response) (*response.Response, error) {
	return resp, nil
}

func (m *bodyLimit) limitFor(contentType string) int64 {
	if len(m.cfg.ContentTypeLimit) == 0 || contentType == "" {
		return m.cfg.MaxSize
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return m.cfg.MaxSize
	}
	if limit, ok := m.cfg.ContentTypeLimit[mediaType]; ok && limit > 0 {
		return limit
	}
	return m.cfg.MaxSize
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
