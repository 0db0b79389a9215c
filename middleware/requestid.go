package middleware

import (
	"github.com/google/uuid"

	"github.com/dmitrymomot/soloweb"
	"github.com/dmitrymomot/soloweb/core/request"
	"github.com/dmitrymomot/soloweb/core/response"
)

// requestIDKey is the request value key for the request ID.
type requestIDKey struct{}

// RequestIDConfig configures the request ID middleware.
type RequestIDConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(req *request.Request) bool
	// Generator creates new request IDs (default: UUID v4)
	Generator func() string
	// HeaderName specifies the header name for the request ID (default: "X-Request-ID")
	HeaderName string
	// UseExisting reuses an incoming request ID instead of generating one
	UseExisting bool
}

type requestID struct {
	cfg RequestIDConfig
}

// RequestID creates a request ID middleware with default configuration.
// Every request gets a fresh UUID, stored on the request and echoed in the
// response header.
func RequestID() soloweb.Middleware {
	return RequestIDWithConfig(RequestIDConfig{})
}

// RequestIDWithConfig creates a request ID middleware with custom configuration.
func RequestIDWithConfig(cfg RequestIDConfig) soloweb.Middleware {
	if cfg.HeaderName == "" {
		cfg.HeaderName = "X-Request-ID"
	}
	if cfg.Generator == nil {
		cfg.Generator = func() string {
			return uuid.New().String()
		}
	}
	return &requestID{cfg: cfg}
}

func (m *requestID) ProcessRequest(req *request.Request) (*response.Response, error) {
	if m.cfg.Skip != nil && m.cfg.Skip(req) {
		return nil, nil
	}

	var id string
	if m.cfg.UseExisting {
		id = req.Header.Get(m.cfg.HeaderName)
	}
	if id == "" {
		id = m.cfg.Generator()
	}

	req.SetValue(requestIDKey{}, id)
	return nil, nil
}

func (m *requestID) ProcessResponse(req *request.Request, resp *response.Response) (*response.Response, error) {
	if id, ok := GetRequestID(req); ok {
		resp.WithHeader(m.cfg.HeaderName, id)
	}
	return resp, nil
}

// GetRequestID returns the request ID assigned by the RequestID middleware.
func GetRequestID(req *request.Request) (string, bool) {
	id, ok := req.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}
