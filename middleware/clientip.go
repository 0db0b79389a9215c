package middleware

import (
	"github.com/dmitrymomot/soloweb"
	"github.com/dmitrymomot/soloweb/core/request"
	"github.com/dmitrymomot/soloweb/core/response"
	"github.com/dmitrymomot/soloweb/pkg/clientip"
)

// clientIPKey is the request value key for the client IP.
type clientIPKey struct{}

// ClientIPConfig configures the client IP extraction middleware.
type ClientIPConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(req *request.Request) bool
	// HeaderName specifies the response header name for the client IP (default: "X-Client-IP")
	HeaderName string
	// StoreInHeader determines whether to include the IP in response headers
	StoreInHeader bool
	// ValidateFunc rejects requests by IP. A returned error answers 403
	// unless it carries its own status.
	ValidateFunc func(req *request.Request, ip string) error
}

type clientIPMiddleware struct {
	cfg ClientIPConfig
}

// ClientIP creates a client IP extraction middleware with default configuration.
func ClientIP() soloweb.Middleware {
	return ClientIPWithConfig(ClientIPConfig{})
}

// ClientIPWithConfig creates a client IP extraction middleware with custom configuration.
// The IP is resolved from proxy headers with clientip.GetIP and stored on the request.
func ClientIPWithConfig(cfg ClientIPConfig) soloweb.Middleware {
	if cfg.HeaderName == "" {
		cfg.HeaderName = "X-Client-IP"
	}
	return &clientIPMiddleware{cfg: cfg}
}

func (m *clientIPMiddleware) ProcessRequest(req *request.Request) (*response.Response, error) {
	if m.cfg.Skip != nil && m.cfg.Skip(req) {
		return nil, nil
	}

	ip := clientip.GetIP(req)
	req.SetValue(clientIPKey{}, ip)

	if m.cfg.ValidateFunc != nil {
		if err := m.cfg.ValidateFunc(req, ip); err != nil {
			if response.StatusOf(err) != 0 {
				return nil, err
			}
			return nil, response.ErrForbidden.WithDetails(map[string]any{"reason": err.Error()})
		}
	}
	return nil, nil
}

func (m *clientIPMiddleware) ProcessResponse(req *request.Request, resp *response.Response) (*response.Response, error) {
	if !m.cfg.StoreInHeader {
		return resp, nil
	}
	if ip, ok := GetClientIP(req); ok {
		resp.WithHeader(m.cfg.HeaderName, ip)
	}
	return resp, nil
}

// GetClientIP returns the client IP stored by the ClientIP middleware.
func GetClientIP(req *request.Request) (string, bool) {
	ip, ok := req.Value(clientIPKey{}).(string)
	return ip, ok && ip != ""
}
