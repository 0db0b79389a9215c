package middleware

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/dmitrymomot/soloweb"
	"github.com/dmitrymomot/soloweb/core/logger"
	"github.com/dmitrymomot/soloweb/core/request"
	"github.com/dmitrymomot/soloweb/core/response"
	"github.com/dmitrymomot/soloweb/pkg/clientip"
)

// loggingStartKey is the request value key for the request start time.
type loggingStartKey struct{}

// LoggingConfig configures the access log middleware.
type LoggingConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(req *request.Request) bool
	// Logger receives the access log (default: slog.Default())
	Logger *slog.Logger
	// LogLevel is used for successful requests (default: Info)
	LogLevel slog.Level
	// LogHeaders adds request headers, with SensitiveHeaders redacted
	LogHeaders bool
	// SensitiveHeaders are logged as "[REDACTED]"
	SensitiveHeaders []string
	// SlowRequestThreshold raises fast successful requests to Warn once exceeded (default: 5s)
	SlowRequestThreshold time.Duration
	// Component is attached to every record (default: "http")
	Component string
}

type logging struct {
	cfg LoggingConfig
}

// Logging creates an access log middleware writing to slog.Default().
func Logging() soloweb.Middleware {
	return LoggingWithConfig(LoggingConfig{})
}

// LoggingWithLogger creates an access log middleware writing to log.
func LoggingWithLogger(log *slog.Logger) soloweb.Middleware {
	return LoggingWithConfig(LoggingConfig{Logger: log})
}

// LoggingWithConfig creates an access log middleware.
// One record is written per request after the response phase reaches it.
// 5xx responses are logged at Error and 4xx at Warn.
func LoggingWithConfig(cfg LoggingConfig) soloweb.Middleware {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.SensitiveHeaders == nil {
		cfg.SensitiveHeaders = []string{
			"Authorization",
			"Cookie",
			"Set-Cookie",
			"X-Api-Key",
			"X-Auth-Token",
			"X-Csrf-Token",
		}
	}
	if cfg.SlowRequestThreshold <= 0 {
		cfg.SlowRequestThreshold = 5 * time.Second
	}
	if cfg.Component == "" {
		cfg.Component = "http"
	}
	return &logging{cfg: cfg}
}

func (m *logging) ProcessRequest(req *request.Request) (*response.Response, error) {
	if m.cfg.Skip != nil && m.cfg.Skip(req) {
		return nil, nil
	}
	req.SetValue(loggingStartKey{}, time.Now())
	return nil, nil
}

func (m *logging) ProcessResponse(req *request.Request, resp *response.Response) (*response.Response, error) {
	start, ok := req.Value(loggingStartKey{}).(time.Time)
	if !ok {
		return resp, nil
	}
	latency := time.Since(start)

	ip, ok := GetClientIP(req)
	if !ok {
		ip = clientip.GetIP(req)
	}
	requestID, _ := GetRequestID(req)

	attrs := []slog.Attr{
		logger.Component(m.cfg.Component),
		logger.Method(req.Method),
		logger.Path(req.Path),
		logger.StatusCode(resp.Status),
		logger.Latency(latency),
		logger.ClientIP(ip),
		logger.UserAgent(req.Header.Get("User-Agent")),
		logger.BytesIn(int64(len(req.Body))),
		logger.BytesOut(int64(len(resp.Body))),
		logger.RequestID(requestID),
	}
	if req.RawQuery != "" {
		attrs = append(attrs, slog.String("query", req.RawQuery))
	}
	if m.cfg.LogHeaders {
		attrs = append(attrs, slog.Any("request_headers", m.redact(req.Header)))
	}

	level := m.cfg.LogLevel
	switch {
	case resp.Status >= 500:
		level = slog.LevelError
	case resp.Status >= 400:
		level = slog.LevelWarn
	case latency > m.cfg.SlowRequestThreshold:
		level = slog.LevelWarn
		attrs = append(attrs, slog.Bool("slow_request", true))
	}

	m.cfg.Logger.LogAttrs(req.Context(), level, "HTTP request completed", attrs...)
	return resp, nil
}

func (m *logging) redact(h http.Header) map[string]any {
	headers := make(map[string]any, len(h))
	for key, values := range h {
		switch {
		case slices.Contains(m.cfg.SensitiveHeaders, key):
			headers[key] = "[REDACTED]"
		case len(values) == 1:
			headers[key] = values[0]
		default:
			headers[key] = values
		}
	}
	return headers
}
