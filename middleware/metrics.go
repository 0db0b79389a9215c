package middleware

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/soloweb"
	"github.com/dmitrymomot/soloweb/core/request"
	"github.com/dmitrymomot/soloweb/core/response"
)

// metricsStartKey is the request value key for the metrics start time.
type metricsStartKey struct{}

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "soloweb").
	Namespace string
	// Subsystem is the metrics subsystem (default: "http").
	Subsystem string
	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels
	// Buckets are the histogram buckets for request duration.
	// Default: prometheus.DefBuckets
	Buckets []float64
	// Registry receives the collectors and backs Handler. Default: a fresh
	// registry with the Go and process collectors.
	Registry *prometheus.Registry
	// PathLabel adds a "path" label. Return a route pattern, not the raw path,
	// to keep cardinality bounded.
	PathLabel func(req *request.Request) string
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(req *request.Request) bool
}

// MetricsOption configures the Prometheus metrics middleware.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry *prometheus.Registry) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// WithPathLabel labels every series with the result of fn.
func WithPathLabel(fn func(req *request.Request) string) MetricsOption {
	return func(c *MetricsConfig) {
		c.PathLabel = fn
	}
}

// WithMetricsSkip excludes matching requests, typically the /metrics scrape itself.
func WithMetricsSkip(fn func(req *request.Request) bool) MetricsOption {
	return func(c *MetricsConfig) {
		c.Skip = fn
	}
}

// Metrics is a middleware that records request counts, latency and response
// sizes. Mount Handler on a route to expose them.
type Metrics struct {
	cfg MetricsConfig

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	responseSize    *prometheus.HistogramVec
}

var _ soloweb.Middleware = (*Metrics)(nil)

// NewMetrics creates the metrics middleware and registers its collectors.
//
// Metrics collected:
//   - soloweb_http_requests_total: Counter by method and status
//   - soloweb_http_request_duration_seconds: Histogram by method and status
//   - soloweb_http_response_size_bytes: Histogram by method and status
func NewMetrics(opts ...MetricsOption) *Metrics {
	cfg := MetricsConfig{
		Namespace: "soloweb",
		Subsystem: "http",
		Buckets:   prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
		cfg.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	labels := []string{"method", "status"}
	if cfg.PathLabel != nil {
		labels = append(labels, "path")
	}

	factory := promauto.With(cfg.Registry)
	return &Metrics{
		cfg: cfg,
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "requests_total",
			Help:        "Total number of HTTP requests processed",
			ConstLabels: cfg.ConstLabels,
		}, labels),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "request_duration_seconds",
			Help:        "HTTP request processing duration in seconds",
			ConstLabels: cfg.ConstLabels,
			Buckets:     cfg.Buckets,
		}, labels),
		responseSize: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "response_size_bytes",
			Help:        "HTTP response body size in bytes",
			ConstLabels: cfg.ConstLabels,
			Buckets:     prometheus.ExponentialBuckets(128, 4, 8), // 128B to 2MB
		}, labels),
	}
}

// ProcessRequest implements soloweb.Middleware.
func (m *Metrics) ProcessRequest(req *request.Request) (*response.Response, error) {
	if m.cfg.Skip != nil && m.cfg.Skip(req) {
		return nil, nil
	}
	req.SetValue(metricsStartKey{}, time.Now())
	return nil, nil
}

// ProcessResponse implements soloweb.Middleware.
func (m *Metrics) ProcessResponse(req *request.Request, resp *response.Response) (*response.Response, error) {
	start, ok := req.Value(metricsStartKey{}).(time.Time)
	if !ok {
		return resp, nil
	}

	values := []string{req.Method, strconv.Itoa(resp.Status)}
	if m.cfg.PathLabel != nil {
		values = append(values, m.cfg.PathLabel(req))
	}

	m.requestsTotal.WithLabelValues(values...).Inc()
	m.requestDuration.WithLabelValues(values...).Observe(time.Since(start).Seconds())
	m.responseSize.WithLabelValues(values...).Observe(float64(len(resp.Body)))
	return resp, nil
}

// Registry returns the registry the collectors are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.cfg.Registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() soloweb.HandlerFunc {
	return soloweb.WrapHTTP(promhttp.HandlerFor(m.cfg.Registry, promhttp.HandlerOpts{}))
}
