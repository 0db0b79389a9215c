package middleware_test

import (
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/soloweb/core/request"
	"github.com/dmitrymomot/soloweb/middleware"
)

func TestMetricsCountsRequests(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	metrics := middleware.NewMetrics(middleware.WithRegistry(reg))
	app := newApp(t, metrics)

	serve(t, app, http.MethodGet, "/test", nil)
	serve(t, app, http.MethodGet, "/test", nil)
	serve(t, app, http.MethodGet, "/missing", nil)

	n, err := testutil.GatherAndCount(reg, "soloweb_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "one series per method/status pair")

	families, err := reg.Gather()
	require.NoError(t, err)

	counts := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "soloweb_http_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "status" {
					counts[l.GetValue()] = m.GetCounter().GetValue()
				}
			}
		}
	}
	assert.Equal(t, map[string]float64{"200": 2, "404": 1}, counts)
}

func TestMetricsPathLabel(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	metrics := middleware.NewMetrics(
		middleware.WithRegistry(reg),
		middleware.WithNamespace("app"),
		middleware.WithPathLabel(func(req *request.Request) string { return req.Path }),
	)
	app := newApp(t, metrics)

	serve(t, app, http.MethodGet, "/test", nil)

	n, err := testutil.GatherAndCount(reg, "app_http_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMetricsHandler(t *testing.T) {
	t.Parallel()

	metrics := middleware.NewMetrics(middleware.WithMetricsSkip(func(req *request.Request) bool {
		return req.Path == "/metrics"
	}))
	app := newApp(t, metrics)
	app.Get("/metrics", metrics.Handler())

	serve(t, app, http.MethodGet, "/test", nil)
	resp := serve(t, app, http.MethodGet, "/metrics", nil)

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
	body := string(resp.Body)
	assert.Contains(t, body, `soloweb_http_requests_total{method="GET",status="200"} 1`)
	assert.Contains(t, body, "go_goroutines")
	assert.NotContains(t, body, `status="404"`)
}
