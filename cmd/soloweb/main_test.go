package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/soloweb"
	"github.com/dmitrymomot/soloweb/core/logger"
	"github.com/dmitrymomot/soloweb/core/request"
	"github.com/dmitrymomot/soloweb/core/response"
	"github.com/dmitrymomot/soloweb/core/session"
	"github.com/dmitrymomot/soloweb/pkg/ratelimiter"
)

func testConfig() demoConfig {
	cfg := demoConfig{
		App:       soloweb.Config{Name: "demo-test"},
		Session:   session.DefaultConfig(),
		RateLimit: ratelimiter.DefaultConfig(),
	}
	cfg.RateLimit.Burst = 1000
	// No worker runs in these tests, so the limiter must not expect one.
	cfg.RateLimit.CleanupInterval = 0
	return cfg
}

func newTestApp(t *testing.T) *soloweb.App {
	t.Helper()

	app, cleanup, err := newDemoApp(context.Background(), testConfig(), logger.Discard())
	require.NoError(t, err)
	t.Cleanup(cleanup)
	return app
}

func do(t *testing.T, app *soloweb.App, method, target string, header http.Header, body []byte) *response.Response {
	t.Helper()

	if header == nil {
		header = make(http.Header)
	}
	header.Set("Host", "example.com")
	req, err := request.New(method, target, header, body)
	require.NoError(t, err)
	req.RemoteAddr = "192.0.2.10:50000"

	resp := app.ServeRequest(req)
	require.NotNil(t, resp)
	return resp
}

func TestOverrideAddr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		addr string
		host string
		port int
		want string
	}{
		{name: "no flags", addr: "127.0.0.1:5000", want: "127.0.0.1:5000"},
		{name: "port only", addr: "127.0.0.1:5000", port: 8080, want: "127.0.0.1:8080"},
		{name: "host only", addr: "127.0.0.1:5000", host: "0.0.0.0", want: "0.0.0.0:5000"},
		{name: "both", addr: "127.0.0.1:5000", host: "::1", port: 9000, want: "[::1]:9000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := overrideAddr(tt.addr, tt.host, tt.port)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := overrideAddr("no-port", "", 1)
	assert.Error(t, err)
}

func TestDemoAppRoutes(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	resp := do(t, app, http.MethodGet, "/", nil, nil)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Contains(t, string(resp.Body), "Welcome, guest.")
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.NotEmpty(t, resp.Header.Get("X-Content-Type-Options"))

	resp = do(t, app, http.MethodGet, "/health/ready", nil, nil)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "READY", string(resp.Body))

	resp = do(t, app, http.MethodGet, "/users/2", nil, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	var u user
	require.NoError(t, json.Unmarshal(resp.Body, &u))
	assert.Equal(t, "bob", u.Username)

	resp = do(t, app, http.MethodGet, "/users/99", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.Status)

	resp = do(t, app, http.MethodGet, "/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Contains(t, string(resp.Body), "<h1>Not Found</h1>")

	path, err := app.URLFor("users.show", map[string]any{"id": 3})
	require.NoError(t, err)
	assert.Equal(t, "/users/3", path)
}

func TestDemoAppCreateUser(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	jsonHeader := func() http.Header { return http.Header{"Content-Type": {"application/json"}} }

	resp := do(t, app, http.MethodPost, "/users", jsonHeader(), []byte(`{"username":"dave","email":"dave@example.com"}`))
	require.Equal(t, http.StatusCreated, resp.Status)
	var created user
	require.NoError(t, json.Unmarshal(resp.Body, &created))
	assert.Equal(t, 4, created.ID)
	assert.Equal(t, "user", created.Role)
	assert.NotContains(t, string(resp.Body), "password")

	resp = do(t, app, http.MethodPost, "/users", jsonHeader(), []byte(`{"username":"dave","email":"d@example.com"}`))
	assert.Equal(t, http.StatusConflict, resp.Status)

	resp = do(t, app, http.MethodPost, "/users", jsonHeader(), []byte(`{"username":"eve"}`))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Status)

	resp = do(t, app, http.MethodPost, "/users", jsonHeader(), []byte(`not json`))
	assert.Equal(t, http.StatusBadRequest, resp.Status)
}

func TestDemoAppLoginFlow(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	formHeader := func() http.Header {
		return http.Header{"Content-Type": {"application/x-www-form-urlencoded"}}
	}

	resp := do(t, app, http.MethodGet, "/auth/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Status)

	form := url.Values{"username": {"alice"}, "password": {"wrong"}}
	resp = do(t, app, http.MethodPost, "/auth/login", formHeader(), []byte(form.Encode()))
	assert.Equal(t, http.StatusUnauthorized, resp.Status)

	form.Set("password", demoPassword)
	resp = do(t, app, http.MethodPost, "/auth/login", formHeader(), []byte(form.Encode()))
	require.Equal(t, http.StatusFound, resp.Status)
	c, ok := resp.Cookie(session.DefaultCookieName)
	require.True(t, ok)
	require.NotEmpty(t, c.Value)

	cookieHeader := http.Header{"Cookie": {session.DefaultCookieName + "=" + c.Value}}
	resp = do(t, app, http.MethodGet, "/auth/me", cookieHeader, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Contains(t, string(resp.Body), `"username":"alice"`)

	resp = do(t, app, http.MethodGet, "/", cookieHeader.Clone(), nil)
	assert.Contains(t, string(resp.Body), "Welcome back, alice.")

	resp = do(t, app, http.MethodGet, "/auth/logout", cookieHeader.Clone(), nil)
	assert.Equal(t, http.StatusFound, resp.Status)

	resp = do(t, app, http.MethodGet, "/auth/me", cookieHeader.Clone(), nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Status)
}

func TestDemoAppLoginCreatedUser(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	login := func(name, password string) *response.Response {
		form := url.Values{"username": {name}, "password": {password}}
		header := http.Header{"Content-Type": {"application/x-www-form-urlencoded"}}
		return do(t, app, http.MethodPost, "/auth/login", header, []byte(form.Encode()))
	}

	resp := do(t, app, http.MethodPost, "/users", http.Header{"Content-Type": {"application/json"}},
		[]byte(`{"username":"frank","email":"frank@example.com","password":"s3cret"}`))
	require.Equal(t, http.StatusCreated, resp.Status)
	assert.NotContains(t, string(resp.Body), "s3cret")

	assert.Equal(t, http.StatusFound, login("frank", "s3cret").Status)
	assert.Equal(t, http.StatusUnauthorized, login("frank", demoPassword).Status)

	// created without a password, so never able to log in
	resp = do(t, app, http.MethodPost, "/users", http.Header{"Content-Type": {"application/json"}},
		[]byte(`{"username":"gina","email":"gina@example.com"}`))
	require.Equal(t, http.StatusCreated, resp.Status)
	assert.Equal(t, http.StatusUnauthorized, login("gina", "").Status)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	do(t, app, http.MethodGet, "/", nil, nil)

	resp := do(t, app, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Contains(t, string(resp.Body), "soloweb_http_requests_total")
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version", "--short"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, version, strings.TrimSpace(out.String()))
}

func TestRoutesCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"routes"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	assert.Contains(t, out.String(), "/users/<int:id>")
	assert.Contains(t, out.String(), "users.show")
}

func TestEmbeddedAssets(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	resp := do(t, app, http.MethodGet, "/assets/style.css", nil, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/css")
	assert.Contains(t, string(resp.Body), "font-family")
}
