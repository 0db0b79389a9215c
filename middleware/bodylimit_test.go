package middleware_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/soloweb/core/request"
	"github.com/dmitrymomot/soloweb/core/response"
	"github.com/dmitrymomot/soloweb/middleware"
)

func TestBodyLimit(t *testing.T) {
	t.Parallel()

	app := newApp(t, middleware.BodyLimitWithSize(16))

	req := newRequest(t, http.MethodPost, "/test", map[string]string{"Content-Type": "text/plain"}, []byte("short"))
	resp := app.ServeRequest(req)
	assert.Equal(t, http.StatusOK, resp.Status)

	req = newRequest(t, http.MethodPost, "/test", map[string]string{"Content-Type": "text/plain"}, []byte(strings.Repeat("x", 17)))
	resp = app.ServeRequest(req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.Status)
}

func TestBodyLimitDefault(t *testing.T) {
	t.Parallel()

	app := newApp(t, middleware.BodyLimit())

	req := newRequest(t, http.MethodPost, "/test", nil, make([]byte, 1<<20))
	assert.Equal(t, http.StatusOK, app.ServeRequest(req).Status)

	req = newRequest(t, http.MethodPost, "/test", nil, make([]byte, middleware.DefaultBodyLimit+1))
	assert.Equal(t, http.StatusRequestEntityTooLarge, app.ServeRequest(req).Status)
}

func TestBodyLimitContentTypeSpecific(t *testing.T) {
	t.Parallel()

	app := newApp(t, middleware.BodyLimitWithConfig(middleware.BodyLimitConfig{
		MaxSize: 8,
		ContentTypeLimit: map[string]int64{
			"application/json": 64,
		},
	}))

	body := []byte(`{"name":"a fairly long value"}`)

	req := newRequest(t, http.MethodPost, "/test", map[string]string{"Content-Type": "application/json; charset=utf-8"}, body)
	assert.Equal(t, http.StatusOK, app.ServeRequest(req).Status)

	req = newRequest(t, http.MethodPost, "/test", map[string]string{"Content-Type": "text/plain"}, body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, app.ServeRequest(req).Status)
}

func TestBodyLimitErrorReachesErrorHandler(t *testing.T) {
	t.Parallel()

	app := newApp(t, middleware.BodyLimitWithSize(4))
	app.ErrorHandler(http.StatusRequestEntityTooLarge, func(_ *request.Request, err error) *response.Response {
		return response.Text(err.Error(), http.StatusRequestEntityTooLarge)
	})

	req := newRequest(t, http.MethodPost, "/test", nil, []byte(strings.Repeat("x", 2048)))
	resp := app.ServeRequest(req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.Status)
	assert.Equal(t, "Request body too large. Size: 2.0 KB, Maximum allowed: 4 B", string(resp.Body))
}

func TestBodyLimitSkip(t *testing.T) {
	t.Parallel()

	app := newApp(t, middleware.BodyLimitWithConfig(middleware.BodyLimitConfig{
		MaxSize: 1,
		Skip:    func(req *request.Request) bool { return req.Method == http.MethodPost },
	}))

	req := newRequest(t, http.MethodPost, "/test", nil, []byte("large enough"))
	assert.Equal(t, http.StatusOK, app.ServeRequest(req).Status)
}
