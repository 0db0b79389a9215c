package middleware_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/soloweb"
	"github.com/dmitrymomot/soloweb/core/request"
	"github.com/dmitrymomot/soloweb/core/response"
	"github.com/dmitrymomot/soloweb/core/router"
)

var errBoom = errors.New("boom")

// newApp builds an application with the given middleware and a few routes:
// GET/POST/OPTIONS /test answers "ok" and GET /fail returns a plain error.
func newApp(t *testing.T, mw ...soloweb.Middleware) *soloweb.App {
	t.Helper()

	app := soloweb.New()
	app.AddMiddleware(mw...)
	app.Route("/test", func(*request.Request, router.Params) (*response.Response, error) {
		return response.Text("ok"), nil
	}, http.MethodGet, http.MethodPost, http.MethodOptions)
	app.Get("/fail", func(*request.Request, router.Params) (*response.Response, error) {
		return nil, errBoom
	})
	return app
}

func newRequest(t *testing.T, method, target string, headers map[string]string, body []byte) *request.Request {
	t.Helper()

	h := make(http.Header)
	for k, v := range headers {
		h.Set(k, v)
	}
	req, err := request.New(method, target, h, body)
	require.NoError(t, err)
	req.RemoteAddr = "192.0.2.1:40000"
	return req
}

func serve(t *testing.T, app *soloweb.App, method, target string, headers map[string]string) *response.Response {
	t.Helper()
	resp := app.ServeRequest(newRequest(t, method, target, headers, nil))
	require.NotNil(t, resp)
	return resp
}
