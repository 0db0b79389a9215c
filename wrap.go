package soloweb

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/dmitrymomot/soloweb/core/cookie"
	"github.com/dmitrymomot/soloweb/core/request"
	"github.com/dmitrymomot/soloweb/core/response"
	"github.com/dmitrymomot/soloweb/core/router"
)

// WrapHTTP adapts a net/http handler, such as promhttp.Handler, to a route
// handler. The handler output is buffered and returned as one response, so
// streaming handlers are not supported.
func WrapHTTP(h http.Handler) HandlerFunc {
	return func(req *request.Request, _ router.Params) (*response.Response, error) {
		hr, err := http.NewRequestWithContext(req.Context(), req.Method, req.Target, bytes.NewReader(req.Body))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", request.ErrMalformedRequest, err)
		}
		hr.Header = req.Header.Clone()
		hr.Host = req.Host()
		hr.RemoteAddr = req.RemoteAddr
		hr.Proto, hr.ProtoMajor, hr.ProtoMinor = req.Proto, req.ProtoMajor, req.ProtoMinor
		hr.ContentLength = int64(len(req.Body))

		rec := &bufferedWriter{header: make(http.Header)}
		h.ServeHTTP(rec, hr)

		resp := response.New(rec.body.Bytes(), rec.statusCode())
		for _, line := range rec.header.Values("Set-Cookie") {
			c, err := http.ParseSetCookie(line)
			if err != nil {
				continue
			}
			resp.Cookies = append(resp.Cookies, directiveFrom(c))
		}
		rec.header.Del("Set-Cookie")
		resp.Header = rec.header
		return resp, nil
	}
}

// bufferedWriter collects what an http.Handler writes.
type bufferedWriter struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func (w *bufferedWriter) Header() http.Header { return w.header }

func (w *bufferedWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
}

func (w *bufferedWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.body.Write(p)
}

func (w *bufferedWriter) statusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func directiveFrom(c *http.Cookie) cookie.Directive {
	return cookie.Directive{
		Name:  c.Name,
		Value: c.Value,
		Options: cookie.Options{
			Path:     c.Path,
			Domain:   c.Domain,
			Expires:  c.Expires,
			MaxAge:   c.MaxAge,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
			SameSite: c.SameSite,
		},
	}
}
