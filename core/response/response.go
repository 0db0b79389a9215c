package response

import (
	"net/http"

	"github.com/dmitrymomot/soloweb/core/cookie"
)

// Response is an outgoing HTTP response. It stays mutable until the server
// serializes it, which happens exactly once.
type Response struct {
	Status  int
	Header  http.Header
	Body    []byte
	Cookies []cookie.Directive
}

// New creates a response with the given body and status.
// A zero status means 200 OK.
func New(body []byte, status int) *Response {
	if status == 0 {
		status = http.StatusOK
	}
	return &Response{
		Status: status,
		Header: make(http.Header),
		Body:   body,
	}
}

// WithStatus sets the status code and returns the response for chaining.
func (r *Response) WithStatus(status int) *Response {
	r.Status = status
	return r
}

// WithHeader sets a header and returns the response for chaining.
func (r *Response) WithHeader(key, value string) *Response {
	r.headers().Set(key, value)
	return r
}

// ContentType returns the Content-Type header.
func (r *Response) ContentType() string {
	return r.headers().Get("Content-Type")
}

// SetCookie appends a Set-Cookie directive. Directives are emitted in the
// order they were added.
func (r *Response) SetCookie(name, value string, opts ...cookie.Option) error {
	d, err := cookie.New(name, value, opts...)
	if err != nil {
		return err
	}
	r.Cookies = append(r.Cookies, d)
	return nil
}

// DeleteCookie appends a directive that expires the named cookie on the client.
// Path and domain must match the ones the cookie was set with.
func (r *Response) DeleteCookie(name string, opts ...cookie.Option) error {
	d, err := cookie.Expired(name, opts...)
	if err != nil {
		return err
	}
	r.Cookies = append(r.Cookies, d)
	return nil
}

// Cookie returns the last directive added for name.
func (r *Response) Cookie(name string) (cookie.Directive, bool) {
	for i := len(r.Cookies) - 1; i >= 0; i-- {
		if r.Cookies[i].Name == name {
			return r.Cookies[i], true
		}
	}
	return cookie.Directive{}, false
}

func (r *Response) headers() http.Header {
	if r.Header == nil {
		r.Header = make(http.Header)
	}
	return r.Header
}
