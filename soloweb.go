package soloweb

import (
	"github.com/dmitrymomot/soloweb/core/request"
	"github.com/dmitrymomot/soloweb/core/response"
	"github.com/dmitrymomot/soloweb/core/router"
)

// HandlerFunc handles a routed request. Params holds the path parameters,
// already converted to the types declared in the route pattern.
type HandlerFunc func(req *request.Request, params router.Params) (*response.Response, error)

// BeforeFunc runs before middleware and routing. A non-nil error aborts the
// request and renders the error response.
type BeforeFunc func(req *request.Request) error

// AfterFunc runs after the middleware response phase and may replace the response.
// A non-nil error discards the response and renders the error response instead.
type AfterFunc func(req *request.Request, resp *response.Response) (*response.Response, error)

// ErrorHandlerFunc renders the response for a failed request. Returning nil
// falls back to the default error response.
type ErrorHandlerFunc func(req *request.Request, err error) *response.Response

// Middleware intercepts requests in two phases.
//
// ProcessRequest runs in registration order before the route handler.
// Returning a non-nil response short-circuits the pipeline: later middleware
// and the handler are skipped.
//
// ProcessResponse runs in reverse registration order for every middleware
// whose ProcessRequest was entered, including the one that short-circuited.
type Middleware interface {
	ProcessRequest(req *request.Request) (*response.Response, error)
	ProcessResponse(req *request.Request, resp *response.Response) (*response.Response, error)
}

// MiddlewareFuncs builds a Middleware from plain functions. Nil phases pass through.
type MiddlewareFuncs struct {
	Request  func(req *request.Request) (*response.Response, error)
	Response func(req *request.Request, resp *response.Response) (*response.Response, error)
}

// ProcessRequest implements Middleware.
func (m MiddlewareFuncs) ProcessRequest(req *request.Request) (*response.Response, error) {
	if m.Request == nil {
		return nil, nil
	}
	return m.Request(req)
}

// ProcessResponse implements Middleware.
func (m MiddlewareFuncs) ProcessResponse(req *request.Request, resp *response.Response) (*response.Response, error) {
	if m.Response == nil {
		return resp, nil
	}
	return m.Response(req, resp)
}
