package soloweb

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/dmitrymomot/soloweb/core/logger"
	"github.com/dmitrymomot/soloweb/core/request"
	"github.com/dmitrymomot/soloweb/core/response"
	"github.com/dmitrymomot/soloweb/core/router"
)

// ServeRequest runs the request pipeline:
//
//	before-hooks → middleware request phase → route → handler →
//	middleware response phase (reverse) → after-hooks
//
// Any failure switches to the error path, which renders the response through
// the registered error handlers. Middleware already entered still see that
// response in their response phase; after-hooks do not run on the error path.
// A failure inside the response phase or an after-hook is rendered directly.
//
// ServeRequest always returns a response and never panics.
func (a *App) ServeRequest(req *request.Request) *response.Response {
	a.Freeze()

	for _, fn := range a.before {
		if err := a.callBefore(fn, req); err != nil {
			return a.renderError(req, err)
		}
	}

	resp, entered, err := a.processRequest(req)
	if resp == nil && err == nil {
		resp, err = a.dispatch(req)
	}

	failed := err != nil
	if failed {
		resp = a.renderError(req, err)
	}

	resp, err = a.processResponse(req, resp, entered)
	if err != nil {
		return a.renderError(req, err)
	}
	if failed {
		return resp
	}

	for _, fn := range a.after {
		resp, err = a.callAfter(fn, req, resp)
		if err != nil {
			return a.renderError(req, err)
		}
	}

	return resp
}

// ServeError renders the error response for a request the server could not
// read completely, such as one whose body exceeds the size limit. Only the
// error handlers run; hooks and middleware are skipped.
func (a *App) ServeError(req *request.Request, err error) *response.Response {
	a.Freeze()
	return a.renderError(req, err)
}

// processRequest runs the request phase and returns the number of middleware
// entered, which is how many take part in the response phase.
func (a *App) processRequest(req *request.Request) (*response.Response, int, error) {
	for i, m := range a.middleware {
		resp, err := a.callRequestPhase(m, req)
		if err != nil || resp != nil {
			return resp, i + 1, err
		}
	}
	return nil, len(a.middleware), nil
}

func (a *App) processResponse(req *request.Request, resp *response.Response, entered int) (*response.Response, error) {
	for i := entered - 1; i >= 0; i-- {
		var err error
		resp, err = a.callResponsePhase(a.middleware[i], req, resp)
		if err != nil {
			return nil, err
		}
	}
	return resp, nil
}

func (a *App) dispatch(req *request.Request) (*response.Response, error) {
	handler, params, err := a.routes.Resolve(req.Method, req.EscapedPath())
	if err != nil {
		return nil, err
	}
	if params == nil {
		params = router.Params{}
	}
	return a.callHandler(handler, req, params)
}

// renderError runs the error path. The lookup order is the handler registered
// for the derived status, then the catch-all, then the default response.
func (a *App) renderError(req *request.Request, err error) *response.Response {
	status := StatusCode(err)
	a.logError(req, err, status)

	var resp *response.Response
	if h, ok := a.errorHandlers[status]; ok {
		resp = a.callErrorHandler(h, req, err)
	} else if h, ok := a.errorHandlers[0]; ok {
		resp = a.callErrorHandler(h, req, err)
	}
	if resp == nil {
		resp = a.defaultErrorResponse(req, err, status)
	}

	var mna *router.MethodNotAllowedError
	if errors.As(err, &mna) && resp.Header.Get("Allow") == "" {
		resp.WithHeader("Allow", mna.AllowHeader())
	}

	return resp
}

// defaultErrorResponse shows the status text only, unless debug mode is on,
// in which case the error message and stack trace are included.
func (a *App) defaultErrorResponse(req *request.Request, err error, status int) *response.Response {
	if a.Debug() {
		return response.Text(renderTrace(err, status), status)
	}

	if req != nil && wantsJSON(req) {
		if resp, jerr := response.JSONWithStatus(response.FromStatus(status), status); jerr == nil {
			return resp
		}
	}
	return response.Text(http.StatusText(status), status)
}

func (a *App) logError(req *request.Request, err error, status int) {
	attrs := []any{logger.StatusCode(status), logger.Error(err)}
	if req != nil {
		attrs = append(attrs, logger.Method(req.Method), logger.Path(req.Path))
	}

	var pe *PanicError
	if errors.As(err, &pe) {
		attrs = append(attrs, logger.StackTrace(pe.Stack))
	}

	if status >= http.StatusInternalServerError {
		a.logger.Error("request failed", attrs...)
		return
	}
	a.logger.Debug("request rejected", attrs...)
}

// StatusCode derives the HTTP status for an error on the request path:
// a StatusCode method anywhere in the chain wins, then routing and parsing
// errors, then 500.
func StatusCode(err error) int {
	if status := response.StatusOf(err); status >= 400 && status <= 599 {
		return status
	}
	if errors.Is(err, router.ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, router.ErrMethodNotAllowed) {
		return http.StatusMethodNotAllowed
	}
	if status := request.StatusCode(err); status != 0 {
		return status
	}
	return http.StatusInternalServerError
}

func renderTrace(err error, status int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d %s\n\n", status, http.StatusText(status))
	fmt.Fprintf(&b, "Error: %v\n", err)

	for e := errors.Unwrap(err); e != nil; e = errors.Unwrap(e) {
		fmt.Fprintf(&b, "  caused by: %v\n", e)
	}

	var pe *PanicError
	if errors.As(err, &pe) && len(pe.Stack) > 0 {
		b.WriteString("\nTraceback:\n")
		b.Write(pe.Stack)
	}
	return b.String()
}

func wantsJSON(req *request.Request) bool {
	if req.IsJSON() {
		return true
	}
	accept := req.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}

// The call* helpers run user code and convert panics into *PanicError.

func recovered(p any) error {
	return &PanicError{Value: p, Stack: debug.Stack()}
}

func (a *App) callBefore(fn BeforeFunc, req *request.Request) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = recovered(p)
		}
	}()
	return fn(req)
}

func (a *App) callAfter(fn AfterFunc, req *request.Request, in *response.Response) (resp *response.Response, err error) {
	defer func() {
		if p := recover(); p != nil {
			resp, err = nil, recovered(p)
		}
	}()
	resp, err = fn(req, in)
	if err == nil && resp == nil {
		err = fmt.Errorf("%w from after-request hook", ErrNilResponse)
	}
	return resp, err
}

func (a *App) callRequestPhase(m Middleware, req *request.Request) (resp *response.Response, err error) {
	defer func() {
		if p := recover(); p != nil {
			resp, err = nil, recovered(p)
		}
	}()
	return m.ProcessRequest(req)
}

func (a *App) callResponsePhase(m Middleware, req *request.Request, in *response.Response) (resp *response.Response, err error) {
	defer func() {
		if p := recover(); p != nil {
			resp, err = nil, recovered(p)
		}
	}()
	resp, err = m.ProcessResponse(req, in)
	if err == nil && resp == nil {
		err = fmt.Errorf("%w from middleware response phase", ErrNilResponse)
	}
	return resp, err
}

func (a *App) callHandler(h HandlerFunc, req *request.Request, params router.Params) (resp *response.Response, err error) {
	defer func() {
		if p := recover(); p != nil {
			resp, err = nil, recovered(p)
		}
	}()
	resp, err = h(req, params)
	if err == nil && resp == nil {
		err = fmt.Errorf("%w from handler for %s %s", ErrNilResponse, req.Method, req.Path)
	}
	return resp, err
}

func (a *App) callErrorHandler(h ErrorHandlerFunc, req *request.Request, cause error) (resp *response.Response) {
	defer func() {
		if p := recover(); p != nil {
			a.logger.Error("error handler panicked",
				slog.Any("panic", p),
				logger.Stack(),
				logger.Error(cause))
			resp = nil
		}
	}()
	return h(req, cause)
}
