// Package soloweb is a small HTTP application framework: typed URL routing,
// a middleware and hook pipeline, cookie-backed sessions and plain response
// values, served by its own HTTP/1.1 connection loop.
//
// # Handlers
//
// A handler receives the parsed request and the typed path parameters and
// returns a response or an error:
//
//	app := soloweb.New(soloweb.WithLogger(log))
//
//	app.Get("/users/<int:id>", func(req *request.Request, p router.Params) (*response.Response, error) {
//		id, _ := p.Int("id")
//		user, err := users.Find(req.Context(), id)
//		if err != nil {
//			return nil, response.ErrNotFound
//		}
//		return response.JSON(user)
//	}, soloweb.Name("user"))
//
// Errors that carry a status (response.HTTPError, router errors, parser
// errors) map to that status; everything else maps to 500.
//
// # Pipeline
//
// Every request goes through the same stages:
//
//	before-hooks → middleware.ProcessRequest (in order) → route → handler →
//	middleware.ProcessResponse (reverse order) → after-hooks
//
// A middleware returning a response from ProcessRequest short-circuits: the
// remaining middleware and the handler are skipped, and only the middleware
// already entered run their response phase.
//
// Any error or panic moves the request to the error path. The error handler
// registered for the derived status renders the response, falling back to the
// catch-all handler (status 0) and then to a default response. The default
// response carries the status text only; with debug enabled it also carries
// the error chain and, for panics, the stack trace. Middleware already entered
// still process the error response. After-hooks never run on the error path.
//
// # Blueprints
//
// A Blueprint groups routes, hooks, error handlers and middleware under a name
// and URL prefix. RegisterBlueprint merges it into the App; named routes become
// "<blueprint>.<name>" for URLFor.
//
// # Running
//
// Run blocks until SIGINT or SIGTERM and shuts down gracefully:
//
//	if err := app.Run("127.0.0.1", 5000, false); err != nil {
//		log.Error("server failed", logger.Error(err))
//	}
//
// The first request or Run freezes registration; later calls to Route,
// BeforeRequest and the like panic with ErrFrozen.
//
// A default App backs the package-level Route, BeforeRequest, AfterRequest,
// ErrorHandler, AddMiddleware and Run functions.
package soloweb
