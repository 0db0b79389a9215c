// Package middleware provides stock soloweb.Middleware implementations for
// cross-cutting concerns: CORS, request IDs, client IP extraction, access
// logging, Prometheus metrics, rate limiting, security headers, body size
// limits and sessions.
//
// Every middleware follows the same pattern:
//   - a constructor with defaults (CORS, RequestID, Logging, ...)
//   - a WithConfig constructor taking a configuration struct
//   - a Skip function in the config to bypass specific requests
//   - Get helpers for values the middleware stores on the request
//
// Values are shared through request.SetValue, so middleware compose without
// knowing about each other: Logging picks up the ID stored by RequestID and
// the IP stored by ClientIP when they are installed before it.
//
// # Ordering
//
// ProcessRequest runs in registration order and ProcessResponse in reverse,
// so the middleware registered first sees the final response. A typical stack:
//
//	app := soloweb.New()
//	metrics := middleware.NewMetrics()
//
//	app.AddMiddleware(
//		middleware.RequestID(),
//		middleware.ClientIP(),
//		middleware.LoggingWithLogger(log),
//		metrics,
//		middleware.SecurityHeaders(),
//		middleware.CORS(),
//		middleware.RateLimit(middleware.RateLimitConfig{Limiter: store, SetHeaders: true}),
//		middleware.SessionMiddleware(sessions),
//	)
//	app.Get("/metrics", metrics.Handler())
//
// # Errors
//
// Middleware that reject a request return an error carrying its status
// (response.ErrTooManyRequests, response.ErrRequestEntityTooLarge, ...), so
// the application's error handlers render it. Response phases of middleware
// already entered still run on that error response, which is how RateLimit
// adds Retry-After and CORS adds its headers to error responses.
//
// CORS preflight requests are the exception: they are answered directly from
// ProcessRequest with 204 or 403.
//
// # Sessions
//
// The session middleware loads the session named by the cookie and exposes it
// to handlers:
//
//	func login(req *request.Request, _ router.Params) (*response.Response, error) {
//		sess := middleware.MustGetSession(req)
//		sess.Set("user_id", 42)
//		return response.Redirect("/"), nil
//	}
//
// New sessions are written to the store only once a value is set. Destroy
// removes the session and expires the cookie.
package middleware
