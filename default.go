package soloweb

var defaultApp = New()

// Default returns the package-level application used by the functions below.
func Default() *App { return defaultApp }

// Route registers a route on the default application.
func Route(pattern string, handler HandlerFunc, methods ...string) {
	defaultApp.Route(pattern, handler, methods...)
}

// BeforeRequest registers a before-request hook on the default application.
func BeforeRequest(fn BeforeFunc) { defaultApp.BeforeRequest(fn) }

// AfterRequest registers an after-request hook on the default application.
func AfterRequest(fn AfterFunc) { defaultApp.AfterRequest(fn) }

// ErrorHandler registers an error handler on the default application.
func ErrorHandler(status int, fn ErrorHandlerFunc) { defaultApp.ErrorHandler(status, fn) }

// AddMiddleware appends middleware to the default application.
func AddMiddleware(m ...Middleware) { defaultApp.AddMiddleware(m...) }

// RegisterBlueprint registers a blueprint on the default application.
func RegisterBlueprint(bp *Blueprint) error { return defaultApp.RegisterBlueprint(bp) }

// URLFor builds a path for a named route of the default application.
func URLFor(name string, params map[string]any) (string, error) {
	return defaultApp.URLFor(name, params)
}

// Run serves the default application. See App.Run.
func Run(host string, port int, debug bool) error {
	return defaultApp.Run(host, port, debug)
}
