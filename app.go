package soloweb

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/dmitrymomot/soloweb/core/router"
	"github.com/dmitrymomot/soloweb/core/server"
)

// App holds the route table, the hook and middleware registries and the error
// handlers of one application.
//
// Registration happens during setup. The first request served (or the first
// call to Run) freezes the registries; registering afterwards panics with
// ErrFrozen. Once frozen, an App is safe for concurrent use.
type App struct {
	name   string
	addr   string
	logger *slog.Logger
	debug  atomic.Bool

	mu            sync.Mutex
	frozen        bool
	routes        *router.Table[HandlerFunc]
	before        []BeforeFunc
	after         []AfterFunc
	middleware    []Middleware
	errorHandlers map[int]ErrorHandlerFunc
	blueprints    map[string]*Blueprint
	workers       []Worker

	serverOpts []server.Option
	freezeOnce sync.Once
}

// Worker is a background task started by Run next to the server, in errgroup
// form. It must return when ctx is cancelled.
type Worker func(ctx context.Context) func() error

// Option configures an App.
type Option func(*App)

// WithName sets the application name used in logs.
func WithName(name string) Option {
	return func(a *App) {
		if name != "" {
			a.name = name
		}
	}
}

// WithLogger sets the application logger. Nil is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithDebug enables debug error responses with messages and stack traces.
func WithDebug(debug bool) Option {
	return func(a *App) {
		a.debug.Store(debug)
	}
}

// WithServerOptions passes options to the server created by Run.
func WithServerOptions(opts ...server.Option) Option {
	return func(a *App) {
		a.serverOpts = append(a.serverOpts, opts...)
	}
}

// New creates an empty application.
func New(opts ...Option) *App {
	a := &App{
		name:          "soloweb",
		addr:          server.DefaultAddr,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		routes:        router.New[HandlerFunc](),
		errorHandlers: make(map[int]ErrorHandlerFunc),
		blueprints:    make(map[string]*Blueprint),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Name returns the application name.
func (a *App) Name() string {
	return a.name
}

// Debug reports whether debug error responses are enabled.
func (a *App) Debug() bool {
	return a.debug.Load()
}

// SetDebug switches debug error responses on or off.
func (a *App) SetDebug(debug bool) {
	a.debug.Store(debug)
}

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Route registers handler for pattern. Methods default to GET.
// It panics on an invalid pattern, like any other configuration error at startup.
func (a *App) Route(pattern string, handler HandlerFunc, methods ...string) {
	a.Handle(pattern, handler, Methods(methods...))
}

// Get registers handler for GET requests. HEAD requests are served by it too.
func (a *App) Get(pattern string, handler HandlerFunc, opts ...RouteOption) {
	a.Handle(pattern, handler, append(opts, Methods(http.MethodGet))...)
}

// Post registers handler for POST requests.
func (a *App) Post(pattern string, handler HandlerFunc, opts ...RouteOption) {
	a.Handle(pattern, handler, append(opts, Methods(http.MethodPost))...)
}

// Put registers handler for PUT requests.
func (a *App) Put(pattern string, handler HandlerFunc, opts ...RouteOption) {
	a.Handle(pattern, handler, append(opts, Methods(http.MethodPut))...)
}

// Patch registers handler for PATCH requests.
func (a *App) Patch(pattern string, handler HandlerFunc, opts ...RouteOption) {
	a.Handle(pattern, handler, append(opts, Methods(http.MethodPatch))...)
}

// Delete registers handler for DELETE requests.
func (a *App) Delete(pattern string, handler HandlerFunc, opts ...RouteOption) {
	a.Handle(pattern, handler, append(opts, Methods(http.MethodDelete))...)
}

// Handle registers handler for pattern with the given route options.
func (a *App) Handle(pattern string, handler HandlerFunc, opts ...RouteOption) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.checkFrozen()

	if err := a.register(pattern, handler, opts); err != nil {
		panic(err)
	}
}

// BeforeRequest appends a hook that runs before middleware and routing.
func (a *App) BeforeRequest(fn BeforeFunc) {
	if fn == nil {
		panic(fmt.Errorf("%w: before-request hook", ErrNilHandler))
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.checkFrozen()
	a.before = append(a.before, fn)
}

// AfterRequest appends a hook that runs after the middleware response phase.
// After-hooks are skipped when the request ends on the error path.
func (a *App) AfterRequest(fn AfterFunc) {
	if fn == nil {
		panic(fmt.Errorf("%w: after-request hook", ErrNilHandler))
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.checkFrozen()
	a.after = append(a.after, fn)
}

// ErrorHandler registers fn for failures whose derived status is status.
// A status of 0 registers the catch-all handler used when no specific one matches.
// Registering the same status twice replaces the previous handler.
func (a *App) ErrorHandler(status int, fn ErrorHandlerFunc) {
	if fn == nil {
		panic(fmt.Errorf("%w: error handler for %d", ErrNilHandler, status))
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.checkFrozen()
	a.errorHandlers[status] = fn
}

// AddMiddleware appends middleware to the chain.
func (a *App) AddMiddleware(m ...Middleware) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.checkFrozen()
	for _, mw := range m {
		if mw == nil {
			panic(ErrNilMiddleware)
		}
		a.middleware = append(a.middleware, mw)
	}
}

// AddWorker registers a background task that Run starts next to the server,
// for example a session store sweep.
func (a *App) AddWorker(w Worker) {
	if w == nil {
		panic(fmt.Errorf("%w: worker", ErrNilHandler))
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.checkFrozen()
	a.workers = append(a.workers, w)
}

// Routes lists the registered routes in registration order.
func (a *App) Routes() []router.Route {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.routes.Routes()
}

// URLFor builds the path of a named route. Blueprint routes are named
// "<blueprint>.<route>".
func (a *App) URLFor(name string, params map[string]any) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.routes.URL(name, params)
}

// Freeze closes registration. It is called automatically by the first request
// and by Run.
func (a *App) Freeze() {
	a.freezeOnce.Do(func() {
		a.mu.Lock()
		a.frozen = true
		a.mu.Unlock()
	})
}

func (a *App) register(pattern string, handler HandlerFunc, opts []RouteOption) error {
	if handler == nil {
		return fmt.Errorf("%w: %w on %q", router.ErrConfiguration, ErrNilHandler, pattern)
	}

	cfg := routeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	var ropts []router.RouteOption
	if cfg.name != "" {
		ropts = append(ropts, router.WithName(cfg.name))
	}

	return a.routes.Register(pattern, cfg.methods, handler, ropts...)
}

// checkFrozen must be called with a.mu held.
func (a *App) checkFrozen() {
	if a.frozen {
		panic(ErrFrozen)
	}
}

// RouteOption configures a single route registration.
type RouteOption func(*routeConfig)

type routeConfig struct {
	methods []string
	name    string
}

// Methods sets the methods the route accepts. Empty means GET.
func Methods(methods ...string) RouteOption {
	return func(c *routeConfig) {
		c.methods = append(c.methods, methods...)
	}
}

// Name names the route for URLFor.
func Name(name string) RouteOption {
	return func(c *routeConfig) {
		c.name = name
	}
}
