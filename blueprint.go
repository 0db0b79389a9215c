package soloweb

import (
	"errors"
	"fmt"
	"maps"
	"net/http"
	"strings"

	"github.com/dmitrymomot/soloweb/core/router"
)

// Blueprint collects routes, hooks, error handlers and middleware under a name
// and a URL prefix so they can be defined apart from the App and registered
// with it in one step.
//
// Registration merges everything into the App: routes get the prefix and
// "<name>." in front of their route names, hooks and middleware are appended
// to the App's chains, error handlers are added to the App's table.
type Blueprint struct {
	name   string
	prefix string

	routes        []blueprintRoute
	before        []BeforeFunc
	after         []AfterFunc
	errorHandlers map[int]ErrorHandlerFunc
	middleware    []Middleware
}

type blueprintRoute struct {
	pattern string
	handler HandlerFunc
	opts    []RouteOption
}

// NewBlueprint creates a blueprint. A trailing slash in prefix is dropped.
func NewBlueprint(name, prefix string) *Blueprint {
	return &Blueprint{
		name:          name,
		prefix:        strings.TrimRight(prefix, "/"),
		errorHandlers: make(map[int]ErrorHandlerFunc),
	}
}

// Name returns the blueprint name.
func (b *Blueprint) Name() string { return b.name }

// Prefix returns the URL prefix.
func (b *Blueprint) Prefix() string { return b.prefix }

// Route records handler for pattern, relative to the prefix. Methods default to GET.
func (b *Blueprint) Route(pattern string, handler HandlerFunc, methods ...string) {
	b.Handle(pattern, handler, Methods(methods...))
}

// Get records a GET route.
func (b *Blueprint) Get(pattern string, handler HandlerFunc, opts ...RouteOption) {
	b.Handle(pattern, handler, append(opts, Methods(http.MethodGet))...)
}

// Post records a POST route.
func (b *Blueprint) Post(pattern string, handler HandlerFunc, opts ...RouteOption) {
	b.Handle(pattern, handler, append(opts, Methods(http.MethodPost))...)
}

// Put records a PUT route.
func (b *Blueprint) Put(pattern string, handler HandlerFunc, opts ...RouteOption) {
	b.Handle(pattern, handler, append(opts, Methods(http.MethodPut))...)
}

// Patch records a PATCH route.
func (b *Blueprint) Patch(pattern string, handler HandlerFunc, opts ...RouteOption) {
	b.Handle(pattern, handler, append(opts, Methods(http.MethodPatch))...)
}

// Delete records a DELETE route.
func (b *Blueprint) Delete(pattern string, handler HandlerFunc, opts ...RouteOption) {
	b.Handle(pattern, handler, append(opts, Methods(http.MethodDelete))...)
}

// Handle records handler for pattern with route options. Patterns are
// validated when the blueprint is registered.
func (b *Blueprint) Handle(pattern string, handler HandlerFunc, opts ...RouteOption) {
	b.routes = append(b.routes, blueprintRoute{pattern: pattern, handler: handler, opts: opts})
}

// BeforeRequest records a before-request hook.
func (b *Blueprint) BeforeRequest(fn BeforeFunc) {
	b.before = append(b.before, fn)
}

// AfterRequest records an after-request hook.
func (b *Blueprint) AfterRequest(fn AfterFunc) {
	b.after = append(b.after, fn)
}

// ErrorHandler records an error handler for status (0 for the catch-all).
func (b *Blueprint) ErrorHandler(status int, fn ErrorHandlerFunc) {
	b.errorHandlers[status] = fn
}

// AddMiddleware records middleware.
func (b *Blueprint) AddMiddleware(m ...Middleware) {
	b.middleware = append(b.middleware, m...)
}

// RegisterBlueprint merges bp into the application. It fails with
// ErrBlueprintExists when a blueprint with the same name is already registered,
// and with a router configuration error when one of its routes is invalid.
// Nothing is merged when an error is returned.
func (a *App) RegisterBlueprint(bp *Blueprint) error {
	if bp == nil || bp.name == "" || strings.Contains(bp.name, ".") {
		return fmt.Errorf("%w: name must be non-empty and contain no dots", ErrInvalidBlueprint)
	}
	for _, fn := range bp.before {
		if fn == nil {
			return fmt.Errorf("%w: %q: nil before-request hook", ErrInvalidBlueprint, bp.name)
		}
	}
	for _, fn := range bp.after {
		if fn == nil {
			return fmt.Errorf("%w: %q: nil after-request hook", ErrInvalidBlueprint, bp.name)
		}
	}
	for status, fn := range bp.errorHandlers {
		if fn == nil {
			return fmt.Errorf("%w: %q: nil error handler for %d", ErrInvalidBlueprint, bp.name, status)
		}
	}
	for _, m := range bp.middleware {
		if m == nil {
			return fmt.Errorf("%w: %q: %w", ErrInvalidBlueprint, bp.name, ErrNilMiddleware)
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.checkFrozen()

	if _, exists := a.blueprints[bp.name]; exists {
		return fmt.Errorf("%w: %q", ErrBlueprintExists, bp.name)
	}

	// Routes go into a scratch table first so a bad pattern leaves the App untouched.
	if err := bp.validate(); err != nil {
		return err
	}
	for _, r := range bp.routes {
		name := bp.routeName(r.opts)
		if name == "" {
			continue
		}
		if _, err := a.routes.URL(name, nil); !errors.Is(err, router.ErrUnknownRoute) {
			return fmt.Errorf("blueprint %q: %w: %w: %q", bp.name, router.ErrConfiguration, router.ErrDuplicateRouteName, name)
		}
	}
	for _, r := range bp.routes {
		if err := a.register(bp.join(r.pattern), r.handler, bp.routeOptions(r.opts)); err != nil {
			return err
		}
	}

	a.before = append(a.before, bp.before...)
	a.after = append(a.after, bp.after...)
	a.middleware = append(a.middleware, bp.middleware...)
	maps.Copy(a.errorHandlers, bp.errorHandlers)
	a.blueprints[bp.name] = bp

	return nil
}

// Blueprint returns the registered blueprint with the given name.
func (a *App) Blueprint(name string) (*Blueprint, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	bp, ok := a.blueprints[name]
	return bp, ok
}

func (b *Blueprint) validate() error {
	scratch := New()
	for _, r := range b.routes {
		if err := scratch.register(b.join(r.pattern), r.handler, b.routeOptions(r.opts)); err != nil {
			return fmt.Errorf("blueprint %q: %w", b.name, err)
		}
	}
	return nil
}

// join prefixes pattern. The blueprint root "/" maps to the bare prefix.
func (b *Blueprint) join(pattern string) string {
	if b.prefix == "" {
		return pattern
	}
	if pattern == "/" || pattern == "" {
		return b.prefix
	}
	return b.prefix + pattern
}

// routeOptions qualifies the route name with the blueprint name.
func (b *Blueprint) routeOptions(opts []RouteOption) []RouteOption {
	cfg := routeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	out := []RouteOption{Methods(cfg.methods...)}
	if name := b.routeName(opts); name != "" {
		out = append(out, Name(name))
	}
	return out
}

func (b *Blueprint) routeName(opts []RouteOption) string {
	cfg := routeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.name == "" {
		return ""
	}
	return b.name + "." + cfg.name
}
