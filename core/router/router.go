package router

import (
	"fmt"
	"net/http"
	"reflect"
	"slices"
	"strings"
)

var knownMethods = map[string]bool{
	http.MethodConnect: true,
	http.MethodDelete:  true,
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodOptions: true,
	http.MethodPatch:   true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodTrace:   true,
}

// Route describes a single registered route with its HTTP method and pattern.
type Route struct {
	Method  string
	Pattern string
	Name    string
}

// RouteOption configures a route during registration.
type RouteOption func(*routeConfig)

type routeConfig struct {
	name string
}

// WithName names the route so paths can be built with Table.URL.
func WithName(name string) RouteOption {
	return func(c *routeConfig) {
		c.name = name
	}
}

type route[H any] struct {
	pattern  string
	name     string
	segments []segment
	methods  []string
	handler  H
}

func (r *route[H]) allows(method string) bool {
	return slices.Contains(r.methods, method)
}

// Table stores compiled routes and resolves requests against them.
// H is the handler type; the table never calls it.
//
// Registration is not synchronized: register every route before the table is
// shared with request goroutines. Resolve is safe for concurrent use afterwards.
type Table[H any] struct {
	routes []*route[H]
	names  map[string]*route[H]
}

// New creates an empty route table.
func New[H any]() *Table[H] {
	return &Table[H]{
		names: make(map[string]*route[H]),
	}
}

// Register compiles pattern and binds handler to it for the given methods.
// An empty method list defaults to GET. Every returned error wraps ErrConfiguration.
func (t *Table[H]) Register(pattern string, methods []string, handler H, opts ...RouteOption) error {
	if isNil(handler) {
		return fmt.Errorf("%w: %w on %q", ErrConfiguration, ErrNilHandler, pattern)
	}

	segments, err := compilePattern(pattern)
	if err != nil {
		return err
	}

	if len(methods) == 0 {
		methods = []string{http.MethodGet}
	}

	normalized := make([]string, 0, len(methods))
	for _, m := range methods {
		m = strings.ToUpper(strings.TrimSpace(m))
		if !knownMethods[m] {
			return fmt.Errorf("%w: %w: %q", ErrConfiguration, ErrInvalidMethod, m)
		}
		if !slices.Contains(normalized, m) {
			normalized = append(normalized, m)
		}
	}

	cfg := routeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	r := &route[H]{
		pattern:  pattern,
		name:     cfg.name,
		segments: segments,
		methods:  normalized,
		handler:  handler,
	}

	if cfg.name != "" {
		if _, exists := t.names[cfg.name]; exists {
			return fmt.Errorf("%w: %w: %q", ErrConfiguration, ErrDuplicateRouteName, cfg.name)
		}
		t.names[cfg.name] = r
	}

	t.routes = append(t.routes, r)
	return nil
}

// Resolve finds the first route, in registration order, whose pattern matches path
// and whose method set contains method. HEAD requests fall back to GET routes.
// path is the request path as sent; segments are percent-decoded after
// splitting, so "/files/a%2Fb" binds "a/b" to a single-segment parameter.
//
// It returns ErrNotFound when no pattern matches the path and a
// *MethodNotAllowedError when the path matches but the method does not.
func (t *Table[H]) Resolve(method, path string) (H, Params, error) {
	var zero H

	method = strings.ToUpper(method)
	parts := splitEscapedPath(path)

	var (
		allowed      []string
		pathMatched  bool
		headFallback *route[H]
		headParams   Params
	)

	for _, r := range t.routes {
		params, ok := match(r.segments, parts)
		if !ok {
			continue
		}
		pathMatched = true

		if r.allows(method) {
			return r.handler, params, nil
		}

		if method == http.MethodHead && headFallback == nil && r.allows(http.MethodGet) {
			headFallback = r
			headParams = params
		}

		for _, m := range r.methods {
			if !slices.Contains(allowed, m) {
				allowed = append(allowed, m)
			}
		}
	}

	if headFallback != nil {
		return headFallback.handler, headParams, nil
	}

	if !pathMatched {
		return zero, nil, ErrNotFound
	}

	if slices.Contains(allowed, http.MethodGet) && !slices.Contains(allowed, http.MethodHead) {
		allowed = append(allowed, http.MethodHead)
	}

	return zero, nil, &MethodNotAllowedError{Method: method, Allowed: allowed}
}

// URL builds a path for the named route, substituting parameter values.
func (t *Table[H]) URL(name string, params map[string]any) (string, error) {
	r, ok := t.names[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRoute, name)
	}
	return build(r.segments, params)
}

// Routes returns all registered routes, one entry per method, in registration order.
func (t *Table[H]) Routes() []Route {
	routes := make([]Route, 0, len(t.routes))
	for _, r := range t.routes {
		for _, m := range r.methods {
			routes = append(routes, Route{Method: m, Pattern: r.pattern, Name: r.name})
		}
	}
	return routes
}

// Len returns the number of registered patterns.
func (t *Table[H]) Len() int {
	return len(t.routes)
}

// isNil reports whether a handler value is a nil func, pointer, or interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func, reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
