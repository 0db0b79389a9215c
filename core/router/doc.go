// Package router implements the route table: URL patterns with typed parameter
// placeholders compiled into ordered segment matchers.
//
// # Patterns
//
// A pattern is a slash-separated list of segments. Each segment is either a literal
// or a single placeholder:
//
//	/users                 literal
//	/users/<name>          string parameter (default converter)
//	/users/<int:id>        integer parameter, bound as int
//	/prices/<float:value>  float parameter, bound as float64
//	/files/<path:rest>     remainder of the path, '/' included; must be last
//
// Parameter names must be unique within a pattern. Registering a pattern that breaks
// this rule fails with an error wrapping both ErrConfiguration and ErrDuplicateParam.
//
// # Resolution
//
// Resolve walks the routes in registration order and returns the first one whose
// segments all match. A failed type conversion (for example "abc" against <int:id>)
// is a non-match, so resolution falls through to later patterns:
//
//	t := router.New[Handler]()
//	_ = t.Register("/users/<int:id>", nil, showUser)
//	_ = t.Register("/users/<slug>", nil, showUserBySlug)
//
//	h, params, err := t.Resolve("GET", "/users/42")  // showUser, params["id"] == 42
//	h, params, err = t.Resolve("GET", "/users/alice") // showUserBySlug
//
// When no pattern matches, Resolve returns ErrNotFound. When a pattern matches but
// none of the matching routes accepts the method, it returns a *MethodNotAllowedError
// listing the allowed methods, so callers can choose between 404 and 405.
//
// The table is written during application setup and read concurrently afterwards;
// it performs no locking of its own.
package router
