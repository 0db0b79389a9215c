package router

import (
	"errors"
	"net/http"
	"strings"
)

var (
	// ErrConfiguration marks every failure raised while registering a route.
	// Registration errors are fatal at startup.
	ErrConfiguration = errors.New("route configuration error")

	ErrInvalidPattern     = errors.New("invalid route path pattern")
	ErrDuplicateParam     = errors.New("duplicate parameter name")
	ErrUnknownConverter   = errors.New("unknown parameter converter")
	ErrPathPosition       = errors.New("path parameter must be the last segment")
	ErrInvalidMethod      = errors.New("invalid http method")
	ErrNilHandler         = errors.New("nil route handler")
	ErrDuplicateRouteName = errors.New("duplicate route name")
	ErrUnknownRoute       = errors.New("unknown route name")
	ErrMissingParam       = errors.New("missing route parameter")
	ErrInvalidParamValue  = errors.New("invalid route parameter value")

	// Resolve errors
	ErrNotFound         = errors.New("not found")
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// MethodNotAllowedError is returned by Resolve when the path matches at least one
// pattern but none of the matching routes accepts the request method.
type MethodNotAllowedError struct {
	Method  string
	Allowed []string
}

// Error implements the error interface.
func (e *MethodNotAllowedError) Error() string {
	return ErrMethodNotAllowed.Error() + ": " + e.Method
}

// Unwrap lets errors.Is match ErrMethodNotAllowed.
func (e *MethodNotAllowedError) Unwrap() error {
	return ErrMethodNotAllowed
}

// StatusCode returns 405.
func (e *MethodNotAllowedError) StatusCode() int {
	return http.StatusMethodNotAllowed
}

// AllowHeader renders the value of the Allow response header.
func (e *MethodNotAllowedError) AllowHeader() string {
	return strings.Join(e.Allowed, ", ")
}
