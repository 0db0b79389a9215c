package response

import (
	"errors"
	"net/http"
	"strings"
)

// HTTPError is an error that carries the HTTP status used to answer it.
type HTTPError struct {
	Status  int            `json:"-"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// NewHTTPError creates a 500 error with a custom message.
func NewHTTPError(message string) HTTPError {
	return HTTPError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_server_error",
		Message: message,
	}
}

// Error implements the error interface.
func (e HTTPError) Error() string {
	return e.Message
}

// StatusCode returns the HTTP status code for the error.
func (e HTTPError) StatusCode() int {
	return e.Status
}

// WithMessage returns a copy of the error with a custom message.
func (e HTTPError) WithMessage(message string) HTTPError {
	e.Message = message
	return e
}

// WithDetails returns a copy of the error with additional details.
func (e HTTPError) WithDetails(details map[string]any) HTTPError {
	e.Details = details
	return e
}

// Predefined errors for the statuses the framework produces itself.
var (
	ErrBadRequest = HTTPError{
		Status:  http.StatusBadRequest,
		Code:    "bad_request",
		Message: http.StatusText(http.StatusBadRequest),
	}
	ErrUnauthorized = HTTPError{
		Status:  http.StatusUnauthorized,
		Code:    "unauthorized",
		Message: http.StatusText(http.StatusUnauthorized),
	}
	ErrForbidden = HTTPError{
		Status:  http.StatusForbidden,
		Code:    "forbidden",
		Message: http.StatusText(http.StatusForbidden),
	}
	ErrNotFound = HTTPError{
		Status:  http.StatusNotFound,
		Code:    "not_found",
		Message: http.StatusText(http.StatusNotFound),
	}
	ErrMethodNotAllowed = HTTPError{
		Status:  http.StatusMethodNotAllowed,
		Code:    "method_not_allowed",
		Message: http.StatusText(http.StatusMethodNotAllowed),
	}
	ErrRequestTimeout = HTTPError{
		Status:  http.StatusRequestTimeout,
		Code:    "request_timeout",
		Message: http.StatusText(http.StatusRequestTimeout),
	}
	ErrConflict = HTTPError{
		Status:  http.StatusConflict,
		Code:    "conflict",
		Message: http.StatusText(http.StatusConflict),
	}
	ErrLengthRequired = HTTPError{
		Status:  http.StatusLengthRequired,
		Code:    "length_required",
		Message: http.StatusText(http.StatusLengthRequired),
	}
	ErrRequestEntityTooLarge = HTTPError{
		Status:  http.StatusRequestEntityTooLarge,
		Code:    "request_entity_too_large",
		Message: http.StatusText(http.StatusRequestEntityTooLarge),
	}
	ErrUnsupportedMediaType = HTTPError{
		Status:  http.StatusUnsupportedMediaType,
		Code:    "unsupported_media_type",
		Message: http.StatusText(http.StatusUnsupportedMediaType),
	}
	ErrUnprocessableEntity = HTTPError{
		Status:  http.StatusUnprocessableEntity,
		Code:    "unprocessable_entity",
		Message: http.StatusText(http.StatusUnprocessableEntity),
	}
	ErrTooManyRequests = HTTPError{
		Status:  http.StatusTooManyRequests,
		Code:    "too_many_requests",
		Message: http.StatusText(http.StatusTooManyRequests),
	}
	ErrRequestHeaderFieldsTooLarge = HTTPError{
		Status:  http.StatusRequestHeaderFieldsTooLarge,
		Code:    "request_header_fields_too_large",
		Message: http.StatusText(http.StatusRequestHeaderFieldsTooLarge),
	}
	ErrInternalServerError = HTTPError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_server_error",
		Message: http.StatusText(http.StatusInternalServerError),
	}
	ErrNotImplemented = HTTPError{
		Status:  http.StatusNotImplemented,
		Code:    "not_implemented",
		Message: http.StatusText(http.StatusNotImplemented),
	}
	ErrServiceUnavailable = HTTPError{
		Status:  http.StatusServiceUnavailable,
		Code:    "service_unavailable",
		Message: http.StatusText(http.StatusServiceUnavailable),
	}
	ErrHTTPVersionNotSupported = HTTPError{
		Status:  http.StatusHTTPVersionNotSupported,
		Code:    "http_version_not_supported",
		Message: http.StatusText(http.StatusHTTPVersionNotSupported),
	}
)

var httpErrorsByStatus = map[int]HTTPError{
	http.StatusBadRequest:                  ErrBadRequest,
	http.StatusUnauthorized:                ErrUnauthorized,
	http.StatusForbidden:                   ErrForbidden,
	http.StatusNotFound:                    ErrNotFound,
	http.StatusMethodNotAllowed:            ErrMethodNotAllowed,
	http.StatusRequestTimeout:              ErrRequestTimeout,
	http.StatusConflict:                    ErrConflict,
	http.StatusLengthRequired:              ErrLengthRequired,
	http.StatusRequestEntityTooLarge:       ErrRequestEntityTooLarge,
	http.StatusUnsupportedMediaType:        ErrUnsupportedMediaType,
	http.StatusUnprocessableEntity:         ErrUnprocessableEntity,
	http.StatusTooManyRequests:             ErrTooManyRequests,
	http.StatusRequestHeaderFieldsTooLarge: ErrRequestHeaderFieldsTooLarge,
	http.StatusInternalServerError:         ErrInternalServerError,
	http.StatusNotImplemented:              ErrNotImplemented,
	http.StatusServiceUnavailable:          ErrServiceUnavailable,
	http.StatusHTTPVersionNotSupported:     ErrHTTPVersionNotSupported,
}

// statusCode is implemented by errors that know their HTTP status.
type statusCode interface {
	StatusCode() int
}

// FromStatus returns the predefined error for status, or builds one from the
// standard status text.
func FromStatus(status int) HTTPError {
	if e, ok := httpErrorsByStatus[status]; ok {
		return e
	}
	text := http.StatusText(status)
	if text == "" {
		return ErrInternalServerError
	}
	return HTTPError{
		Status:  status,
		Code:    strings.ReplaceAll(strings.ToLower(text), " ", "_"),
		Message: text,
	}
}

// StatusOf returns the status carried by err through a StatusCode method
// anywhere in its chain, or 0 if there is none.
func StatusOf(err error) int {
	var sc statusCode
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return 0
}
