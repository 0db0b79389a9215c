package request

import (
	"errors"
	"net/http"
)

var (
	ErrMalformedRequest       = errors.New("malformed request")
	ErrHeaderTooLarge         = errors.New("request header too large")
	ErrPayloadTooLarge        = errors.New("request payload too large")
	ErrVersionNotSupported    = errors.New("http version not supported")
	ErrUnsupportedTransfer    = errors.New("unsupported transfer encoding")
	ErrConflictingBodyFraming = errors.New("conflicting body framing headers")
)

// StatusCode maps a parse error to the HTTP status that should answer it.
// It returns 0 when err is not a parse error.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrHeaderTooLarge):
		return http.StatusRequestHeaderFieldsTooLarge
	case errors.Is(err, ErrVersionNotSupported):
		return http.StatusHTTPVersionNotSupported
	case errors.Is(err, ErrUnsupportedTransfer):
		return http.StatusNotImplemented
	case errors.Is(err, ErrMalformedRequest), errors.Is(err, ErrConflictingBodyFraming):
		return http.StatusBadRequest
	}
	return 0
}
