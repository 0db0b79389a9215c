package server

import "errors"

var (
	ErrServerAlreadyRunning = errors.New("server is already running")
	ErrMissingAddress       = errors.New("server address is required")
	ErrNilHandler           = errors.New("server handler is required")
	ErrShutdownTimeout      = errors.New("server shutdown timeout exceeded")
)
