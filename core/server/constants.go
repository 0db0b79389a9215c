package server

import "time"

const (
	// DefaultAddr matches the framework's documented run defaults.
	DefaultAddr = "127.0.0.1:5000"

	// DefaultReadTimeout bounds reading one request, head and body.
	DefaultReadTimeout = 15 * time.Second

	// DefaultWriteTimeout bounds writing one response.
	DefaultWriteTimeout = 15 * time.Second

	// DefaultIdleTimeout bounds the wait for the next request on a kept-alive connection.
	DefaultIdleTimeout = 60 * time.Second

	// DefaultShutdownTimeout is the default timeout for graceful shutdown.
	DefaultShutdownTimeout = 30 * time.Second

	// DefaultMaxHeaderBytes is the default maximum size of request headers.
	DefaultMaxHeaderBytes = 1 << 20 // 1 MB

	// DefaultMaxBodyBytes is the default maximum size of a request body.
	DefaultMaxBodyBytes = 10 << 20 // 10 MB
)
