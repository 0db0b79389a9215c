package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/dmitrymomot/soloweb/core/logger"
	"github.com/dmitrymomot/soloweb/core/request"
	"github.com/dmitrymomot/soloweb/core/response"
)

// Handler produces responses for parsed requests.
type Handler interface {
	// ServeRequest runs the full pipeline for a well-formed request.
	// It must always return a response.
	ServeRequest(req *request.Request) *response.Response
	// ServeError answers a request whose head parsed but whose body could not
	// be read within limits, for example with ErrPayloadTooLarge.
	ServeError(req *request.Request, err error) *response.Response
}

// Server accepts HTTP/1.x connections and drives one request/response cycle
// at a time per connection, each connection on its own goroutine.
// Safe for concurrent use.
type Server struct {
	mu       sync.Mutex
	addr     string
	listener net.Listener
	conns    map[*conn]struct{}
	running  bool
	closing  bool
	wg       sync.WaitGroup

	logger       *slog.Logger
	shutdown     time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration
	idleTimeout  time.Duration
	limits       request.Limits
}

// New creates a new Server with the given address and options.
// Defaults to a 30-second graceful shutdown timeout and a no-op logger.
func New(addr string, opts ...Option) *Server {
	s := &Server{
		addr:         addr,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		shutdown:     DefaultShutdownTimeout,
		readTimeout:  DefaultReadTimeout,
		writeTimeout: DefaultWriteTimeout,
		idleTimeout:  DefaultIdleTimeout,
		limits: request.Limits{
			MaxHeaderBytes: DefaultMaxHeaderBytes,
			MaxBodyBytes:   DefaultMaxBodyBytes,
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start binds the configured address and serves until the context is
// cancelled or the listener fails. Returns ctx.Err() when the context is
// cancelled. Use Stop for graceful shutdown.
func (s *Server) Start(ctx context.Context, handler Handler) error {
	if s.addr == "" {
		return ErrMissingAddress
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return err
	}

	return s.Serve(ctx, ln, handler)
}

// Serve accepts connections on ln. It takes ownership of the listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener, handler Handler) error {
	if handler == nil {
		ln.Close()
		return ErrNilHandler
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		ln.Close()
		return ErrServerAlreadyRunning
	}
	s.running = true
	s.closing = false
	s.listener = ln
	s.conns = make(map[*conn]struct{})
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "starting server", logger.Addr(ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.acceptLoop(ctx, ln, handler)
	}()

	select {
	case err := <-errCh:
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		_ = ln.Close()
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Addr returns the bound listener address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop closes the listener, closes idle connections and waits for in-flight
// requests to finish, up to the shutdown timeout. Connections still busy after
// the timeout are closed forcibly. Returns nil if the server is not running.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.closing = true
	ln := s.listener
	for c := range s.conns {
		if c.isIdle() {
			c.close()
		}
	}
	s.mu.Unlock()

	s.logger.Info("shutting down server gracefully", slog.Duration("timeout", s.shutdown))

	if ln != nil {
		_ = ln.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("server shutdown complete")
		return nil
	case <-time.After(s.shutdown):
		s.mu.Lock()
		for c := range s.conns {
			c.close()
		}
		s.mu.Unlock()
		s.logger.Error("server shutdown timeout exceeded", slog.Duration("timeout", s.shutdown))
		return ErrShutdownTimeout
	}
}

// Run provides errgroup compatibility for coordinated lifecycle management.
// Returns a function that starts the server, monitors context cancellation,
// and performs graceful shutdown when the context is cancelled.
func (s *Server) Run(ctx context.Context, handler Handler) func() error {
	return s.run(ctx, func() error {
		return s.Start(ctx, handler)
	})
}

// RunListener is Run for a listener bound by the caller.
func (s *Server) RunListener(ctx context.Context, ln net.Listener, handler Handler) func() error {
	return s.run(ctx, func() error {
		return s.Serve(ctx, ln, handler)
	})
}

func (s *Server) run(ctx context.Context, serve func() error) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- serve()
		}()

		select {
		case <-ctx.Done():
			// Serve returns as soon as ctx is done; the listener stays open until Stop.
			<-errCh
			if stopErr := s.Stop(); stopErr != nil {
				s.logger.Error("failed to stop server during context cancellation", logger.Error(stopErr))
			}
			return nil
		case err := <-errCh:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener, handler Handler) error {
	var backoff time.Duration

	for {
		nc, err := ln.Accept()
		if err != nil {
			if s.isClosing() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			// Temporary failures such as EMFILE: back off and retry.
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				backoff = min(max(backoff*2, 5*time.Millisecond), time.Second)
				s.logger.WarnContext(ctx, "accept error, retrying", logger.Error(err), slog.Duration("backoff", backoff))
				time.Sleep(backoff)
				continue
			}
			return err
		}
		backoff = 0

		c := s.newConn(ctx, nc, handler)
		if !s.track(c) {
			nc.Close()
			continue
		}

		go func() {
			defer s.wg.Done()
			defer s.untrack(c)
			c.serve()
		}()
	}
}

func (s *Server) track(c *conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.conns[c] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(c *conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, c)
}

func (s *Server) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}
