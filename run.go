package soloweb

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/soloweb/core/logger"
	"github.com/dmitrymomot/soloweb/core/server"
)

const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 5000
)

// Run serves the application on host:port until SIGINT or SIGTERM, then shuts
// down gracefully. An empty host and a zero port fall back to DefaultHost and
// DefaultPort. debug switches on detailed error responses.
func (a *App) Run(host string, port int, debug bool) error {
	if host == "" {
		host = DefaultHost
	}
	if port == 0 {
		port = DefaultPort
	}
	a.SetDebug(debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return a.RunContext(ctx, net.JoinHostPort(host, strconv.Itoa(port)))
}

// RunContext serves on addr until ctx is cancelled. An empty addr uses the
// configured server address.
func (a *App) RunContext(ctx context.Context, addr string) error {
	if addr == "" {
		addr = a.addr
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	return a.Serve(ctx, ln)
}

// Serve runs the dispatch loop on ln together with the registered workers.
// It blocks until ctx is cancelled or one of them fails, and returns the first
// error. Registration is closed from here on.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	a.Freeze()

	srv := server.New(ln.Addr().String(), append([]server.Option{server.WithLogger(a.logger)}, a.serverOpts...)...)

	a.logger.InfoContext(ctx, "starting application",
		slog.String("app", a.name),
		logger.Addr(ln.Addr().String()),
		slog.Bool("debug", a.Debug()),
		slog.Int("routes", a.routes.Len()),
		slog.Int("middleware", len(a.middleware)))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.RunListener(gctx, ln, a))
	for _, w := range a.workers {
		g.Go(w(gctx))
	}

	err := g.Wait()
	a.logger.Info("application stopped", slog.String("app", a.name), logger.Error(err))
	return err
}
