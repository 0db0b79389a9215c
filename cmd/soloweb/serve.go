package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/soloweb"
	"github.com/dmitrymomot/soloweb/core/config"
	"github.com/dmitrymomot/soloweb/core/cookie"
	"github.com/dmitrymomot/soloweb/core/logger"
	"github.com/dmitrymomot/soloweb/core/session"
	"github.com/dmitrymomot/soloweb/integration/database/redis"
	"github.com/dmitrymomot/soloweb/pkg/ratelimiter"
)

func serveCmd() *cobra.Command {
	var (
		host  string
		port  int
		debug bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the demo application",
		Long: `Start the demo application.

Settings are read from the environment (and a .env file if present).
Flags override the listen address and debug mode.

Examples:
  soloweb serve
  soloweb serve --port=8080
  soloweb serve --host=0.0.0.0 --debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServe(ctx, serveFlags{
				host:     host,
				port:     port,
				debug:    debug,
				debugSet: cmd.Flags().Changed("debug"),
			})
		},
	}

	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from SERVER_ADDR)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to bind to (default from SERVER_ADDR)")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Render detailed error responses")

	return cmd
}

type serveFlags struct {
	host     string
	port     int
	debug    bool
	debugSet bool
}

func runServe(ctx context.Context, flags serveFlags) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flags.debugSet {
		cfg.App.Debug = flags.debug
	}

	addr, err := overrideAddr(cfg.App.Server.Addr, flags.host, flags.port)
	if err != nil {
		return err
	}
	cfg.App.Server.Addr = addr

	log := logger.New(logger.WithConfig(cfg.Log), logger.WithAttr(logger.Version(version)))

	app, cleanup, err := newDemoApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	return app.RunContext(ctx, "")
}

// overrideAddr replaces the host and/or port of addr with the flag values.
func overrideAddr(addr, host string, port int) (string, error) {
	if host == "" && port == 0 {
		return addr, nil
	}

	h, p, err := net.SplitHostPort(addr)
	if err != nil {
		return "", fmt.Errorf("invalid server address %q: %w", addr, err)
	}
	if host != "" {
		h = host
	}
	if port != 0 {
		p = strconv.Itoa(port)
	}
	return net.JoinHostPort(h, p), nil
}

// demoConfig groups the environment configuration of the demo application.
type demoConfig struct {
	App       soloweb.Config
	Log       logger.Config
	Session   session.Config
	Cookie    cookie.Config
	RateLimit ratelimiter.Config
	Redis     redis.Config
}

func loadConfig() (demoConfig, error) {
	var cfg demoConfig
	if err := config.Load(&cfg.App); err != nil {
		return cfg, err
	}
	if err := config.Load(&cfg.Log); err != nil {
		return cfg, err
	}
	if err := config.Load(&cfg.Session); err != nil {
		return cfg, err
	}
	if err := config.Load(&cfg.Cookie); err != nil {
		return cfg, err
	}
	if err := config.Load(&cfg.RateLimit); err != nil {
		return cfg, err
	}
	if err := config.Load(&cfg.Redis); err != nil {
		return cfg, err
	}
	return cfg, nil
}
