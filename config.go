package soloweb

import (
	"github.com/dmitrymomot/soloweb/core/server"
)

// Config holds application configuration with environment variable support.
// The server section is parsed from the SERVER_* variables.
type Config struct {
	Name  string `env:"APP_NAME" envDefault:"soloweb"`
	Debug bool   `env:"APP_DEBUG" envDefault:"false"`

	Server server.Config
}

// NewFromConfig creates an App from configuration. Options override config values.
func NewFromConfig(cfg Config, opts ...Option) *App {
	base := []Option{
		WithName(cfg.Name),
		WithDebug(cfg.Debug),
		WithServerOptions(cfg.Server.Options()...),
		withAddr(cfg.Server.Addr),
	}
	return New(append(base, opts...)...)
}

// withAddr sets the address RunContext listens on when called with an empty one.
func withAddr(addr string) Option {
	return func(a *App) {
		if addr != "" {
			a.addr = addr
		}
	}
}
