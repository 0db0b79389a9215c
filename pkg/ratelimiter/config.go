package ratelimiter

import (
	"fmt"
	"time"
)

// Default limiter settings.
const (
	DefaultRate            = 10
	DefaultBurst           = 20
	DefaultIdleTTL         = time.Hour
	DefaultCleanupInterval = 5 * time.Minute
)

// Config describes a token bucket shared by every key of a store.
type Config struct {
	// Rate is the number of tokens added per second.
	Rate float64 `env:"RATE_LIMIT_RPS" envDefault:"10"`
	// Burst is the bucket capacity.
	Burst int `env:"RATE_LIMIT_BURST" envDefault:"20"`
	// IdleTTL is how long an unused key is kept before cleanup drops it.
	IdleTTL         time.Duration `env:"RATE_LIMIT_IDLE_TTL" envDefault:"1h"`
	CleanupInterval time.Duration `env:"RATE_LIMIT_CLEANUP_INTERVAL" envDefault:"5m"`
}

// DefaultConfig returns the built-in limits.
func DefaultConfig() Config {
	return Config{
		Rate:            DefaultRate,
		Burst:           DefaultBurst,
		IdleTTL:         DefaultIdleTTL,
		CleanupInterval: DefaultCleanupInterval,
	}
}

// Validate reports whether the config describes a usable bucket.
func (c Config) Validate() error {
	if c.Rate <= 0 {
		return fmt.Errorf("%w: rate must be > 0, got %v", ErrInvalidConfig, c.Rate)
	}
	if c.Burst <= 0 {
		return fmt.Errorf("%w: burst must be > 0, got %d", ErrInvalidConfig, c.Burst)
	}
	return nil
}
