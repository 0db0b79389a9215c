package session

import "time"

// Default store settings.
const (
	DefaultTTL             = 24 * time.Hour
	DefaultCleanupInterval = 5 * time.Minute
	DefaultCookieName      = "session_id"
	DefaultRedisPrefix     = "session:"
)

// Config holds session configuration loaded from the environment.
type Config struct {
	// Driver selects the backend: "memory" or "redis".
	Driver          string        `env:"SESSION_DRIVER" envDefault:"memory"`
	TTL             time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"5m"`
	CookieName      string        `env:"SESSION_COOKIE_NAME" envDefault:"session_id"`
	RedisPrefix     string        `env:"SESSION_REDIS_PREFIX" envDefault:"session:"`
}

// DefaultConfig returns the in-memory defaults.
func DefaultConfig() Config {
	return Config{
		Driver:          "memory",
		TTL:             DefaultTTL,
		CleanupInterval: DefaultCleanupInterval,
		CookieName:      DefaultCookieName,
		RedisPrefix:     DefaultRedisPrefix,
	}
}

// MemoryOptions converts the config into MemoryStore options.
func (c Config) MemoryOptions() []MemoryOption {
	return []MemoryOption{
		WithTTL(c.TTL),
		WithCleanupInterval(c.CleanupInterval),
	}
}

// RedisOptions converts the config into RedisStore options.
func (c Config) RedisOptions() []RedisOption {
	return []RedisOption{
		WithRedisTTL(c.TTL),
		WithKeyPrefix(c.RedisPrefix),
	}
}
