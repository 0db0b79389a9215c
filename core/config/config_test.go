package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/soloweb/core/config"
)

type serverConfig struct {
	Host    string        `env:"CFGTEST_HOST" envDefault:"127.0.0.1"`
	Port    int           `env:"CFGTEST_PORT" envDefault:"5000"`
	Timeout time.Duration `env:"CFGTEST_TIMEOUT" envDefault:"5s"`
}

type requiredConfig struct {
	Secret string `env:"CFGTEST_REQUIRED_SECRET,required"`
}

// These tests mutate the process environment and the package cache, so they
// do not run in parallel.

func TestLoadDefaultsAndCache(t *testing.T) {
	config.Reset()
	t.Cleanup(config.Reset)
	t.Setenv("CFGTEST_PORT", "8080")

	var cfg serverConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.Timeout)

	t.Setenv("CFGTEST_PORT", "9090")
	var cached serverConfig
	require.NoError(t, config.Load(&cached))
	assert.Equal(t, 8080, cached.Port, "second load returns the cached value")

	config.Reset()
	var fresh serverConfig
	require.NoError(t, config.Load(&fresh))
	assert.Equal(t, 9090, fresh.Port)
}

func TestLoadErrors(t *testing.T) {
	config.Reset()
	t.Cleanup(config.Reset)

	var cfg requiredConfig
	assert.Error(t, config.Load(&cfg))
	assert.Panics(t, func() { config.MustLoad(&cfg) })

	t.Setenv("CFGTEST_REQUIRED_SECRET", "s3cret")
	assert.NotPanics(t, func() { config.MustLoad(&cfg) })
	assert.Equal(t, "s3cret", cfg.Secret)
}
