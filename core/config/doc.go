// Package config loads typed configuration from environment variables.
//
// Config structs declare their variables with env and envDefault tags, as
// server.Config, session.Config and soloweb.Config do. A .env file in the
// working directory is read once before the first parse; variables already
// present in the environment win over it.
//
//	var cfg soloweb.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//	app := soloweb.NewFromConfig(cfg)
//
// MustLoad panics instead of returning the error and is meant for startup code.
//
// # Caching
//
// Every struct type is parsed once per process. Later Load calls for the same
// type copy the cached value, so changing the environment afterwards has no
// effect until Reset is called. Tests that set variables with t.Setenv call
// Reset first.
package config
