// Package health provides handlers for liveness and readiness probes.
//
// Handlers:
//   - Liveness: the process is running (no dependency checks)
//   - Readiness: every dependency check passes, otherwise 503
//   - NoContent: 204 for minimal overhead
//
// Usage:
//
//	app.Get("/health/live", health.Liveness)
//	app.Get("/health/ready", health.Readiness(log,
//		redis.Healthcheck(client),
//		limiter.Healthcheck,
//	))
//	app.Get("/ping", health.NoContent)
//
// Checks follow the func(context.Context) error signature.
package health
