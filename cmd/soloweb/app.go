package main

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dmitrymomot/soloweb"
	"github.com/dmitrymomot/soloweb/core/cookie"
	"github.com/dmitrymomot/soloweb/core/health"
	"github.com/dmitrymomot/soloweb/core/logger"
	"github.com/dmitrymomot/soloweb/core/request"
	"github.com/dmitrymomot/soloweb/core/response"
	"github.com/dmitrymomot/soloweb/core/router"
	"github.com/dmitrymomot/soloweb/core/session"
	"github.com/dmitrymomot/soloweb/core/static"
	"github.com/dmitrymomot/soloweb/integration/database/redis"
	"github.com/dmitrymomot/soloweb/middleware"
	"github.com/dmitrymomot/soloweb/pkg/ratelimiter"
)

//go:embed assets
var assets embed.FS

// newDemoApp wires the demo application. The returned cleanup releases
// external connections and must be called after the app stops.
func newDemoApp(ctx context.Context, cfg demoConfig, log *slog.Logger) (*soloweb.App, func(), error) {
	app := soloweb.NewFromConfig(cfg.App, soloweb.WithLogger(log))

	var checks []health.Check
	cleanup := func() {}

	store, err := newSessionStore(ctx, cfg, log, app, &checks, &cleanup)
	if err != nil {
		return nil, nil, err
	}

	limiter, err := ratelimiter.NewMemoryStore(cfg.RateLimit, ratelimiter.WithLogger(log))
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if cfg.RateLimit.CleanupInterval > 0 {
		app.AddWorker(limiter.Run)
	}
	checks = append(checks, limiter.Healthcheck)

	var signer *cookie.Signer
	if secrets := cfg.Cookie.SecretList(); len(secrets) > 0 {
		if signer, err = cookie.NewSigner(secrets...); err != nil {
			cleanup()
			return nil, nil, err
		}
	}

	metrics := middleware.NewMetrics(middleware.WithMetricsSkip(isProbe))

	app.AddMiddleware(
		middleware.RequestID(),
		middleware.ClientIP(),
		middleware.LoggingWithConfig(middleware.LoggingConfig{
			Logger: log,
			Skip:   isProbe,
		}),
		metrics,
		middleware.SecurityHeaders(),
		middleware.CORS(),
		middleware.BodyLimit(),
		middleware.RateLimit(middleware.RateLimitConfig{
			Limiter:    limiter,
			SetHeaders: true,
			Skip:       isProbe,
		}),
		middleware.SessionWithConfig(middleware.SessionConfig{
			Store:         store,
			CookieName:    cfg.Session.CookieName,
			Signer:        signer,
			CookieOptions: cfg.Cookie.Options(),
			Logger:        log,
		}),
	)

	app.Get("/", index, soloweb.Name("index"))
	app.Get("/health/live", health.Liveness)
	app.Get("/health/ready", health.Readiness(log, checks...))
	app.Get("/ping", health.NoContent)
	app.Get("/metrics", metrics.Handler())
	app.Get("/assets/<path:file>", static.FS(assets,
		static.WithSubFS("assets"),
		static.WithStripPrefix("/assets"),
	))

	app.ErrorHandler(http.StatusNotFound, func(req *request.Request, err error) *response.Response {
		if req.IsJSON() || strings.Contains(req.Header.Get("Accept"), "application/json") {
			return nil
		}
		return response.HTML(fmt.Sprintf("<h1>Not Found</h1><p>No page at %s. <a href=\"/\">Home</a></p>", req.Path), http.StatusNotFound)
	})

	users, err := newUserDirectory()
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	for _, bp := range []*soloweb.Blueprint{authBlueprint(users), usersBlueprint(users)} {
		if err := app.RegisterBlueprint(bp); err != nil {
			cleanup()
			return nil, nil, err
		}
	}

	return app, cleanup, nil
}

// newSessionStore builds the store selected by the session driver and
// registers its background work and health check.
func newSessionStore(ctx context.Context, cfg demoConfig, log *slog.Logger, app *soloweb.App, checks *[]health.Check, cleanup *func()) (session.Store, error) {
	switch strings.ToLower(cfg.Session.Driver) {
	case "", "memory":
		store := session.NewMemoryStore(append(cfg.Session.MemoryOptions(), session.WithLogger(log))...)
		if cfg.Session.CleanupInterval > 0 {
			app.AddWorker(store.Run)
		}
		return store, nil

	case "redis":
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		*checks = append(*checks, redis.Healthcheck(client))
		*cleanup = func() {
			if err := client.Close(); err != nil {
				log.Error("failed to close redis client", logger.Error(err))
			}
		}
		return session.NewRedisStore(client, cfg.Session.RedisOptions()...), nil

	default:
		return nil, fmt.Errorf("unknown session driver %q", cfg.Session.Driver)
	}
}

// isProbe excludes health, metrics and asset requests from logging, metrics and rate limiting.
func isProbe(req *request.Request) bool {
	return req.Path == "/ping" || req.Path == "/metrics" ||
		strings.HasPrefix(req.Path, "/health/") || strings.HasPrefix(req.Path, "/assets/")
}

func index(req *request.Request, _ router.Params) (*response.Response, error) {
	greeting := "Welcome, guest."
	if sess, ok := middleware.GetSession(req); ok {
		if name, ok := sess.Get("username"); ok {
			greeting = fmt.Sprintf("Welcome back, %v. <a href=\"/auth/logout\">Log out</a>", name)
		}
	}

	return response.HTML(`<link rel="stylesheet" href="/assets/style.css">
<h1>soloweb demo</h1>
<p>` + greeting + `</p>
<ul>
  <li><a href="/users">Users</a></li>
  <li><a href="/auth/login">Log in</a></li>
  <li><a href="/auth/me">Session</a></li>
  <li><a href="/health/ready">Readiness</a></li>
  <li><a href="/metrics">Metrics</a></li>
</ul>`), nil
}
