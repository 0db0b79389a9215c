package health

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/soloweb"
	"github.com/dmitrymomot/soloweb/core/logger"
	"github.com/dmitrymomot/soloweb/core/request"
	"github.com/dmitrymomot/soloweb/core/response"
	"github.com/dmitrymomot/soloweb/core/router"
)

// Check reports whether one dependency is usable.
type Check func(ctx context.Context) error

// Liveness reports that the process is up. Always "ALIVE" with 200 OK.
func Liveness(*request.Request, router.Params) (*response.Response, error) {
	return response.Text("ALIVE"), nil
}

// NoContent answers 204 without a body, for high-frequency probes.
func NoContent(*request.Request, router.Params) (*response.Response, error) {
	return response.NoContent(), nil
}

// Readiness runs every check in order and answers "READY" when all pass.
// The first failure is logged and answered with 503.
func Readiness(log *slog.Logger, checks ...Check) soloweb.HandlerFunc {
	if log == nil {
		log = logger.Discard()
	}
	return func(req *request.Request, _ router.Params) (*response.Response, error) {
		ctx := req.Context()
		for _, check := range checks {
			if err := check(ctx); err != nil {
				log.ErrorContext(ctx, "readiness check failed", logger.Error(err))
				return nil, response.ErrServiceUnavailable
			}
		}
		return response.Text("READY"), nil
	}
}
