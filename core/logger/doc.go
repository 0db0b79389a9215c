// Package logger builds slog loggers and provides attribute helpers for the
// keys used across the module.
//
//	log := logger.New(logger.WithDevelopment("soloweb"))
//	log := logger.New(logger.WithProduction("soloweb"))
//	log := logger.New(logger.WithConfig(cfg)) // LOG_LEVEL, LOG_FORMAT
//
//	log.Info("request completed",
//		logger.Method(req.Method),
//		logger.Path(req.Path),
//		logger.StatusCode(resp.Status),
//		logger.Latency(time.Since(start)),
//		logger.Error(err), // empty attr when err is nil
//	)
package logger
