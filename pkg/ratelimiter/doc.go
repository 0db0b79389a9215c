// Package ratelimiter provides per-key token bucket rate limiting backed by
// golang.org/x/time/rate.
//
// Every key gets its own bucket of Config.Burst tokens refilled at
// Config.Rate tokens per second. A call that cannot be served is denied
// without consuming tokens, and the Result reports when to retry.
//
// # Usage
//
//	store, err := ratelimiter.NewMemoryStore(ratelimiter.Config{
//		Rate:            5,
//		Burst:           10,
//		IdleTTL:         time.Hour,
//		CleanupInterval: 5 * time.Minute,
//	})
//	if err != nil {
//		return err
//	}
//
//	res, err := store.Allow(ctx, clientIP)
//	if err != nil {
//		return err
//	}
//	if !res.Allowed() {
//		log.Printf("rate limited, retry after %s", res.RetryAfter())
//	}
//
// # Cleanup
//
// Keys idle for longer than IdleTTL are dropped by a background loop. Start
// blocks until Stop is called; Run wraps both for errgroup:
//
//	g.Go(store.Run(ctx))
//
// RemoveIdle performs one pass synchronously. Stats and Healthcheck expose
// counters and the loop state for monitoring.
package ratelimiter
