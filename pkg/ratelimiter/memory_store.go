package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// MemoryStore keeps one token bucket per key in process memory.
// Keys idle for longer than Config.IdleTTL are dropped by the background
// cleanup started with Start or Run.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*entry

	cfg             Config
	shutdownTimeout time.Duration
	now             func() time.Time
	logger          *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup

	keysCreated atomic.Int64
	keysRemoved atomic.Int64
	denied      atomic.Int64
}

// MemoryStoreStats holds runtime counters.
type MemoryStoreStats struct {
	KeysCreated int64
	KeysRemoved int64
	Denied      int64
	ActiveKeys  int
	IsRunning   bool
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithShutdownTimeout bounds how long Stop waits for an in-progress cleanup.
func WithShutdownTimeout(timeout time.Duration) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if timeout > 0 {
			ms.shutdownTimeout = timeout
		}
	}
}

// WithLogger sets the logger for cleanup diagnostics.
func WithLogger(logger *slog.Logger) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if logger != nil {
			ms.logger = logger
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if now != nil {
			ms.now = now
		}
	}
}

// NewMemoryStore creates a store for the given limits.
func NewMemoryStore(cfg Config, opts ...MemoryStoreOption) (*MemoryStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultIdleTTL
	}

	ms := &MemoryStore{
		entries:         make(map[string]*entry),
		cfg:             cfg,
		shutdownTimeout: 30 * time.Second,
		now:             time.Now,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(ms)
	}

	return ms, nil
}

// Allow takes one token for key.
func (ms *MemoryStore) Allow(ctx context.Context, key string) (*Result, error) {
	return ms.AllowN(ctx, key, 1)
}

// AllowN takes n tokens for key. A denied call consumes nothing.
func (ms *MemoryStore) AllowN(ctx context.Context, key string, n int) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Join(ErrContextCancelled, err)
	}
	if n <= 0 || n > ms.cfg.Burst {
		return nil, fmt.Errorf("%w: %d (burst %d)", ErrInvalidTokenCount, n, ms.cfg.Burst)
	}

	now := ms.now()
	lim := ms.limiter(key, now)

	res := &Result{Limit: ms.cfg.Burst}
	if lim.AllowN(now, n) {
		tokens := lim.TokensAt(now)
		res.Remaining = wholeTokens(tokens)
		res.ResetAt = now.Add(ms.refillTime(float64(ms.cfg.Burst) - tokens))
		return res, nil
	}

	ms.denied.Add(1)
	tokens := lim.TokensAt(now)
	wait := max(ms.refillTime(float64(n)-tokens), time.Nanosecond)
	res.Remaining = wholeTokens(tokens)
	res.ResetAt = now.Add(wait)
	res.retryAfter = wait
	return res, nil
}

// Reset drops the bucket for key, so the next call starts full.
func (ms *MemoryStore) Reset(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return errors.Join(ErrContextCancelled, err)
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.entries, key)
	return nil
}

func (ms *MemoryStore) limiter(key string, now time.Time) *rate.Limiter {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	e, ok := ms.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(rate.Limit(ms.cfg.Rate), ms.cfg.Burst)}
		ms.entries[key] = e
		ms.keysCreated.Add(1)
	}
	e.lastAccess = now
	return e.limiter
}

func (ms *MemoryStore) refillTime(tokens float64) time.Duration {
	if tokens <= 0 {
		return 0
	}
	return time.Duration(math.Ceil(tokens / ms.cfg.Rate * float64(time.Second)))
}

func wholeTokens(tokens float64) int {
	if tokens < 0 {
		return 0
	}
	return int(math.Floor(tokens))
}

// Start runs the periodic cleanup until ctx is cancelled or Stop is called.
// It blocks; use Run for errgroup integration.
func (ms *MemoryStore) Start(ctx context.Context) error {
	ms.mu.Lock()
	if ms.cancel != nil {
		ms.mu.Unlock()
		return ErrAlreadyStarted
	}
	if ms.cfg.CleanupInterval <= 0 {
		ms.mu.Unlock()
		return fmt.Errorf("%w: cleanup interval must be > 0, got %v", ErrInvalidConfig, ms.cfg.CleanupInterval)
	}

	ctx, cancel := context.WithCancel(ctx)
	ms.cancel = cancel
	ms.mu.Unlock()

	ms.logger.InfoContext(ctx, "rate limiter cleanup started",
		slog.Duration("cleanup_interval", ms.cfg.CleanupInterval),
		slog.Duration("idle_ttl", ms.cfg.IdleTTL))

	ticker := time.NewTicker(ms.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			ms.logger.InfoContext(context.Background(), "rate limiter cleanup stopping")
			return ctx.Err()
		case <-ticker.C:
			ms.cleanupWithWait()
		}
	}
}

// Stop cancels the cleanup and waits for an in-progress pass to finish.
func (ms *MemoryStore) Stop() error {
	ms.mu.Lock()
	if ms.cancel == nil {
		ms.mu.Unlock()
		return ErrNotStarted
	}
	cancel := ms.cancel
	ms.cancel = nil
	ms.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		ms.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(ms.shutdownTimeout):
		ms.logger.Warn("rate limiter shutdown timeout exceeded",
			slog.Duration("timeout", ms.shutdownTimeout))
		return fmt.Errorf("shutdown timeout exceeded after %s", ms.shutdownTimeout)
	}
}

// Run provides errgroup compatibility for coordinated lifecycle management.
func (ms *MemoryStore) Run(ctx context.Context) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- ms.Start(ctx)
		}()

		select {
		case <-ctx.Done():
			_ = ms.Stop()
			<-errCh
			return nil
		case err := <-errCh:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

func (ms *MemoryStore) cleanupWithWait() {
	ms.wg.Add(1)
	defer ms.wg.Done()

	if removed := ms.RemoveIdle(); removed > 0 {
		ms.logger.Debug("idle rate limit keys removed", slog.Int("count", removed))
	}
}

// RemoveIdle drops keys not used within the idle TTL and returns how many
// were removed.
func (ms *MemoryStore) RemoveIdle() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	removed := 0
	for key, e := range ms.entries {
		if now.Sub(e.lastAccess) > ms.cfg.IdleTTL {
			delete(ms.entries, key)
			removed++
		}
	}

	ms.keysRemoved.Add(int64(removed))
	return removed
}

// Stats returns current counters. Safe for concurrent use.
func (ms *MemoryStore) Stats() MemoryStoreStats {
	ms.mu.RLock()
	running := ms.cancel != nil
	active := len(ms.entries)
	ms.mu.RUnlock()

	return MemoryStoreStats{
		KeysCreated: ms.keysCreated.Load(),
		KeysRemoved: ms.keysRemoved.Load(),
		Denied:      ms.denied.Load(),
		ActiveKeys:  active,
		IsRunning:   running,
	}
}

// Healthcheck fails when cleanup is configured but not running.
func (ms *MemoryStore) Healthcheck(ctx context.Context) error {
	if ms.cfg.CleanupInterval > 0 && !ms.Stats().IsRunning {
		return fmt.Errorf("rate limiter cleanup is configured but not running")
	}
	return nil
}
