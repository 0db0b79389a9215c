package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory.
//
// Expired sessions are removed lazily when read. A background sweep that
// removes them proactively can be run with Start or Run.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	ttl             time.Duration
	cleanupInterval time.Duration
	shutdownTimeout time.Duration
	now             func() time.Time
	logger          *slog.Logger

	// sweeper state
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithTTL sets the session time-to-live. Non-positive values are ignored.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithCleanupInterval sets the sweep interval. Zero disables Start.
func WithCleanupInterval(interval time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		s.cleanupInterval = interval
	}
}

// WithShutdownTimeout bounds how long Stop waits for an in-progress sweep.
func WithShutdownTimeout(timeout time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		if timeout > 0 {
			s.shutdownTimeout = timeout
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger for sweep diagnostics.
func WithLogger(logger *slog.Logger) MemoryOption {
	return func(s *MemoryStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		sessions:        make(map[string]*Session),
		ttl:             DefaultTTL,
		cleanupInterval: DefaultCleanupInterval,
		shutdownTimeout: 30 * time.Second,
		now:             time.Now,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Create stores a copy of data under a new random token.
func (s *MemoryStore) Create(ctx context.Context, data Data) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for range maxTokenAttempts {
		id, err := generateToken()
		if err != nil {
			return "", err
		}
		if _, exists := s.sessions[id]; exists {
			continue
		}

		now := s.now()
		s.sessions[id] = &Session{
			ID:        id,
			Data:      data.Clone(),
			CreatedAt: now,
			ExpiresAt: now.Add(s.ttl),
		}
		return id, nil
	}

	return "", fmt.Errorf("%w: token collision after %d attempts", ErrTokenGeneration, maxTokenAttempts)
}

// Get returns a copy of the payload. Expired sessions are deleted and
// reported as ErrNotFound.
func (s *MemoryStore) Get(ctx context.Context, id string) (Data, error) {
	sess, err := s.Session(ctx, id)
	if err != nil {
		return nil, err
	}
	return sess.Data, nil
}

// Session returns a copy of the stored session including its timestamps.
func (s *MemoryStore) Session(ctx context.Context, id string) (Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	if ok && !sess.IsExpired(s.now()) {
		out := *sess
		out.Data = sess.Data.Clone()
		s.mu.RUnlock()
		return out, nil
	}
	s.mu.RUnlock()

	if !ok {
		return Session{}, ErrNotFound
	}

	s.mu.Lock()
	// Re-check under the write lock; an Update may have refreshed it meanwhile.
	if cur, ok := s.sessions[id]; ok && cur.IsExpired(s.now()) {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	return Session{}, ErrNotFound
}

// Update replaces the payload and pushes the expiry to now + TTL.
// Unknown and expired ids are ignored.
func (s *MemoryStore) Update(ctx context.Context, id string, data Data) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}

	now := s.now()
	if sess.IsExpired(now) {
		delete(s.sessions, id)
		return nil
	}

	sess.Data = data.Clone()
	sess.ExpiresAt = now.Add(s.ttl)
	return nil
}

// Delete removes the session. It is idempotent.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

// DeleteExpired removes all expired sessions and returns how many were removed.
func (s *MemoryStore) DeleteExpired(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, sess := range s.sessions {
		if sess.IsExpired(now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored sessions, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Start runs the periodic sweep until ctx is cancelled or Stop is called.
// It blocks; use Run for errgroup integration.
func (s *MemoryStore) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	if s.cleanupInterval <= 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w, got %v", ErrSweepDisabled, s.cleanupInterval)
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "session sweep started",
		slog.Duration("cleanup_interval", s.cleanupInterval))

	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(context.Background(), "session sweep stopping")
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// Stop cancels the sweep and waits for an in-progress pass to finish.
func (s *MemoryStore) Stop() error {
	s.mu.Lock()
	if s.cancel == nil {
		s.mu.Unlock()
		return ErrNotStarted
	}
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(s.shutdownTimeout):
		return fmt.Errorf("session sweep shutdown timeout exceeded after %s", s.shutdownTimeout)
	}
}

// Run returns a function for errgroup that runs the sweep and stops it when
// ctx is cancelled.
func (s *MemoryStore) Run(ctx context.Context) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- s.Start(ctx)
		}()

		select {
		case <-ctx.Done():
			_ = s.Stop()
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

func (s *MemoryStore) sweep(ctx context.Context) {
	s.wg.Add(1)
	defer s.wg.Done()

	removed, _ := s.DeleteExpired(ctx)
	if removed > 0 {
		s.logger.DebugContext(ctx, "expired sessions removed", slog.Int("count", removed))
	}
}
