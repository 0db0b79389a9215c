package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions in Redis as JSON documents. Expiry is enforced by
// Redis key TTLs, so no sweep is needed.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithRedisTTL sets the session time-to-live. Non-positive values are ignored.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithKeyPrefix sets the prefix prepended to every session key.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// WithRedisClock replaces time.Now for the stored timestamps.
func WithRedisClock(now func() time.Time) RedisOption {
	return func(s *RedisStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewRedisStore creates a store on top of an existing client.
func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: client,
		prefix: DefaultRedisPrefix,
		ttl:    DefaultTTL,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Create stores data under a new token with SET NX so an existing key is
// never overwritten.
func (s *RedisStore) Create(ctx context.Context, data Data) (string, error) {
	now := s.now()
	payload, err := json.Marshal(Session{
		Data:      data.Clone(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	})
	if err != nil {
		return "", errors.Join(ErrSaveSession, err)
	}

	for range maxTokenAttempts {
		id, err := generateToken()
		if err != nil {
			return "", err
		}

		ok, err := s.client.SetNX(ctx, s.key(id), payload, s.ttl).Result()
		if err != nil {
			return "", errors.Join(ErrSaveSession, err)
		}
		if ok {
			return id, nil
		}
	}

	return "", fmt.Errorf("%w: token collision after %d attempts", ErrTokenGeneration, maxTokenAttempts)
}

// Get returns the payload, or ErrNotFound when the key is gone.
func (s *RedisStore) Get(ctx context.Context, id string) (Data, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return sess.Data, nil
}

// Update rewrites the payload with SET XX, which leaves missing keys alone.
func (s *RedisStore) Update(ctx context.Context, id string, data Data) error {
	sess, err := s.load(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	sess.Data = data.Clone()
	sess.ExpiresAt = s.now().Add(s.ttl)

	payload, err := json.Marshal(sess)
	if err != nil {
		return errors.Join(ErrSaveSession, err)
	}

	if err := s.client.SetXX(ctx, s.key(id), payload, s.ttl).Err(); err != nil {
		return errors.Join(ErrSaveSession, err)
	}
	return nil
}

// Delete removes the key. Missing keys are not an error.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return errors.Join(ErrDeleteSession, err)
	}
	return nil
}

func (s *RedisStore) load(ctx context.Context, id string) (Session, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("session: redis get: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return Session{}, fmt.Errorf("session: decode %q: %w", id, err)
	}
	if sess.IsExpired(s.now()) {
		return Session{}, ErrNotFound
	}
	if sess.Data == nil {
		sess.Data = Data{}
	}
	sess.ID = id
	return sess, nil
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}
