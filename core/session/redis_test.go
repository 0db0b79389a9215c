package session_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/soloweb/core/session"
)

func newRedisStore(t *testing.T, opts ...session.RedisOption) *session.RedisStore {
	t.Helper()

	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}

	o, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(o)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())

	prefix := "soloweb-test:" + t.Name() + ":"
	return session.NewRedisStore(client, append([]session.RedisOption{session.WithKeyPrefix(prefix)}, opts...)...)
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	store := newRedisStore(t, session.WithRedisTTL(time.Minute))

	id, err := store.Create(ctx, session.Data{"name": "alice"})
	require.NoError(t, err)

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, session.Data{"name": "alice"}, got)

	require.NoError(t, store.Update(ctx, id, session.Data{"name": "bob"}))
	got, err = store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, session.Data{"name": "bob"}, got)

	require.NoError(t, store.Update(ctx, "missing", session.Data{"x": 1}))
	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, session.ErrNotFound)

	require.NoError(t, store.Delete(ctx, id))
	require.NoError(t, store.Delete(ctx, id))
	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestRedisStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	clock := func() time.Time { return now }
	store := newRedisStore(t, session.WithRedisTTL(time.Minute), session.WithRedisClock(clock))

	id, err := store.Create(ctx, session.Data{"a": 1.0})
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, session.ErrNotFound)
}
