package state

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisManager(t *testing.T, ttl time.Duration) (*RedisManager, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisManager(client, "test:session:", ttl), srv
}

func TestRedisManagerRoundTrip(t *testing.T) {
	ctx := context.Background()
	m, srv := newRedisManager(t, time.Hour)

	s, err := m.Get(ctx, 42)
	require.NoError(t, err)
	assert.False(t, s.Active())

	s.State = "reply:answer"
	s.TempData["dialog_id"] = "5"
	require.NoError(t, m.Save(ctx, 42, s))
	assert.True(t, srv.Exists("test:session:42"))

	got, err := m.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "reply:answer", got.State)
	assert.Equal(t, "5", got.TempData["dialog_id"])
	assert.False(t, got.UpdatedAt.IsZero())

	require.NoError(t, m.Clear(ctx, 42))
	assert.False(t, srv.Exists("test:session:42"))
	require.NoError(t, m.Ping(ctx))
}

func TestRedisManagerExpiry(t *testing.T) {
	ctx := context.Background()
	m, srv := newRedisManager(t, time.Minute)

	require.NoError(t, m.Save(ctx, 1, &Session{State: "text_edit:text"}))
	srv.FastForward(2 * time.Minute)

	s, err := m.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, s.Active())
}

func TestRedisManagerCorruptValue(t *testing.T) {
	ctx := context.Background()
	m, srv := newRedisManager(t, 0)
	require.NoError(t, srv.Set("test:session:9", "{not json"))

	_, err := m.Get(ctx, 9)
	assert.Error(t, err)
}
