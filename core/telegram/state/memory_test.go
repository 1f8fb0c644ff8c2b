package state

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestMemoryManagerRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryManager(0)

	s, err := m.Get(ctx, 7)
	require.NoError(t, err)
	assert.False(t, s.Active())

	s.State = "order:address"
	s.TempData["full_name"] = "Ivan Petrov"
	require.NoError(t, m.Save(ctx, 7, s))

	got, err := m.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "order:address", got.State)
	assert.Equal(t, "Ivan Petrov", got.TempData["full_name"])

	// Mutating the returned copy must not leak into the store.
	got.TempData["full_name"] = "changed"
	again, _ := m.Get(ctx, 7)
	assert.Equal(t, "Ivan Petrov", again.TempData["full_name"])

	require.NoError(t, m.Clear(ctx, 7))
	cleared, _ := m.Get(ctx, 7)
	assert.False(t, cleared.Active())
}

func TestMemoryManagerExpiresIdleSessions(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := newMemoryManager(time.Hour, clock.now)

	require.NoError(t, m.Save(ctx, 1, &Session{State: "book_create:price"}))

	clock.t = clock.t.Add(59 * time.Minute)
	s, err := m.Get(ctx, 1)
	require.NoError(t, err)
	assert.True(t, s.Active())

	clock.t = clock.t.Add(2 * time.Minute)
	s, err = m.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, s.Active())
	assert.Equal(t, 0, m.size())
}

func TestMemoryManagerSweep(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := newMemoryManager(time.Minute, clock.now)

	require.NoError(t, m.Save(ctx, 1, &Session{State: "question:target"}))
	clock.t = clock.t.Add(time.Hour)
	for i := 0; i < sweepEvery; i++ {
		_, _ = m.Get(ctx, 2)
	}
	assert.Equal(t, 0, m.size())
}
