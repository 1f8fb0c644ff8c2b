package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/bookbot/core/telegram/teletest"

	tele "gopkg.in/telebot.v4"
)

func TestUserLimiterBurstAndRefill(t *testing.T) {
	lim := newUserLimiter(RateLimitOptions{Interval: time.Second, Burst: 2})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, lim.allow(1, now))
	assert.True(t, lim.allow(1, now))
	assert.False(t, lim.allow(1, now))
	assert.True(t, lim.allow(2, now), "buckets are per user")

	assert.True(t, lim.allow(1, now.Add(time.Second)))
}

func TestUserLimiterEvictsIdleBuckets(t *testing.T) {
	lim := newUserLimiter(RateLimitOptions{Interval: time.Second, Idle: time.Minute})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	lim.allow(1, now)

	later := now.Add(time.Hour)
	for i := 0; i < gcEvery; i++ {
		lim.allow(2, later)
	}
	assert.Equal(t, 1, lim.size())
}

func TestRateLimitMiddlewareSkipsExcludedKinds(t *testing.T) {
	limited := 0
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Hour,
		Exclude:   map[string]struct{}{"callback": {}},
		OnLimited: func(tele.Context) error { limited++; return nil },
	})
	calls := 0
	h := mw(func(tele.Context) error { calls++; return nil })

	for i := 0; i < 3; i++ {
		require.NoError(t, h(teletest.Callback(t, 5, "book_show", "1")))
	}
	assert.Equal(t, 3, calls)

	require.NoError(t, h(teletest.Text(t, 5, "hi")))
	require.NoError(t, h(teletest.Text(t, 5, "hi again")))
	assert.Equal(t, 4, calls)
	assert.Equal(t, 1, limited)
}

func TestAdminOnlyMiddleware(t *testing.T) {
	rejected := 0
	mw := AdminOnlyMiddleware(AdminOptions{
		IsAdmin:  func(_ context.Context, id int64) bool { return id == 100 },
		OnReject: func(tele.Context) error { rejected++; return nil },
	})
	calls := 0
	h := mw(func(tele.Context) error { calls++; return nil })

	require.NoError(t, h(teletest.Text(t, 100, "/admin")))
	require.NoError(t, h(teletest.Text(t, 7, "/admin")))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, rejected)
}

func TestRecoverMiddlewareReturnsError(t *testing.T) {
	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })
	err := h(teletest.Text(t, 1, "x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	want := errors.New("plain")
	assert.ErrorIs(t, RecoverMiddleware(func(tele.Context) error { return want })(teletest.Text(t, 1, "x")), want)
}

func TestMessageMetricsMiddlewareCounts(t *testing.T) {
	c := teletest.Text(t, 1, "/start")
	h := MessageMetricsMiddleware(func(c tele.Context) error {
		if err := c.Send("hello"); err != nil {
			return err
		}
		return c.Send("menu", &tele.SendOptions{ReplyMarkup: &tele.ReplyMarkup{}})
	})
	require.NoError(t, h(c))

	msgs, kb := GetCounters(c)
	assert.Equal(t, 2, msgs)
	assert.True(t, kb)
}

func TestLoggerMiddlewareStampsStart(t *testing.T) {
	c := teletest.Callback(t, 3, "order_show", "9")
	require.NoError(t, LoggerMiddleware(func(tele.Context) error { return nil })(c))
	assert.False(t, UpdateStart(c).IsZero())
	assert.Equal(t, "callback", UpdateKind(c.Update()))
}
