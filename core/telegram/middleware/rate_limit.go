package middleware

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/m3rciful/bookbot/core/logger"
	"github.com/m3rciful/bookbot/core/metrics"
	tghelpers "github.com/m3rciful/bookbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

const gcEvery = 5000

// RateLimitOptions configures the per-user token bucket.
// Interval is the refill period of one token; Burst bounds consecutive updates.
// Buckets idle for longer than Idle are evicted.
type RateLimitOptions struct {
	Interval  time.Duration
	Burst     int
	Idle      time.Duration
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type userLimiter struct {
	every rate.Limit
	burst int
	idle  time.Duration

	mu       sync.Mutex
	visitors map[int64]*visitor
	lookups  int
}

func newUserLimiter(opts RateLimitOptions) *userLimiter {
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	idle := opts.Idle
	if idle <= 0 {
		idle = 10 * time.Minute
	}
	return &userLimiter{
		every:    rate.Every(opts.Interval),
		burst:    burst,
		idle:     idle,
		visitors: make(map[int64]*visitor),
	}
}

// allow consumes one token for userID. Idle buckets are evicted before the
// lookup so a stale bucket is never refreshed.
func (l *userLimiter) allow(userID int64, now time.Time) bool {
	l.mu.Lock()
	l.lookups++
	if l.lookups >= gcEvery {
		for id, v := range l.visitors {
			if now.Sub(v.lastSeen) >= l.idle {
				delete(l.visitors, id)
			}
		}
		l.lookups = 0
	}

	v, ok := l.visitors[userID]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.every, l.burst)}
		l.visitors[userID] = v
	}
	v.lastSeen = now
	lim := v.limiter
	l.mu.Unlock()

	return lim.AllowN(now, 1)
}

func (l *userLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// RateLimitMiddleware drops updates from users that exceed their token bucket.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	lim := newUserLimiter(opts)
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			if _, skip := opts.Exclude[UpdateKind(c.Update())]; skip {
				return next(c)
			}
			if lim.allow(user.ID, time.Now()) {
				return next(c)
			}

			metrics.IncRateLimited()
			logger.LogEvent(tghelpers.BuildContext(c), logger.TG, slog.LevelWarn, "tg.rate_limit",
				slog.String("status", "skip"),
			)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}
