package telegram

import (
	"time"

	coreconfig "github.com/m3rciful/bookbot/core/config"
	"github.com/m3rciful/bookbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// DefaultMiddlewares builds the shared chain: recover, rate limit, logging, reply counters.
func DefaultMiddlewares(cfg *coreconfig.Config, onLimited tele.HandlerFunc) []Middleware {
	mws := []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
	}

	if cfg != nil && cfg.RateLimit.IntervalMS > 0 {
		ex := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
		for _, kind := range cfg.RateLimit.ExcludeUpdates {
			ex[kind] = struct{}{}
		}
		mws = append(mws, Middleware{
			Name: "rate_limit",
			Use: middleware.RateLimitMiddleware(middleware.RateLimitOptions{
				Interval:  time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond,
				Burst:     cfg.RateLimit.Burst,
				Idle:      time.Duration(cfg.RateLimit.IdleSeconds) * time.Second,
				Exclude:   ex,
				OnLimited: onLimited,
			}),
		})
	}

	return append(mws,
		Middleware{Name: "logger", Use: middleware.LoggerMiddleware},
		Middleware{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
	)
}
