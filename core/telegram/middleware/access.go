package middleware

import (
	"context"
	"log/slog"

	"github.com/m3rciful/bookbot/core/logger"
	tghelpers "github.com/m3rciful/bookbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// AdminOptions defines how admin-only checks should behave.
// IsAdmin is consulted on every call so admins added at runtime take effect at once.
type AdminOptions struct {
	IsAdmin  func(ctx context.Context, userID int64) bool
	OnReject tele.HandlerFunc
}

// AdminOnlyMiddleware ensures that only administrators can invoke downstream handlers.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		if opts.IsAdmin == nil {
			return next
		}
		return func(c tele.Context) error {
			ctx := tghelpers.BuildContext(c)
			userID := tghelpers.SenderID(c)
			if userID != 0 && opts.IsAdmin(ctx, userID) {
				return next(c)
			}
			logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "access.denied",
				slog.String("status", "skip"),
				slog.Int64("user_id", userID),
			)
			if opts.OnReject != nil {
				return opts.OnReject(c)
			}
			return nil
		}
	}
}
