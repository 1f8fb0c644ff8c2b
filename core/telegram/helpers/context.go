package helpers

import (
	"context"

	"github.com/m3rciful/bookbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

const (
	contextKey = "logger_ctx"
	ridKey     = "rid"
)

// StoreContext attaches ctx to the update so later helpers reuse it.
func StoreContext(c tele.Context, ctx context.Context) {
	if c == nil || ctx == nil {
		return
	}
	c.Set(contextKey, ctx)
}

// ContextFrom returns the context stored by StoreContext.
func ContextFrom(c tele.Context) (context.Context, bool) {
	if c == nil {
		return nil, false
	}
	ctx, ok := c.Get(contextKey).(context.Context)
	return ctx, ok
}

// SenderID returns the acting user id or 0 for updates without a sender.
func SenderID(c tele.Context) int64 {
	if u := c.Sender(); u != nil {
		return u.ID
	}
	return 0
}

// BuildContext returns the update-scoped context carrying rid, update, user and chat ids.
func BuildContext(c tele.Context) context.Context {
	if cached, ok := ContextFrom(c); ok {
		return cached
	}

	var chatID int64
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	userID := SenderID(c)
	updateID := c.Update().ID

	rid, _ := c.Get(ridKey).(string)
	if rid == "" {
		rid = logger.BuildRID(updateID, chatID, userID)
		c.Set(ridKey, rid)
	}

	ctx := logger.WithRID(context.Background(), rid)
	ctx = logger.WithUpdateMeta(ctx, updateID, userID, chatID)
	ctx = logger.WithLogger(ctx, logger.TG)
	StoreContext(c, ctx)
	return ctx
}

// WithHandler records handler on the stored context.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler == "" {
		return ctx
	}
	ctx = logger.WithHandler(ctx, handler)
	StoreContext(c, ctx)
	return ctx
}
