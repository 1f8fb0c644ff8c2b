package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode"
)

type contextKey string

const (
	ctxRID      contextKey = "rid"
	ctxUpdateID contextKey = "update_id"
	ctxUserID   contextKey = "user_id"
	ctxChatID   contextKey = "chat_id"
	ctxLogger   contextKey = "logger"
	ctxHandler  contextKey = "handler"
)

func ctxValue[T any](ctx context.Context, key contextKey) (T, bool) {
	var zero T
	if ctx == nil {
		return zero, false
	}
	v, ok := ctx.Value(key).(T)
	return v, ok
}

func ensure(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// WithLogger stores log in ctx for downstream layers.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	ctx = ensure(ctx)
	if log == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxLogger, log)
}

// FromContext returns the logger stored in ctx or the root logger.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctxValue[*slog.Logger](ctx, ctxLogger); ok && l != nil {
		return l
	}
	return L
}

// WithRID attaches a request correlation id.
func WithRID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ensure(ctx), ctxRID, rid)
}

// RIDFrom extracts the correlation id, if any.
func RIDFrom(ctx context.Context) string {
	rid, _ := ctxValue[string](ctx, ctxRID)
	return rid
}

// WithUpdateMeta attaches update, user and chat identifiers.
func WithUpdateMeta(ctx context.Context, updateID int, userID, chatID int64) context.Context {
	ctx = ensure(ctx)
	ctx = context.WithValue(ctx, ctxUpdateID, updateID)
	ctx = context.WithValue(ctx, ctxUserID, userID)
	return context.WithValue(ctx, ctxChatID, chatID)
}

// WithHandler records the handler name for downstream logs.
func WithHandler(ctx context.Context, handler string) context.Context {
	ctx = ensure(ctx)
	if handler == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxHandler, handler)
}

// HandlerFrom returns the handler name, if any.
func HandlerFrom(ctx context.Context) string {
	h, _ := ctxValue[string](ctx, ctxHandler)
	return h
}

// UserIDFrom returns the Telegram user id carried by ctx.
func UserIDFrom(ctx context.Context) int64 {
	id, _ := ctxValue[int64](ctx, ctxUserID)
	return id
}

// ChatIDFrom returns the chat id carried by ctx.
func ChatIDFrom(ctx context.Context) int64 {
	id, _ := ctxValue[int64](ctx, ctxChatID)
	return id
}

// UpdateIDFrom returns the update id carried by ctx.
func UpdateIDFrom(ctx context.Context) int {
	id, _ := ctxValue[int](ctx, ctxUpdateID)
	return id
}

// Sanitize drops control and format runes except tab and newline.
func Sanitize(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\t' {
			b.WriteRune(r)
			continue
		}
		if unicode.IsControl(r) || unicode.Is(unicode.Cf, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SanitizeLimit applies Sanitize and truncates to max runes.
func SanitizeLimit(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(Sanitize(s))
	if len(r) <= max {
		return string(r)
	}
	return string(r[:max])
}

// BuildRID formats a correlation id as updateID:chatID:userID.
func BuildRID(updateID int, chatID, userID int64) string {
	return fmt.Sprintf("%d:%d:%d", updateID, chatID, userID)
}

// CompactRID rewrites a BuildRID value as dot-separated base36 segments.
// Anything else is returned unchanged.
func CompactRID(rid string) string {
	rid = strings.TrimSpace(rid)
	parts := strings.Split(rid, ":")
	if len(parts) != 3 {
		return rid
	}
	for i, part := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return rid
		}
		parts[i] = strconv.FormatInt(n, 36)
	}
	return strings.Join(parts, ".")
}
