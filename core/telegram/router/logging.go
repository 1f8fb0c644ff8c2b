package router

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/m3rciful/bookbot/core/logger"
	"github.com/m3rciful/bookbot/core/metrics"
	tghelpers "github.com/m3rciful/bookbot/core/telegram/helpers"
	"github.com/m3rciful/bookbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

func handleWithSummary(c tele.Context, handlerName string, fn func() error, extras ...slog.Attr) error {
	tghelpers.WithHandler(c, handlerName)
	err := fn()
	logHandlerSummary(c, handlerName, middleware.UpdateStart(c), "", err, extras...)
	return err
}

func logHandlerSummary(c tele.Context, handlerName string, start time.Time, statusOverride string, err error, extras ...slog.Attr) {
	if start.IsZero() {
		start = time.Now()
	}
	ctx := tghelpers.WithHandler(c, handlerName)
	msgs, kb := middleware.GetCounters(c)

	status := statusOverride
	switch {
	case status != "":
	case err != nil:
		status = "fail"
	default:
		status = "ok"
	}

	took := logger.Took(start)
	metrics.ObserveHandler(handlerName, status, took)

	attrs := []slog.Attr{
		slog.String("status", status),
		slog.String("handler", handlerName),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Duration("duration", took),
	}
	if err != nil {
		attrs = append(attrs,
			logger.Err(err),
			slog.String("err_code", deriveErrorCode(err)),
		)
	}
	attrs = append(attrs, extras...)

	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelWarn
	}
	logger.LogEvent(ctx, logger.TG, level, "handler.handled", attrs...)
}

func normalizeHandlerName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unknown"
	}
	name = strings.TrimPrefix(name, "/")
	name = strings.ReplaceAll(name, " ", "_")
	return strings.ToLower(name)
}

// deriveErrorCode prefers an explicit Code() anywhere in the chain and falls
// back to the outermost error type name.
func deriveErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var coder interface{ Code() string }
	if errors.As(err, &coder) {
		if code := strings.TrimSpace(coder.Code()); code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t != nil && t.Name() != "" {
		return strings.ToUpper(t.Name())
	}
	return "UNKNOWN_ERROR"
}
