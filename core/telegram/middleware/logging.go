package middleware

import (
	"log/slog"
	"time"

	"github.com/m3rciful/bookbot/core/config"
	"github.com/m3rciful/bookbot/core/logger"
	"github.com/m3rciful/bookbot/core/metrics"
	"github.com/m3rciful/bookbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/bookbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

const updateStartKey = "update_start"

// UpdateKind classifies an update for rate limit exclusions and metrics.
func UpdateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return config.UpdateCallback
	case upd.Message != nil:
		return config.UpdateMessage
	case upd.Query != nil:
		return config.UpdateInlineQuery
	}
	return "other"
}

// LoggerMiddleware builds the update-scoped context and logs one receipt line per update.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		upd := c.Update()
		c.Set(updateStartKey, time.Now())
		ctx := tghelpers.BuildContext(c)

		kind := UpdateKind(upd)
		metrics.ObserveUpdate(kind)

		if logger.ShouldSampleDebug() {
			attrs := []slog.Attr{
				slog.String("status", "ok"),
				slog.String("kind", kind),
			}
			if chat := c.Chat(); chat != nil {
				attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
			}
			if user := c.Sender(); user != nil {
				if user.Username != "" {
					attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
				}
				if user.LanguageCode != "" {
					attrs = append(attrs, slog.String("lang", user.LanguageCode))
				}
			}

			switch {
			case upd.Callback != nil:
				key, payload := callbacks.ParseCallbackData(upd.Callback)
				if key != "" {
					attrs = append(attrs, slog.String("cb_key", logger.SanitizeLimit(key, 128)))
				}
				if payload != "" {
					attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(payload, 256)))
				}
			case upd.Message != nil:
				if t := c.Text(); t != "" {
					attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
				}
				if upd.Message.Photo != nil {
					attrs = append(attrs, slog.Bool("photo", true))
				}
				if upd.Message.Contact != nil {
					attrs = append(attrs, slog.Bool("contact", true))
				}
			}
			logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "update.received", attrs...)
		}

		return next(c)
	}
}

// UpdateStart returns when LoggerMiddleware saw the update, or the zero time.
func UpdateStart(c tele.Context) time.Time {
	t, _ := c.Get(updateStartKey).(time.Time)
	return t
}
