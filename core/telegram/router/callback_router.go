package router

import (
	"log/slog"

	tg "github.com/m3rciful/bookbot/core/telegram"
	"github.com/m3rciful/bookbot/core/telegram/callbacks"
	"github.com/m3rciful/bookbot/core/telegram/ui"

	tele "gopkg.in/telebot.v4"
)

// CallbackRoute routes button presses to handlers registered by unique key.
func CallbackRoute(reg *tg.Registry, fallback ui.FallbackProvider) tg.Route {
	handler := func(c tele.Context) error {
		cb := c.Callback()
		if cb == nil {
			return nil
		}
		key, _ := callbacks.ParseCallbackData(cb)
		name := "callback." + normalizeHandlerName(key)
		extras := []slog.Attr{slog.String("cb_key", key)}

		// Stops the client spinner; handlers reply with messages instead of alerts.
		_ = c.Respond()

		if h, ok := reg.GetCallback(key); ok {
			return handleWithSummary(c, name, func() error { return h(c) }, extras...)
		}

		notFound := reg.CallbackNotFound()
		if fallback != nil && fallback.UnknownCallback() != nil {
			notFound = fallback.UnknownCallback()
		}
		extras = append(extras, slog.String("reason", "not_found"))
		return handleWithSummary(c, name, func() error {
			if notFound == nil {
				return nil
			}
			return notFound(c)
		}, extras...)
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: handler}
}
