package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/m3rciful/bookbot/core/logger"
	tghelpers "github.com/m3rciful/bookbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RecoverMiddleware turns handler panics into errors so one bad update cannot stop the bot.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
				logger.LogEvent(tghelpers.BuildContext(c), logger.TG, slog.LevelError, "tg.panic",
					slog.String("status", "fail"),
					logger.Err(err),
					slog.String("stack", string(debug.Stack())),
				)
			}
		}()
		return next(c)
	}
}
