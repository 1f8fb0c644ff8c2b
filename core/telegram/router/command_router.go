package router

import (
	"context"
	"log/slog"

	"github.com/m3rciful/bookbot/core/logger"
	tg "github.com/m3rciful/bookbot/core/telegram"
	"github.com/m3rciful/bookbot/core/telegram/commands"
	"github.com/m3rciful/bookbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures how commands are guarded.
type CommandRouteOptions struct {
	Admin middleware.AdminOptions
}

func guard(name string, def commands.Command, admin middleware.AdminOptions) tele.HandlerFunc {
	h := def.Handler
	if def.AdminOnly {
		h = middleware.AdminOnlyMiddleware(admin)(h)
	}
	handlerName := normalizeHandlerName(name)
	return func(c tele.Context) error {
		return handleWithSummary(c, handlerName, func() error { return h(c) })
	}
}

// CommandRoutes binds every registered slash command to its guarded handler.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}
	cmds := reg.Commands()
	routes := make([]tg.Route, 0, len(cmds))
	for name, def := range cmds {
		routes = append(routes, tg.Route{Endpoint: name, Handler: guard(name, def, opts.Admin)})
	}

	logger.LogEvent(context.Background(), logger.TWire, slog.LevelInfo, "tg.wire",
		slog.String("status", "ok"),
		slog.Int("commands", len(cmds)),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)
	return routes
}
