package router

import (
	"context"

	tg "github.com/m3rciful/bookbot/core/telegram"
	tghelpers "github.com/m3rciful/bookbot/core/telegram/helpers"
	"github.com/m3rciful/bookbot/core/telegram/middleware"
	"github.com/m3rciful/bookbot/core/telegram/ui"

	tele "gopkg.in/telebot.v4"
)

// FSM is the conversation engine as seen by the router.
type FSM interface {
	InProgress(ctx context.Context, userID int64) bool
	Handle(c tele.Context) error
}

// TextOptions wires fallbacks and the admin guard for alias commands.
type TextOptions struct {
	Fallback ui.FallbackProvider
	Admin    middleware.AdminOptions
}

func (o TextOptions) unknownText() tele.HandlerFunc {
	if o.Fallback == nil {
		return nil
	}
	return o.Fallback.UnknownText()
}

func (o TextOptions) unknownDocument() tele.HandlerFunc {
	if o.Fallback == nil {
		return nil
	}
	return o.Fallback.UnknownDocument()
}

// MessageRoutes routes text, photos, contacts and documents.
// Text resolves in order: command or menu alias, active flow, registry fallback, unknown text.
// Attachments go to the active flow or to the unknown document handler.
func MessageRoutes(fsm FSM, reg *tg.Registry, opts TextOptions) []tg.Route {
	inFlow := func(c tele.Context) bool {
		if fsm == nil {
			return false
		}
		return fsm.InProgress(tghelpers.BuildContext(c), tghelpers.SenderID(c))
	}

	text := func(c tele.Context) error {
		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok {
				return guard(key, cmd, opts.Admin)(c)
			}
		}
		if inFlow(c) {
			return handleWithSummary(c, "flow", func() error { return fsm.Handle(c) })
		}
		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", func() error { return fb(c) })
			}
		}
		if h := opts.unknownText(); h != nil {
			return handleWithSummary(c, "unknown_text", func() error { return h(c) })
		}
		logHandlerSummary(c, "unknown_text", middleware.UpdateStart(c), "skip", nil)
		return nil
	}

	attachment := func(name string) tele.HandlerFunc {
		return func(c tele.Context) error {
			if inFlow(c) {
				return handleWithSummary(c, "flow_"+name, func() error { return fsm.Handle(c) })
			}
			if h := opts.unknownDocument(); h != nil {
				return handleWithSummary(c, "unexpected_"+name, func() error { return h(c) })
			}
			logHandlerSummary(c, "unexpected_"+name, middleware.UpdateStart(c), "skip", nil)
			return nil
		}
	}

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: text},
		{Endpoint: tele.OnPhoto, Handler: attachment("photo")},
		{Endpoint: tele.OnContact, Handler: attachment("contact")},
		{Endpoint: tele.OnDocument, Handler: attachment("document")},
	}
}
