package ui

import (
	tghelpers "github.com/m3rciful/bookbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// FallbackProvider exposes handlers used when incoming updates
// cannot be mapped to commands, callbacks, flows or expected attachments.
type FallbackProvider interface {
	UnknownText() tele.HandlerFunc
	UnknownDocument() tele.HandlerFunc
	UnknownCallback() tele.HandlerFunc
}

// Replies answers unmatched updates with fixed texts. Empty fields disable that fallback.
type Replies struct {
	Text     string
	Document string
	Callback string
	// Markup, when set, is attached to text and document replies.
	Markup func(c tele.Context) *tele.ReplyMarkup
}

func (r Replies) reply(text string) tele.HandlerFunc {
	if text == "" {
		return nil
	}
	return func(c tele.Context) error {
		if r.Markup != nil {
			return tghelpers.SendText(c, text, r.Markup(c))
		}
		return tghelpers.SendText(c, text)
	}
}

func (r Replies) UnknownText() tele.HandlerFunc     { return r.reply(r.Text) }
func (r Replies) UnknownDocument() tele.HandlerFunc { return r.reply(r.Document) }
func (r Replies) UnknownCallback() tele.HandlerFunc { return r.reply(r.Callback) }
