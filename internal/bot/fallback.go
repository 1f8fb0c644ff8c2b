package bot

import (
	tghelpers "github.com/m3rciful/bookbot/core/telegram/helpers"
	"github.com/m3rciful/bookbot/core/telegram/ui"

	tele "gopkg.in/telebot.v4"
)

const (
	msgUnknownText     = "I did not understand that. Use the menu below or /help."
	msgUnknownDocument = "I can't use this file here."
	msgUnknownCallback = "This button is no longer active."
	msgFormInactive    = "This form is no longer active."
	msgAdminOnly       = "This command is for administrators only."
	msgSlowDown        = "Too many requests, please slow down."
)

func (a *App) replies() ui.Replies {
	return ui.Replies{
		Text:     msgUnknownText,
		Document: msgUnknownDocument,
		Callback: msgUnknownCallback,
		Markup: func(c tele.Context) *tele.ReplyMarkup {
			return a.mainMenu(tghelpers.BuildContext(c), tghelpers.SenderID(c))
		},
	}
}
