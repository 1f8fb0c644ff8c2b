package bot

import (
	"context"
	"strings"

	"github.com/m3rciful/bookbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/bookbot/core/telegram/helpers"
	"github.com/m3rciful/bookbot/core/telegram/keyboard"
	"github.com/m3rciful/bookbot/internal/domain"
	"github.com/m3rciful/bookbot/internal/flow"

	tele "gopkg.in/telebot.v4"
)

// adminFlows end on the admin keyboard instead of the customer one.
var adminFlows = map[flow.Kind]bool{
	flow.BookCreate: true,
	flow.BookEdit:   true,
	flow.AdminAdd:   true,
	flow.AdminEdit:  true,
	flow.TextEdit:   true,
	flow.Reply:      true,
}

func (a *App) startFlow(c tele.Context, kind flow.Kind, seed flow.Values) error {
	ctx := tghelpers.BuildContext(c)
	res, err := a.engine.Start(ctx, tghelpers.SenderID(c), kind, seed)
	if err != nil {
		return a.fail(c, err)
	}
	return a.render(c, res)
}

func (a *App) render(c tele.Context, res flow.Result) error {
	ctx := tghelpers.BuildContext(c)
	switch res.Outcome {
	case flow.OutcomePrompt:
		return tghelpers.SendText(c, res.Prompt.Text, promptMarkup(res.Prompt))
	case flow.OutcomeInvalid:
		return tghelpers.SendText(c, "⚠️ "+res.Message+"\n\n"+res.Prompt.Text, promptMarkup(res.Prompt))
	case flow.OutcomeCommitted:
		text := res.Message
		if res.Err != nil {
			text = strings.TrimSpace(text + "\n⚠️ " + domain.Message(res.Err))
		}
		return tghelpers.SendText(c, text, a.menuAfter(ctx, tghelpers.SenderID(c), res.Flow))
	case flow.OutcomeAborted:
		return tghelpers.SendText(c, "❌ "+res.Message, a.menuAfter(ctx, tghelpers.SenderID(c), res.Flow))
	}
	return tghelpers.SendText(c, msgFormInactive, a.mainMenu(ctx, tghelpers.SenderID(c)))
}

func (a *App) menuAfter(ctx context.Context, userID int64, kind flow.Kind) *tele.ReplyMarkup {
	if adminFlows[kind] {
		return adminMenu()
	}
	return a.mainMenu(ctx, userID)
}

func (a *App) cancel(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	userID := tghelpers.SenderID(c)
	kind, _, _ := a.engine.Active(ctx, userID)
	had, err := a.engine.Cancel(ctx, userID)
	if err != nil {
		return a.fail(c, err)
	}
	if !had {
		return tghelpers.SendText(c, flow.MsgNothingToCancel, a.mainMenu(ctx, userID))
	}
	return tghelpers.SendText(c, flow.MsgCancelled, a.menuAfter(ctx, userID, kind))
}

// chooseOption submits the value of a pressed option button to the active flow.
func (a *App) chooseOption(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	res, err := a.engine.Submit(ctx, tghelpers.SenderID(c), flow.Input{Text: callbacks.CallbackPayload(c)})
	if err != nil {
		return a.fail(c, err)
	}
	return a.render(c, res)
}

func (a *App) registerFlowCallbacks() error {
	if err := a.registry.RegisterCallback(keyboard.CancelUnique, a.cancel); err != nil {
		return err
	}
	return a.registry.RegisterCallback(cbFlowOption, a.chooseOption)
}
