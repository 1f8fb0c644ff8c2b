package bot

import (
	"context"
	"strconv"

	"github.com/m3rciful/bookbot/core/telegram/callbacks"
	"github.com/m3rciful/bookbot/core/telegram/keyboard"
	"github.com/m3rciful/bookbot/internal/domain"
	"github.com/m3rciful/bookbot/internal/flow"

	tele "gopkg.in/telebot.v4"
)

// Reply keyboard labels. Each one is an alias of a slash command.
const (
	LabelGallery  = "📚 Gallery"
	LabelOrder    = "🛒 Order a book"
	LabelAsk      = "💬 Ask a question"
	LabelSupport  = "🆘 Support"
	LabelMyOrders = "📦 My orders"
	LabelCancel   = "❌ Cancel"
	LabelAdmin    = "⚙️ Admin panel"

	LabelBooks   = "📚 Books"
	LabelOrders  = "📦 Orders"
	LabelTexts   = "📝 Texts"
	LabelAdmins  = "👥 Admins"
	LabelDialogs = "💬 Dialogs"
	LabelBack    = "⬅️ Main menu"
)

// Callback unique keys.
const (
	cbFlowOption = "flow_option"
	cbOrderBook  = "order_book"

	cbBookAdd       = "book_add"
	cbBookEdit      = "book_edit"
	cbBookDelete    = "book_delete"
	cbBookDeleteYes = "book_delete_yes"

	cbOrderStatus    = "order_status"
	cbOrderStatusSet = "order_status_set"
	cbOrderDelete    = "order_delete"
	cbOrderDeleteYes = "order_delete_yes"

	cbTextEdit = "text_edit"

	cbAdminAdd       = "admin_add"
	cbAdminEdit      = "admin_edit"
	cbAdminDelete    = "admin_delete"
	cbAdminDeleteYes = "admin_delete_yes"

	cbDialogReply   = "dialog_reply"
	cbDialogClose   = "dialog_close"
	cbDialogHistory = "dialog_history"

	cbConfirmNo = "confirm_no"
)

func (a *App) mainMenu(ctx context.Context, userID int64) *tele.ReplyMarkup {
	rows := [][]string{
		{LabelGallery, LabelOrder},
		{LabelAsk, LabelSupport},
		{LabelMyOrders},
	}
	if a.admins.IsAdmin(ctx, userID) {
		rows = append(rows, []string{LabelAdmin})
	}
	return keyboard.ReplyButtons(rows...)
}

func adminMenu() *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{LabelBooks, LabelOrders},
		[]string{LabelTexts, LabelAdmins},
		[]string{LabelDialogs},
		[]string{LabelBack},
	)
}

// promptMarkup renders flow options as buttons above the cancel row.
func promptMarkup(p flow.Prompt) *tele.ReplyMarkup {
	if len(p.Options) == 0 {
		return keyboard.SingleCancelMarkup()
	}
	btns := make([]keyboard.InlineBtn, 0, len(p.Options))
	for _, o := range p.Options {
		btns = append(btns, keyboard.InlineBtn{Text: o.Label, Unique: cbFlowOption, Data: o.Value})
	}
	rows := make([][]keyboard.InlineBtn, 0, (len(btns)+1)/2)
	for i := 0; i < len(btns); i += 2 {
		rows = append(rows, btns[i:min(i+2, len(btns))])
	}
	return keyboard.WithCancel(rows...)
}

func orderBookMarkup(books []domain.Book) *tele.ReplyMarkup {
	btns := make([]keyboard.InlineBtn, 0, len(books))
	for _, b := range books {
		btns = append(btns, keyboard.InlineBtn{
			Text:   b.Name + " · " + b.Price.StringFixed(2),
			Unique: cbOrderBook,
			Data:   callbacks.Payload(b.ID),
		})
	}
	return keyboard.InlineButtons(btns)
}

func bookCardMarkup(id int64) *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "🛒 Order", Unique: cbOrderBook, Data: callbacks.Payload(id)},
	})
}

func bookAdminMarkup(id int64) *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: "✏️ Edit", Unique: cbBookEdit, Data: callbacks.Payload(id)},
		{Text: "🗑 Delete", Unique: cbBookDelete, Data: callbacks.Payload(id)},
	})
}

func orderAdminMarkup(id int64) *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: "🔄 Status", Unique: cbOrderStatus, Data: callbacks.Payload(id)},
		{Text: "🗑 Delete", Unique: cbOrderDelete, Data: callbacks.Payload(id)},
	})
}

// statusMarkup lists the status catalog; payload is "<statusID>|<orderID>".
func statusMarkup(orderID int64, statuses []domain.OrderStatus) *tele.ReplyMarkup {
	btns := make([]keyboard.InlineBtn, 0, len(statuses))
	for _, s := range statuses {
		btns = append(btns, keyboard.InlineBtn{
			Text:   s.Label(),
			Unique: cbOrderStatusSet,
			Data:   callbacks.Payload(s.ID, orderID),
		})
	}
	return keyboard.InlineButtonsNPerRow(btns, 2)
}

func adminAdminMarkup(userID int64) *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: "✏️ Edit", Unique: cbAdminEdit, Data: callbacks.Payload(userID)},
		{Text: "🗑 Delete", Unique: cbAdminDelete, Data: callbacks.Payload(userID)},
	})
}

func dialogMarkup(id int64) *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: "↩️ Reply", Unique: cbDialogReply, Data: callbacks.Payload(id)},
		{Text: "✅ Close", Unique: cbDialogClose, Data: callbacks.Payload(id)},
		{Text: "📜 History", Unique: cbDialogHistory, Data: callbacks.Payload(id)},
	})
}

func confirmMarkup(yesUnique string, id int64) *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: "✅ Yes, delete", Unique: yesUnique, Data: callbacks.Payload(id)},
		{Text: "❌ No", Unique: cbConfirmNo},
	})
}

func singleButton(text, unique string) *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{{Text: text, Unique: unique}})
}

func textEditMarkup(kind domain.TextKind) *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "✏️ Edit", Unique: cbTextEdit, Data: string(kind)},
	})
}

func formatInt(id int64) string {
	return strconv.FormatInt(id, 10)
}
