package keyboard

import tele "gopkg.in/telebot.v4"

// InlineBtn describes one inline button before it is bound to a markup.
type InlineBtn struct {
	Text   string
	Unique string
	Data   string
}

// CancelUnique is the callback key of the shared cancel button.
const CancelUnique = "flow_cancel"

const defaultCancelButtonText = "❌ Cancel"

// ReplyButtons builds a resized reply keyboard from rows of labels.
func ReplyButtons(rows ...[]string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	keyboard := make([]tele.Row, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tele.Btn, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, markup.Text(label))
		}
		keyboard = append(keyboard, markup.Row(buttons...))
	}
	markup.Reply(keyboard...)
	return markup
}

// InlineButtonsRows builds an inline keyboard from rows of buttons.
func InlineButtonsRows(rows ...[]InlineBtn) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	inline := make([][]tele.InlineButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		r := make([]tele.InlineButton, len(row))
		for j, btn := range row {
			r[j] = *markup.Data(btn.Text, btn.Unique, btn.Data).Inline()
		}
		inline = append(inline, r)
	}
	markup.InlineKeyboard = inline
	return markup
}

// InlineButtonsNPerRow lays buttons out n per row.
func InlineButtonsNPerRow(buttons []InlineBtn, n int) *tele.ReplyMarkup {
	if n < 1 {
		n = 1
	}
	var rows [][]InlineBtn
	for i := 0; i < len(buttons); i += n {
		rows = append(rows, buttons[i:min(i+n, len(buttons))])
	}
	return InlineButtonsRows(rows...)
}

// InlineButtons places each button on its own row.
func InlineButtons(buttons []InlineBtn) *tele.ReplyMarkup {
	return InlineButtonsNPerRow(buttons, 1)
}

// CancelBtn returns the shared cancel button.
func CancelBtn() InlineBtn {
	return InlineBtn{Text: defaultCancelButtonText, Unique: CancelUnique}
}

// WithCancel appends a cancel row to the given rows.
func WithCancel(rows ...[]InlineBtn) *tele.ReplyMarkup {
	return InlineButtonsRows(append(rows, []InlineBtn{CancelBtn()})...)
}

// SingleCancelMarkup creates an inline keyboard with only the cancel button.
func SingleCancelMarkup() *tele.ReplyMarkup {
	return WithCancel()
}
