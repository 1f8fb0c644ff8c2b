package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/bookbot/core/logger"
	"github.com/m3rciful/bookbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by the reply helpers.
// With no dispatcher set replies are sent inline.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func sendAsync(c tele.Context, action, endpoint string, run func() error) error {
	disp := globalDispatcher.Load()
	if disp == nil {
		return run()
	}

	ctx := BuildContext(c)
	err := disp.Enqueue(ctx, action, endpoint, run)
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("op", action),
			logger.Err(err),
		)
		return run()
	}
	return err
}

func markupOf(markup []*tele.ReplyMarkup) *tele.ReplyMarkup {
	if len(markup) > 0 {
		return markup[0]
	}
	return nil
}

// SendText sends plain text to the current chat.
func SendText(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opts := &tele.SendOptions{ReplyMarkup: markupOf(markup)}
	return sendAsync(c, "send.text", "sendMessage", func() error {
		return c.Send(text, opts)
	})
}

// SendMD sends legacy-Markdown text to the current chat.
func SendMD(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opts := &tele.SendOptions{ParseMode: tele.ModeMarkdown, ReplyMarkup: markupOf(markup)}
	return sendAsync(c, "send.md", "sendMessage", func() error {
		return c.Send(text, opts)
	})
}

// SendPhoto sends a stored Telegram photo with a Markdown caption.
func SendPhoto(c tele.Context, fileID, caption string, markup ...*tele.ReplyMarkup) error {
	photo := &tele.Photo{File: tele.File{FileID: fileID}, Caption: caption}
	opts := &tele.SendOptions{ParseMode: tele.ModeMarkdown, ReplyMarkup: markupOf(markup)}
	return sendAsync(c, "send.photo", "sendPhoto", func() error {
		return c.Send(photo, opts)
	})
}

// EditOrSendMD edits the message under the pressed button or sends a new one.
func EditOrSendMD(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opts := &tele.SendOptions{ParseMode: tele.ModeMarkdown, ReplyMarkup: markupOf(markup)}
	return sendAsync(c, "edit.md", "editMessageText", func() error {
		return c.EditOrSend(text, opts)
	})
}
