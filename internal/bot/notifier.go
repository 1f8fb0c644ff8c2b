package bot

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/m3rciful/bookbot/core/logger"
	"github.com/m3rciful/bookbot/core/metrics"
	"github.com/m3rciful/bookbot/core/telegram/callbacks"
	"github.com/m3rciful/bookbot/core/telegram/keyboard"
	"github.com/m3rciful/bookbot/core/telegram/netutil"
	"github.com/m3rciful/bookbot/internal/service"

	tele "gopkg.in/telebot.v4"
)

var errNotBound = errors.New("notifier: bot is not running")

type messageSender interface {
	Send(to tele.Recipient, what any, opts ...any) (*tele.Message, error)
}

// Notifier pushes service notices to arbitrary chats. It is created before the
// bot exists and bound once the runtime builds it.
type Notifier struct {
	mu     sync.RWMutex
	sender messageSender
}

func NewNotifier() *Notifier {
	return &Notifier{}
}

// Bind attaches the running bot.
func (n *Notifier) Bind(bot *tele.Bot) {
	n.bind(bot)
}

func (n *Notifier) bind(s messageSender) {
	n.mu.Lock()
	n.sender = s
	n.mu.Unlock()
}

// Notify sends the notice to recipient, retrying once on transient failures.
func (n *Notifier) Notify(ctx context.Context, recipient int64, notice service.Notice) error {
	n.mu.RLock()
	s := n.sender
	n.mu.RUnlock()
	if s == nil {
		return errNotBound
	}

	opts := &tele.SendOptions{ReplyMarkup: noticeMarkup(notice)}
	send := func() error {
		_, err := s.Send(tele.ChatID(recipient), notice.Text, opts)
		return err
	}
	err := send()
	if err != nil && netutil.ShouldRetry(err) && ctx.Err() == nil {
		err = send()
	}
	if err != nil {
		metrics.IncSendFailure()
		logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "notify",
			slog.String("status", "fail"),
			slog.String("kind", string(notice.Kind)),
			slog.Int64("recipient", recipient),
			logger.Err(err),
		)
	}
	return err
}

// noticeMarkup gives admins the buttons to act on the notice directly.
func noticeMarkup(n service.Notice) *tele.ReplyMarkup {
	if n.Ref == 0 {
		return nil
	}
	switch n.Kind {
	case service.NoticeOrderPlaced:
		return keyboard.InlineButtons([]keyboard.InlineBtn{
			{Text: "🔄 Set status", Unique: cbOrderStatus, Data: callbacks.Payload(n.Ref)},
		})
	case service.NoticeQuestion, service.NoticeFollowUp:
		return keyboard.InlineButtonsRows([]keyboard.InlineBtn{
			{Text: "↩️ Reply", Unique: cbDialogReply, Data: callbacks.Payload(n.Ref)},
			{Text: "✅ Close", Unique: cbDialogClose, Data: callbacks.Payload(n.Ref)},
		})
	}
	return nil
}
