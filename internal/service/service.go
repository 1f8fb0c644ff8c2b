// Package service holds the store workflows: catalog upkeep, the order status
// pipeline, support dialogs, administrators and editable texts.
package service

import (
	"context"
	"log/slog"

	"github.com/m3rciful/bookbot/core/logger"
	"github.com/m3rciful/bookbot/core/metrics"
	"github.com/m3rciful/bookbot/internal/domain"
)

// NoticeKind tells the transport how to decorate a notice.
type NoticeKind string

const (
	NoticeOrderPlaced  NoticeKind = "order_placed"
	NoticeOrderStatus  NoticeKind = "order_status"
	NoticeQuestion     NoticeKind = "dialog_question"
	NoticeFollowUp     NoticeKind = "dialog_follow_up"
	NoticeAnswer       NoticeKind = "dialog_answer"
	NoticeDialogClosed NoticeKind = "dialog_closed"
)

// Notice is a message pushed to a user outside of the current conversation.
// Ref carries the order or dialog id the notice is about.
type Notice struct {
	Kind NoticeKind
	Text string
	Ref  int64
}

// Notifier delivers notices to Telegram users.
type Notifier interface {
	Notify(ctx context.Context, recipient int64, n Notice) error
}

// notify delivers n, counts the attempt and wraps a failure as a delivery error.
func notify(ctx context.Context, nt Notifier, op string, recipient int64, n Notice) error {
	err := nt.Notify(ctx, recipient, n)
	metrics.ObserveNotification(string(n.Kind), err)
	if err != nil {
		return domain.Delivery(op, recipient, err)
	}
	return nil
}

// BookStore persists the catalog.
type BookStore interface {
	Create(ctx context.Context, b domain.Book) (domain.Book, error)
	Get(ctx context.Context, id int64) (domain.Book, error)
	List(ctx context.Context) ([]domain.Book, error)
	UpdateField(ctx context.Context, id int64, field string, value any) error
	Delete(ctx context.Context, id int64) error
}

// StatusStore reads the status catalog.
type StatusStore interface {
	List(ctx context.Context) ([]domain.OrderStatus, error)
	Get(ctx context.Context, id int64) (domain.OrderStatus, error)
	GetByName(ctx context.Context, name string) (domain.OrderStatus, error)
}

// OrderStore persists orders.
type OrderStore interface {
	Create(ctx context.Context, draft domain.OrderDraft, bookInfo string, statusID int64) (int64, error)
	Get(ctx context.Context, id int64) (domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]domain.Order, error)
	SetStatus(ctx context.Context, id, statusID int64) error
	Delete(ctx context.Context, id int64) error
}

// AdminStore persists administrators.
type AdminStore interface {
	Upsert(ctx context.Context, a domain.Admin) (domain.Admin, error)
	InsertIfMissing(ctx context.Context, a domain.Admin) (bool, error)
	Get(ctx context.Context, userID int64) (domain.Admin, error)
	Exists(ctx context.Context, userID int64) (bool, error)
	List(ctx context.Context) ([]domain.Admin, error)
	ListByRole(ctx context.Context, role string) ([]domain.Admin, error)
	ListAskable(ctx context.Context) ([]domain.Admin, error)
	UpdateField(ctx context.Context, userID int64, field, value string) error
	Delete(ctx context.Context, userID int64) error
}

// TextStore persists editable texts.
type TextStore interface {
	Get(ctx context.Context, kind domain.TextKind) (domain.Text, error)
	Upsert(ctx context.Context, kind domain.TextKind, body string) error
}

// DialogStore persists support dialogs.
type DialogStore interface {
	Create(ctx context.Context, customerID, adminID int64, question string) (domain.Dialog, error)
	Get(ctx context.Context, id int64) (domain.Dialog, error)
	FindOpen(ctx context.Context, customerID, adminID int64) (domain.Dialog, error)
	LatestOpenForCustomer(ctx context.Context, customerID int64) (domain.Dialog, error)
	ListOpen(ctx context.Context, adminID int64) ([]domain.Dialog, error)
	Touch(ctx context.Context, id int64) error
	SetAnswer(ctx context.Context, id int64, answer string) error
	Close(ctx context.Context, id int64) error
	AppendMessage(ctx context.Context, m domain.DialogMessage) error
	Messages(ctx context.Context, dialogID int64) ([]domain.DialogMessage, error)
}

func logWarn(ctx context.Context, l *slog.Logger, event string, err error, attrs ...slog.Attr) {
	logger.LogEvent(ctx, l, slog.LevelWarn, event, append(attrs, logger.Err(err))...)
}
