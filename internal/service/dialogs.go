package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/bookbot/core/logger"
	"github.com/m3rciful/bookbot/internal/domain"
)

// AdminReader resolves dialog participants.
type AdminReader interface {
	Get(ctx context.Context, userID int64) (domain.Admin, error)
	ListByRole(ctx context.Context, role string) ([]domain.Admin, error)
}

// Dialogs runs customer support conversations. A dialog is open until it is
// closed; closing is final. At most one dialog is open per customer and admin.
type Dialogs struct {
	dialogs     DialogStore
	admins      AdminReader
	notifier    Notifier
	supportRole string
}

// NewDialogs returns the dialog service. supportRole names the role of the
// support contact and defaults to tech_support.
func NewDialogs(dialogs DialogStore, admins AdminReader, notifier Notifier, supportRole string) *Dialogs {
	if supportRole == "" {
		supportRole = domain.RoleTechSupport
	}
	return &Dialogs{dialogs: dialogs, admins: admins, notifier: notifier, supportRole: supportRole}
}

// Ask sends question to adminID, reusing the open dialog of the pair.
// When the admin cannot be reached a delivery error is returned, and a
// dialog opened by this question is closed.
func (s *Dialogs) Ask(ctx context.Context, customerID, adminID int64, question string) (domain.Dialog, error) {
	const op = "dialogs.ask"
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.Dialog{}, domain.Validation(op, "question must not be empty")
	}
	if _, err := s.admins.Get(ctx, adminID); err != nil {
		return domain.Dialog{}, err
	}

	created := false
	d, err := s.dialogs.FindOpen(ctx, customerID, adminID)
	switch {
	case err == nil:
		if err := s.dialogs.Touch(ctx, d.ID); err != nil {
			return domain.Dialog{}, err
		}
	case domain.IsKind(err, domain.KindNotFound):
		if d, err = s.dialogs.Create(ctx, customerID, adminID, question); err != nil {
			return domain.Dialog{}, err
		}
		created = true
	default:
		return domain.Dialog{}, err
	}
	if err := s.append(ctx, d.ID, customerID, domain.AuthorCustomer, question); err != nil {
		return domain.Dialog{}, err
	}

	err = notify(ctx, s.notifier, op, adminID, Notice{
		Kind: NoticeQuestion,
		Ref:  d.ID,
		Text: fmt.Sprintf("❓ Question #%d from customer %d:\n%s", d.ID, customerID, question),
	})
	if err != nil {
		// Only a dialog opened by this question is closed; a reused one keeps its history open.
		if created {
			if cerr := s.dialogs.Close(ctx, d.ID); cerr != nil {
				logWarn(ctx, logger.SVCDialogs, "dialog.close_fail", cerr, slog.Int64("dialog_id", d.ID))
			} else {
				d.IsClosed = true
			}
		}
		logWarn(ctx, logger.SVCDialogs, "dialog.ask_undelivered", err,
			slog.Int64("dialog_id", d.ID), slog.Int64("admin_id", adminID))
		return d, err
	}
	logger.LogEvent(ctx, logger.SVCDialogs, slog.LevelInfo, "dialog.asked",
		slog.Int64("dialog_id", d.ID),
		slog.Int64("customer_id", customerID),
		slog.Int64("admin_id", adminID),
	)
	return d, nil
}

// Answer stores text as the latest answer of an open dialog and relays it to
// the customer. A delivery error leaves the answer stored.
func (s *Dialogs) Answer(ctx context.Context, dialogID, adminID int64, text string) (domain.Dialog, error) {
	const op = "dialogs.answer"
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Dialog{}, domain.Validation(op, "answer must not be empty")
	}
	d, err := s.dialogs.Get(ctx, dialogID)
	if err != nil {
		return domain.Dialog{}, err
	}
	if d.IsClosed {
		return d, domain.Validation(op, "this dialog is already closed")
	}
	if err := s.dialogs.SetAnswer(ctx, dialogID, text); err != nil {
		return domain.Dialog{}, err
	}
	d.Answer = text
	if err := s.append(ctx, dialogID, adminID, domain.AuthorAdmin, text); err != nil {
		return domain.Dialog{}, err
	}

	err = notify(ctx, s.notifier, op, d.CustomerID, Notice{
		Kind: NoticeAnswer,
		Ref:  d.ID,
		Text: fmt.Sprintf("💬 Answer to your question #%d:\n%s\n\nReply in this chat to continue the conversation.", d.ID, text),
	})
	if err != nil {
		logWarn(ctx, logger.SVCDialogs, "dialog.answer_undelivered", err, slog.Int64("dialog_id", d.ID))
		return d, err
	}
	logger.LogEvent(ctx, logger.SVCDialogs, slog.LevelInfo, "dialog.answered",
		slog.Int64("dialog_id", d.ID),
		slog.Int64("admin_id", adminID),
	)
	return d, nil
}

// Close ends the dialog. Closing a closed dialog changes nothing and sends no notice.
func (s *Dialogs) Close(ctx context.Context, dialogID int64) (domain.Dialog, error) {
	d, err := s.dialogs.Get(ctx, dialogID)
	if err != nil {
		return domain.Dialog{}, err
	}
	if d.IsClosed {
		return d, nil
	}
	if err := s.dialogs.Close(ctx, dialogID); err != nil {
		return domain.Dialog{}, err
	}
	d.IsClosed = true
	logger.LogEvent(ctx, logger.SVCDialogs, slog.LevelInfo, "dialog.closed", slog.Int64("dialog_id", d.ID))

	err = notify(ctx, s.notifier, "dialogs.close", d.CustomerID, Notice{
		Kind: NoticeDialogClosed,
		Ref:  d.ID,
		Text: fmt.Sprintf("✅ Your question #%d has been closed. Thank you!", d.ID),
	})
	if err != nil {
		logWarn(ctx, logger.SVCDialogs, "dialog.close_undelivered", err, slog.Int64("dialog_id", d.ID))
	}
	return d, nil
}

// Forward relays a follow-up from a customer to the admin of their most
// recently active open dialog. ok is false when the customer has none.
func (s *Dialogs) Forward(ctx context.Context, customerID int64, text string) (d domain.Dialog, ok bool, err error) {
	const op = "dialogs.forward"
	d, err = s.dialogs.LatestOpenForCustomer(ctx, customerID)
	if domain.IsKind(err, domain.KindNotFound) {
		return domain.Dialog{}, false, nil
	}
	if err != nil {
		return domain.Dialog{}, false, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return d, true, domain.Validation(op, "message must not be empty")
	}
	if err := s.append(ctx, d.ID, customerID, domain.AuthorCustomer, text); err != nil {
		return d, true, err
	}
	if err := s.dialogs.Touch(ctx, d.ID); err != nil {
		return d, true, err
	}
	err = notify(ctx, s.notifier, op, d.AdminID, Notice{
		Kind: NoticeFollowUp,
		Ref:  d.ID,
		Text: fmt.Sprintf("💬 Customer %d in dialog #%d:\n%s", customerID, d.ID, text),
	})
	if err != nil {
		logWarn(ctx, logger.SVCDialogs, "dialog.forward_undelivered", err, slog.Int64("dialog_id", d.ID))
		return d, true, err
	}
	logger.LogEvent(ctx, logger.SVCDialogs, slog.LevelDebug, "dialog.forwarded", slog.Int64("dialog_id", d.ID))
	return d, true, nil
}

// SupportContact returns the oldest admin holding the support role.
func (s *Dialogs) SupportContact(ctx context.Context) (domain.Admin, error) {
	list, err := s.admins.ListByRole(ctx, s.supportRole)
	if err != nil {
		return domain.Admin{}, err
	}
	if len(list) == 0 {
		return domain.Admin{}, domain.NotFound("dialogs.support_contact", "support contact")
	}
	return list[0], nil
}

// OpenDialogs lists open dialogs of adminID, or of every admin when adminID is 0.
func (s *Dialogs) OpenDialogs(ctx context.Context, adminID int64) ([]domain.Dialog, error) {
	return s.dialogs.ListOpen(ctx, adminID)
}

func (s *Dialogs) Get(ctx context.Context, dialogID int64) (domain.Dialog, error) {
	return s.dialogs.Get(ctx, dialogID)
}

// History returns every message of the dialog in order.
func (s *Dialogs) History(ctx context.Context, dialogID int64) ([]domain.DialogMessage, error) {
	if _, err := s.dialogs.Get(ctx, dialogID); err != nil {
		return nil, err
	}
	return s.dialogs.Messages(ctx, dialogID)
}

func (s *Dialogs) append(ctx context.Context, dialogID, authorID int64, role, body string) error {
	return s.dialogs.AppendMessage(ctx, domain.DialogMessage{DialogID: dialogID, AuthorID: authorID, Role: role, Body: body})
}
