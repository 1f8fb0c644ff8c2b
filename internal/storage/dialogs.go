package storage

import (
	"context"

	"github.com/m3rciful/bookbot/internal/domain"
)

// DialogRepo persists support dialogs and their history.
type DialogRepo struct{ repo }

const dialogSelect = `SELECT id, customer_id, admin_id, question, answer, is_closed, created_at, updated_at FROM dialogs`

// Create opens a dialog. The partial unique index rejects a second open
// dialog for the same pair.
func (r *DialogRepo) Create(ctx context.Context, customerID, adminID int64, question string) (domain.Dialog, error) {
	now := r.now()
	d := domain.Dialog{CustomerID: customerID, AdminID: adminID, Question: question, CreatedAt: now, UpdatedAt: now}
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO dialogs (customer_id, admin_id, question, answer, is_closed, created_at, updated_at)
		 VALUES ($1, $2, $3, '', FALSE, $4, $5) RETURNING id`,
		customerID, adminID, question, now, now,
	).Scan(&d.ID)
	if err != nil {
		return domain.Dialog{}, wrap("dialogs.create", "dialog", err)
	}
	return d, nil
}

// Get loads one dialog.
func (r *DialogRepo) Get(ctx context.Context, id int64) (domain.Dialog, error) {
	var d domain.Dialog
	err := r.db.GetContext(ctx, &d, dialogSelect+` WHERE id = $1`, id)
	return d, wrap("dialogs.get", "dialog", err)
}

// FindOpen returns the open dialog of a (customer, admin) pair.
func (r *DialogRepo) FindOpen(ctx context.Context, customerID, adminID int64) (domain.Dialog, error) {
	var d domain.Dialog
	err := r.db.GetContext(ctx, &d,
		dialogSelect+` WHERE customer_id = $1 AND admin_id = $2 AND NOT is_closed`, customerID, adminID)
	return d, wrap("dialogs.find_open", "open dialog", err)
}

// LatestOpenForCustomer returns the most recently active open dialog of a customer.
func (r *DialogRepo) LatestOpenForCustomer(ctx context.Context, customerID int64) (domain.Dialog, error) {
	var d domain.Dialog
	err := r.db.GetContext(ctx, &d,
		dialogSelect+` WHERE customer_id = $1 AND NOT is_closed ORDER BY updated_at DESC, id DESC LIMIT 1`, customerID)
	return d, wrap("dialogs.latest_open", "open dialog", err)
}

// ListOpen returns open dialogs, oldest first. adminID 0 lists all admins.
func (r *DialogRepo) ListOpen(ctx context.Context, adminID int64) ([]domain.Dialog, error) {
	var out []domain.Dialog
	var err error
	if adminID == 0 {
		err = r.db.SelectContext(ctx, &out, dialogSelect+` WHERE NOT is_closed ORDER BY id`)
	} else {
		err = r.db.SelectContext(ctx, &out, dialogSelect+` WHERE NOT is_closed AND admin_id = $1 ORDER BY id`, adminID)
	}
	return out, wrap("dialogs.list_open", "dialogs", err)
}

// Touch refreshes updated_at of an open dialog.
func (r *DialogRepo) Touch(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE dialogs SET updated_at = $1 WHERE id = $2 AND NOT is_closed`, r.now(), id)
	return expectRow("dialogs.touch", "open dialog", res, err)
}

// SetAnswer overwrites the latest answer of an open dialog.
func (r *DialogRepo) SetAnswer(ctx context.Context, id int64, answer string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE dialogs SET answer = $1, updated_at = $2 WHERE id = $3 AND NOT is_closed`, answer, r.now(), id)
	return expectRow("dialogs.set_answer", "open dialog", res, err)
}

// Close marks the dialog closed. Closing a closed dialog is a no-op.
func (r *DialogRepo) Close(ctx context.Context, id int64) error {
	const op = "dialogs.close"
	if _, err := r.db.ExecContext(ctx,
		`UPDATE dialogs SET is_closed = TRUE, updated_at = $1 WHERE id = $2 AND NOT is_closed`, r.now(), id); err != nil {
		return domain.Persistence(op, err)
	}
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	return nil
}

// AppendMessage adds an entry to the dialog history.
func (r *DialogRepo) AppendMessage(ctx context.Context, m domain.DialogMessage) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO dialog_messages (dialog_id, author_id, role, body, created_at) VALUES ($1, $2, $3, $4, $5)`,
		m.DialogID, m.AuthorID, m.Role, m.Body, r.now())
	return wrap("dialogs.append_message", "dialog", err)
}

// Messages returns the dialog history in order.
func (r *DialogRepo) Messages(ctx context.Context, dialogID int64) ([]domain.DialogMessage, error) {
	var out []domain.DialogMessage
	err := r.db.SelectContext(ctx, &out,
		`SELECT id, dialog_id, author_id, role, body, created_at FROM dialog_messages WHERE dialog_id = $1 ORDER BY id`, dialogID)
	return out, wrap("dialogs.messages", "messages", err)
}
