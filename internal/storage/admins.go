package storage

import (
	"context"

	"github.com/m3rciful/bookbot/internal/domain"
)

// AdminRepo persists administrators keyed by Telegram user id.
type AdminRepo struct{ repo }

var adminColumns = map[string]string{
	"user_name":    "user_name",
	"phone":        "phone",
	"role":         "role",
	"display_name": "display_name",
}

const adminSelect = `SELECT id, user_id, user_name, phone, role, display_name, created_at FROM admins`

// Upsert inserts a or refreshes name and phone of an existing admin.
// Role and display name of an existing admin are kept.
func (r *AdminRepo) Upsert(ctx context.Context, a domain.Admin) (domain.Admin, error) {
	const op = "admins.upsert"
	if a.Role == "" {
		a.Role = domain.RoleAdmin
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO admins (user_id, user_name, phone, role, display_name, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id) DO UPDATE SET user_name = excluded.user_name, phone = excluded.phone`,
		a.UserID, a.UserName, a.Phone, a.Role, a.DisplayName, r.now())
	if err != nil {
		return domain.Admin{}, domain.Persistence(op, err)
	}
	return r.Get(ctx, a.UserID)
}

// InsertIfMissing creates a only when no admin with that user id exists.
func (r *AdminRepo) InsertIfMissing(ctx context.Context, a domain.Admin) (bool, error) {
	if a.Role == "" {
		a.Role = domain.RoleAdmin
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO admins (user_id, user_name, phone, role, display_name, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (user_id) DO NOTHING`,
		a.UserID, a.UserName, a.Phone, a.Role, a.DisplayName, r.now())
	if err != nil {
		return false, domain.Persistence("admins.insert_if_missing", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Get loads an admin by Telegram user id.
func (r *AdminRepo) Get(ctx context.Context, userID int64) (domain.Admin, error) {
	var a domain.Admin
	err := r.db.GetContext(ctx, &a, adminSelect+` WHERE user_id = $1`, userID)
	return a, wrap("admins.get", "admin", err)
}

// Exists reports whether userID is an admin.
func (r *AdminRepo) Exists(ctx context.Context, userID int64) (bool, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM admins WHERE user_id = $1`, userID); err != nil {
		return false, domain.Persistence("admins.exists", err)
	}
	return n > 0, nil
}

// List returns all admins in insertion order.
func (r *AdminRepo) List(ctx context.Context) ([]domain.Admin, error) {
	var out []domain.Admin
	err := r.db.SelectContext(ctx, &out, adminSelect+` ORDER BY id`)
	return out, wrap("admins.list", "admins", err)
}

// ListByRole returns admins holding role, oldest first.
func (r *AdminRepo) ListByRole(ctx context.Context, role string) ([]domain.Admin, error) {
	var out []domain.Admin
	err := r.db.SelectContext(ctx, &out, adminSelect+` WHERE role = $1 ORDER BY id`, role)
	return out, wrap("admins.list_by_role", "admins", err)
}

// ListAskable returns admins that customers may address directly.
func (r *AdminRepo) ListAskable(ctx context.Context) ([]domain.Admin, error) {
	var out []domain.Admin
	err := r.db.SelectContext(ctx, &out, adminSelect+` WHERE display_name <> '' ORDER BY id`)
	return out, wrap("admins.list_askable", "admins", err)
}

// UpdateField writes a single column.
func (r *AdminRepo) UpdateField(ctx context.Context, userID int64, field, value string) error {
	const op = "admins.update_field"
	col, err := column(op, adminColumns, field)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE admins SET `+col+` = $1 WHERE user_id = $2`, value, userID)
	return expectRow(op, "admin", res, err)
}

// Delete removes an admin.
func (r *AdminRepo) Delete(ctx context.Context, userID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM admins WHERE user_id = $1`, userID)
	return expectRow("admins.delete", "admin", res, err)
}
