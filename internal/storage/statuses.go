package storage

import (
	"context"

	"github.com/m3rciful/bookbot/internal/domain"
)

// StatusRepo reads and seeds the order status catalog.
type StatusRepo struct{ repo }

const statusSelect = `SELECT id, name, description, client_message, emoji, position FROM order_statuses`

// List returns statuses in pipeline order.
func (r *StatusRepo) List(ctx context.Context) ([]domain.OrderStatus, error) {
	var out []domain.OrderStatus
	err := r.db.SelectContext(ctx, &out, statusSelect+` ORDER BY position, id`)
	return out, wrap("statuses.list", "statuses", err)
}

// Get loads one status by id.
func (r *StatusRepo) Get(ctx context.Context, id int64) (domain.OrderStatus, error) {
	var s domain.OrderStatus
	err := r.db.GetContext(ctx, &s, statusSelect+` WHERE id = $1`, id)
	return s, wrap("statuses.get", "status", err)
}

// GetByName loads one status by its unique name.
func (r *StatusRepo) GetByName(ctx context.Context, name string) (domain.OrderStatus, error) {
	var s domain.OrderStatus
	err := r.db.GetContext(ctx, &s, statusSelect+` WHERE name = $1`, name)
	return s, wrap("statuses.get_by_name", "status "+name, err)
}

// Seed inserts missing statuses and leaves existing rows untouched.
// It returns how many rows were inserted.
func (r *StatusRepo) Seed(ctx context.Context, statuses []domain.OrderStatus) (int, error) {
	const op = "statuses.seed"
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, domain.Persistence(op, err)
	}
	defer func() { _ = tx.Rollback() }()

	inserted := 0
	for _, s := range statuses {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO order_statuses (name, description, client_message, emoji, position)
			 VALUES ($1, $2, $3, $4, $5) ON CONFLICT (name) DO NOTHING`,
			s.Name, s.Description, s.ClientMessage, s.Emoji, s.Position)
		if err != nil {
			return 0, domain.Persistence(op, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, domain.Persistence(op, err)
	}
	return inserted, nil
}
