package storage

import (
	"context"
	"database/sql"

	"github.com/m3rciful/bookbot/internal/domain"
)

// OrderRepo persists customer orders.
type OrderRepo struct{ repo }

const orderSelect = `SELECT o.id, o.customer_id, o.full_name, o.address, o.phone, o.book_id, o.book_info,
	o.status_id, s.name AS status_name, s.emoji || ' ' || s.description AS status_label,
	o.created_at, o.updated_at
	FROM orders o JOIN order_statuses s ON s.id = o.status_id`

// Create inserts an order in the given status with a book snapshot.
func (r *OrderRepo) Create(ctx context.Context, draft domain.OrderDraft, bookInfo string, statusID int64) (int64, error) {
	now := r.now()
	var id int64
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO orders (customer_id, full_name, address, phone, book_id, book_info, status_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		draft.CustomerID, draft.FullName, draft.Address, draft.Phone,
		sql.NullInt64{Int64: draft.BookID, Valid: draft.BookID != 0},
		bookInfo, statusID, now, now,
	).Scan(&id)
	return id, wrap("orders.create", "order", err)
}

// Get loads one order with its status.
func (r *OrderRepo) Get(ctx context.Context, id int64) (domain.Order, error) {
	var o domain.Order
	err := r.db.GetContext(ctx, &o, orderSelect+` WHERE o.id = $1`, id)
	return o, wrap("orders.get", "order", err)
}

// List returns all orders, newest first.
func (r *OrderRepo) List(ctx context.Context) ([]domain.Order, error) {
	var out []domain.Order
	err := r.db.SelectContext(ctx, &out, orderSelect+` ORDER BY o.id DESC`)
	return out, wrap("orders.list", "orders", err)
}

// ListByCustomer returns a customer's orders, newest first.
func (r *OrderRepo) ListByCustomer(ctx context.Context, customerID int64) ([]domain.Order, error) {
	var out []domain.Order
	err := r.db.SelectContext(ctx, &out, orderSelect+` WHERE o.customer_id = $1 ORDER BY o.id DESC`, customerID)
	return out, wrap("orders.list_by_customer", "orders", err)
}

// SetStatus stores the new status and refreshes updated_at.
func (r *OrderRepo) SetStatus(ctx context.Context, id, statusID int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status_id = $1, updated_at = $2 WHERE id = $3`, statusID, r.now(), id)
	return expectRow("orders.set_status", "order", res, err)
}

// Delete removes the order permanently.
func (r *OrderRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	return expectRow("orders.delete", "order", res, err)
}
