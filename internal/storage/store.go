// Package storage holds the sqlx repositories for the bot's records.
//
// Queries use PostgreSQL placeholders. Timestamps are supplied by the
// caller's clock rather than NOW() so rows are deterministic in tests.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/bookbot/internal/domain"
)

// Store groups the repositories sharing one connection pool.
type Store struct {
	db *sqlx.DB

	Books    *BookRepo
	Statuses *StatusRepo
	Orders   *OrderRepo
	Admins   *AdminRepo
	Texts    *TextRepo
	Dialogs  *DialogRepo
}

// Clock returns the current time for row timestamps.
type Clock func() time.Time

// New wires every repository onto db. A nil clock selects UTC wall time.
func New(db *sqlx.DB, clock Clock) *Store {
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	base := repo{db: db, now: clock}
	return &Store{
		db:       db,
		Books:    &BookRepo{base},
		Statuses: &StatusRepo{base},
		Orders:   &OrderRepo{base},
		Admins:   &AdminRepo{base},
		Texts:    &TextRepo{base},
		Dialogs:  &DialogRepo{base},
	}
}

// Ping checks database connectivity for health probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type repo struct {
	db  *sqlx.DB
	now Clock
}

// wrap maps driver errors onto domain kinds.
func wrap(op, what string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return domain.NotFound(op, what)
	}
	return domain.Persistence(op, err)
}

// expectRow turns a zero-row write into a not-found error.
func expectRow(op, what string, res sql.Result, err error) error {
	if err != nil {
		return domain.Persistence(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Persistence(op, err)
	}
	if n == 0 {
		return domain.NotFound(op, what)
	}
	return nil
}

// column resolves an editable field name against an allow-list.
func column(op string, allowed map[string]string, field string) (string, error) {
	col, ok := allowed[field]
	if !ok {
		return "", domain.Validation(op, "unknown field "+field)
	}
	return col, nil
}
