package storage

import (
	"context"

	"github.com/m3rciful/bookbot/internal/domain"
)

// TextRepo persists one row per editable text kind.
type TextRepo struct{ repo }

// Get loads the text of kind.
func (r *TextRepo) Get(ctx context.Context, kind domain.TextKind) (domain.Text, error) {
	var t domain.Text
	err := r.db.GetContext(ctx, &t, `SELECT kind, body, updated_at FROM texts WHERE kind = $1`, kind)
	return t, wrap("texts.get", "text "+string(kind), err)
}

// Upsert replaces the text of kind.
func (r *TextRepo) Upsert(ctx context.Context, kind domain.TextKind, body string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO texts (kind, body, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (kind) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		kind, body, r.now())
	return wrap("texts.upsert", "text", err)
}
