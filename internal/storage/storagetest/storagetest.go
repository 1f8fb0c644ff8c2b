// Package storagetest opens an in-memory SQLite store with the production schema
// translated to the SQLite dialect.
package storagetest

import (
	"context"
	"testing"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/bookbot/internal/domain"
	"github.com/m3rciful/bookbot/internal/storage"
)

// Schema mirrors migrations/000001_init.up.sql in the SQLite dialect.
const Schema = `
CREATE TABLE books (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL, author TEXT NOT NULL, price TEXT NOT NULL,
    description TEXT NOT NULL, photo TEXT NOT NULL,
    quantity INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
    created_at TIMESTAMP NOT NULL
);
CREATE TABLE order_statuses (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL UNIQUE, description TEXT NOT NULL, client_message TEXT NOT NULL,
    emoji TEXT NOT NULL DEFAULT '', position INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE orders (
    id INTEGER PRIMARY KEY,
    customer_id INTEGER NOT NULL, full_name TEXT NOT NULL, address TEXT NOT NULL, phone TEXT NOT NULL,
    book_id INTEGER REFERENCES books (id) ON DELETE SET NULL,
    book_info TEXT NOT NULL,
    status_id INTEGER NOT NULL REFERENCES order_statuses (id),
    created_at TIMESTAMP NOT NULL, updated_at TIMESTAMP NOT NULL
);
CREATE TABLE admins (
    id INTEGER PRIMARY KEY,
    user_id INTEGER NOT NULL UNIQUE, user_name TEXT NOT NULL DEFAULT '', phone TEXT NOT NULL DEFAULT '',
    role TEXT NOT NULL DEFAULT 'admin', display_name TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL
);
CREATE TABLE texts (kind TEXT PRIMARY KEY, body TEXT NOT NULL, updated_at TIMESTAMP NOT NULL);
CREATE TABLE dialogs (
    id INTEGER PRIMARY KEY,
    customer_id INTEGER NOT NULL, admin_id INTEGER NOT NULL,
    question TEXT NOT NULL, answer TEXT NOT NULL DEFAULT '',
    is_closed BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP NOT NULL, updated_at TIMESTAMP NOT NULL
);
CREATE UNIQUE INDEX dialogs_one_open_idx ON dialogs (customer_id, admin_id) WHERE NOT is_closed;
CREATE TABLE dialog_messages (
    id INTEGER PRIMARY KEY,
    dialog_id INTEGER NOT NULL REFERENCES dialogs (id) ON DELETE CASCADE,
    author_id INTEGER NOT NULL, role TEXT NOT NULL, body TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);
`

// Clock advances one second per call so timestamps are strictly increasing.
type Clock struct{ t time.Time }

func (c *Clock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

// NewStore returns a store with the status catalog seeded.
func NewStore(t testing.TB) *storage.Store {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(Schema)
	require.NoError(t, err)

	clock := &Clock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	s := storage.New(db, clock.Now)
	_, err = s.Statuses.Seed(context.Background(), domain.DefaultStatuses())
	require.NoError(t, err)
	return s
}

