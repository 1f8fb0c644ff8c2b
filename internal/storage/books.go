package storage

import (
	"context"

	"github.com/m3rciful/bookbot/internal/domain"
)

// BookRepo persists the catalog.
type BookRepo struct{ repo }

var bookColumns = map[string]string{
	"name":        "name",
	"author":      "author",
	"price":       "price",
	"description": "description",
	"photo":       "photo",
	"quantity":    "quantity",
}

const bookSelect = `SELECT id, name, author, price, description, photo, quantity, created_at FROM books`

// Create inserts b and returns it with id and created_at set.
func (r *BookRepo) Create(ctx context.Context, b domain.Book) (domain.Book, error) {
	const op = "books.create"
	b.CreatedAt = r.now()
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO books (name, author, price, description, photo, quantity, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		b.Name, b.Author, b.Price, b.Description, b.Photo, b.Quantity, b.CreatedAt,
	).Scan(&b.ID)
	if err != nil {
		return domain.Book{}, wrap(op, "book", err)
	}
	return b, nil
}

// Get loads one book.
func (r *BookRepo) Get(ctx context.Context, id int64) (domain.Book, error) {
	var b domain.Book
	err := r.db.GetContext(ctx, &b, bookSelect+` WHERE id = $1`, id)
	return b, wrap("books.get", "book", err)
}

// List returns the catalog in insertion order.
func (r *BookRepo) List(ctx context.Context) ([]domain.Book, error) {
	var books []domain.Book
	err := r.db.SelectContext(ctx, &books, bookSelect+` ORDER BY id`)
	return books, wrap("books.list", "books", err)
}

// UpdateField writes a single column; value must already be validated.
func (r *BookRepo) UpdateField(ctx context.Context, id int64, field string, value any) error {
	const op = "books.update_field"
	col, err := column(op, bookColumns, field)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE books SET `+col+` = $1 WHERE id = $2`, value, id)
	return expectRow(op, "book", res, err)
}

// Delete removes the book. Orders keep their snapshot and lose the reference.
func (r *BookRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	return expectRow("books.delete", "book", res, err)
}
