package service

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/bookbot/core/logger"
	"github.com/m3rciful/bookbot/internal/domain"
)

// Books manages the catalog.
type Books struct {
	repo BookStore
}

func NewBooks(repo BookStore) *Books {
	return &Books{repo: repo}
}

// Create stores a new book after checking the catalog invariants.
func (s *Books) Create(ctx context.Context, b domain.Book) (domain.Book, error) {
	if err := b.Validate(); err != nil {
		return domain.Book{}, err
	}
	created, err := s.repo.Create(ctx, b)
	if err != nil {
		return domain.Book{}, err
	}
	logger.LogEvent(ctx, logger.SVCBooks, slog.LevelInfo, "book.created",
		slog.Int64("book_id", created.ID),
		slog.String("name", logger.SanitizeLimit(created.Name, 64)),
	)
	return created, nil
}

// UpdateField changes one column. value is parsed according to the column.
func (s *Books) UpdateField(ctx context.Context, id int64, field, value string) error {
	const op = "books.update_field"
	var typed any
	switch field {
	case "price":
		d, err := decimal.NewFromString(value)
		if err != nil || !d.IsPositive() {
			return domain.Validation(op, "price must be greater than zero")
		}
		typed = d
	case "quantity":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return domain.Validation(op, "quantity must not be negative")
		}
		typed = n
	case "name", "author", "description", "photo":
		if strings.TrimSpace(value) == "" {
			return domain.Validation(op, field+" must not be empty")
		}
		typed = value
	default:
		return domain.Validation(op, "unknown field "+field)
	}
	if err := s.repo.UpdateField(ctx, id, field, typed); err != nil {
		return err
	}
	logger.LogEvent(ctx, logger.SVCBooks, slog.LevelInfo, "book.updated",
		slog.Int64("book_id", id),
		slog.String("field", field),
	)
	return nil
}

func (s *Books) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	logger.LogEvent(ctx, logger.SVCBooks, slog.LevelInfo, "book.deleted", slog.Int64("book_id", id))
	return nil
}

func (s *Books) List(ctx context.Context) ([]domain.Book, error) {
	return s.repo.List(ctx)
}

func (s *Books) Get(ctx context.Context, id int64) (domain.Book, error) {
	return s.repo.Get(ctx, id)
}
