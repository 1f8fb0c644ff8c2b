package service

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/m3rciful/bookbot/core/logger"
	"github.com/m3rciful/bookbot/internal/domain"
)

// MinTextLength is the shortest editable text accepted.
const MinTextLength = 5

var defaultTexts = map[domain.TextKind]string{
	domain.TextGreeting:     "👋 Welcome to our bookstore! Browse the gallery, order a book or ask us anything.",
	domain.TextGallery:      "📚 Here is what we have in stock:",
	domain.TextOrderPretext: "🛒 Pick a book to order:",
}

// Texts serves the editable greeting, gallery and order texts.
type Texts struct {
	repo TextStore
}

func NewTexts(repo TextStore) *Texts {
	return &Texts{repo: repo}
}

// Get returns the stored text of kind or its built-in default.
func (s *Texts) Get(ctx context.Context, kind domain.TextKind) (string, error) {
	t, err := s.repo.Get(ctx, kind)
	switch {
	case err == nil:
		return t.Body, nil
	case domain.IsKind(err, domain.KindNotFound):
		return defaultTexts[kind], nil
	}
	return "", err
}

// Set replaces the text of kind.
func (s *Texts) Set(ctx context.Context, kind domain.TextKind, body string) error {
	const op = "texts.set"
	if !kind.Valid() {
		return domain.Validation(op, "unknown text "+string(kind))
	}
	body = strings.TrimSpace(body)
	if utf8.RuneCountInString(body) < MinTextLength {
		return domain.Validation(op, "text must be at least 5 characters long")
	}
	if err := s.repo.Upsert(ctx, kind, body); err != nil {
		return err
	}
	logger.LogEvent(ctx, logger.SVCTexts, slog.LevelInfo, "text.updated",
		slog.String("kind", string(kind)),
		slog.Int("length", utf8.RuneCountInString(body)),
	)
	return nil
}
