package service

import (
	"context"
	"log/slog"

	"github.com/m3rciful/bookbot/core/logger"
	"github.com/m3rciful/bookbot/internal/domain"
)

// Admins manages the administrator list.
type Admins struct {
	repo AdminStore
}

func NewAdmins(repo AdminStore) *Admins {
	return &Admins{repo: repo}
}

// IsAdmin reports whether userID is an administrator. Store errors deny access.
func (s *Admins) IsAdmin(ctx context.Context, userID int64) bool {
	ok, err := s.repo.Exists(ctx, userID)
	if err != nil {
		logWarn(ctx, logger.SVCAdmins, "admin.check_fail", err, slog.Int64("user_id", userID))
		return false
	}
	return ok
}

// RegisterContact adds the user of a shared contact as an admin, or refreshes
// name and phone of an existing one.
func (s *Admins) RegisterContact(ctx context.Context, a domain.Admin) (domain.Admin, error) {
	if a.UserID == 0 {
		return domain.Admin{}, domain.Validation("admins.register", "contact has no Telegram account")
	}
	saved, err := s.repo.Upsert(ctx, a)
	if err != nil {
		return domain.Admin{}, err
	}
	logger.LogEvent(ctx, logger.SVCAdmins, slog.LevelInfo, "admin.registered",
		slog.Int64("user_id", saved.UserID),
		slog.String("role", saved.Role),
	)
	return saved, nil
}

// UpdateField changes one admin column.
func (s *Admins) UpdateField(ctx context.Context, userID int64, field, value string) error {
	if field == "role" && value == "" {
		return domain.Validation("admins.update_field", "role must not be empty")
	}
	if err := s.repo.UpdateField(ctx, userID, field, value); err != nil {
		return err
	}
	logger.LogEvent(ctx, logger.SVCAdmins, slog.LevelInfo, "admin.updated",
		slog.Int64("user_id", userID),
		slog.String("field", field),
	)
	return nil
}

// Delete removes userID. An admin cannot remove themselves, which also keeps
// at least one admin in place.
func (s *Admins) Delete(ctx context.Context, userID, actor int64) error {
	if userID == actor {
		return domain.Validation("admins.delete", "you cannot remove yourself")
	}
	if err := s.repo.Delete(ctx, userID); err != nil {
		return err
	}
	logger.LogEvent(ctx, logger.SVCAdmins, slog.LevelInfo, "admin.deleted",
		slog.Int64("user_id", userID),
		slog.Int64("actor_id", actor),
	)
	return nil
}

func (s *Admins) Get(ctx context.Context, userID int64) (domain.Admin, error) {
	return s.repo.Get(ctx, userID)
}

func (s *Admins) List(ctx context.Context) ([]domain.Admin, error) {
	return s.repo.List(ctx)
}

// Askable lists admins customers may address, those with a display name.
func (s *Admins) Askable(ctx context.Context) ([]domain.Admin, error) {
	return s.repo.ListAskable(ctx)
}

// EnsureBootstrap makes userID an admin when it is not one yet. Zero is ignored.
func (s *Admins) EnsureBootstrap(ctx context.Context, userID int64) error {
	if userID == 0 {
		return nil
	}
	created, err := s.repo.InsertIfMissing(ctx, domain.Admin{UserID: userID, UserName: "owner", Role: domain.RoleAdmin})
	if err != nil {
		return err
	}
	if created {
		logger.LogEvent(ctx, logger.SVCAdmins, slog.LevelInfo, "admin.bootstrapped", slog.Int64("user_id", userID))
	}
	return nil
}
