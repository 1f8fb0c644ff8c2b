package state

import (
	"context"
	"maps"
	"time"
)

// StateIdle marks a user with no conversation in progress.
const StateIdle = ""

// Session stores conversation state and scratch values for a user.
type Session struct {
	State     string            `json:"state"`
	TempData  map[string]string `json:"temp,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Active reports whether a conversation is in progress.
func (s *Session) Active() bool {
	return s != nil && s.State != StateIdle
}

// Clone returns a deep copy safe to mutate.
func (s *Session) Clone() *Session {
	if s == nil {
		return &Session{TempData: map[string]string{}}
	}
	cp := *s
	cp.TempData = maps.Clone(s.TempData)
	if cp.TempData == nil {
		cp.TempData = map[string]string{}
	}
	return &cp
}

// Manager persists sessions keyed by Telegram user id.
// Get never returns a nil session; an unknown or expired user yields an idle one.
type Manager interface {
	Get(ctx context.Context, userID int64) (*Session, error)
	Save(ctx context.Context, userID int64, s *Session) error
	Clear(ctx context.Context, userID int64) error
}
