package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisManager keeps sessions as JSON values that expire after the TTL.
// Every Save refreshes the expiry so only idle conversations are dropped.
type RedisManager struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisManager returns a Manager backed by client. A ttl of zero disables expiry.
func NewRedisManager(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisManager {
	if prefix == "" {
		prefix = "bookbot:session:"
	}
	return &RedisManager{client: client, prefix: prefix, ttl: ttl}
}

func (m *RedisManager) key(userID int64) string {
	return m.prefix + strconv.FormatInt(userID, 10)
}

func (m *RedisManager) Get(ctx context.Context, userID int64) (*Session, error) {
	raw, err := m.client.Get(ctx, m.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return (*Session)(nil).Clone(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("session decode: %w", err)
	}
	return s.Clone(), nil
}

func (m *RedisManager) Save(ctx context.Context, userID int64, s *Session) error {
	cp := s.Clone()
	cp.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("session encode: %w", err)
	}
	if err := m.client.Set(ctx, m.key(userID), raw, m.ttl).Err(); err != nil {
		return fmt.Errorf("session save: %w", err)
	}
	return nil
}

func (m *RedisManager) Clear(ctx context.Context, userID int64) error {
	if err := m.client.Del(ctx, m.key(userID)).Err(); err != nil {
		return fmt.Errorf("session clear: %w", err)
	}
	return nil
}

// Ping checks connectivity for health probes.
func (m *RedisManager) Ping(ctx context.Context) error {
	return m.client.Ping(ctx).Err()
}
