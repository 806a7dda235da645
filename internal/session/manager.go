// Package session implements the opaque-token session store backed by Redis.
package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"quill/internal/observability"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

// Manager creates, resolves and destroys login sessions. Tokens are opaque
// UUIDs; the user ID lives only on the server side.
type Manager struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewManager returns a Manager storing sessions with the given TTL.
func NewManager(client *redis.Client, ttl time.Duration) *Manager {
	return &Manager{redis: client, ttl: ttl}
}

// Create issues a new session token for the user.
func (m *Manager) Create(ctx context.Context, userID uint) (string, error) {
	token := uuid.New().String()
	key := keyPrefix + token
	if err := m.redis.Set(ctx, key, strconv.FormatUint(uint64(userID), 10), m.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	observability.RecordSessionEvent("created")
	return token, nil
}

// Resolve returns the user ID a token maps to. The second return value is
// false when the token is unknown or expired.
func (m *Manager) Resolve(ctx context.Context, token string) (uint, bool, error) {
	if token == "" {
		return 0, false, nil
	}
	val, err := m.redis.Get(ctx, keyPrefix+token).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to look up session: %w", err)
	}
	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		// A corrupt mapping is treated as no session.
		return 0, false, nil
	}
	return uint(id), true, nil
}

// Destroy removes the session. Destroying an unknown token is not an error.
func (m *Manager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := m.redis.Del(ctx, keyPrefix+token).Err(); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	observability.RecordSessionEvent("destroyed")
	return nil
}
