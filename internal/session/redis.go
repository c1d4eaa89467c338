package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists session entries as JSON payloads with a TTL. Expiry is
// handled by Redis itself, so there is no eviction sweep to run.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

type redisPayload struct {
	UserID      int64     `json:"user_id"`
	RoleID      int64     `json:"role_id"`
	DisplayName string    `json:"display_name"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewRedisStore constructs a RedisStore with the given session lifetime.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Put stores or replaces the entry for sessionID.
func (s *RedisStore) Put(ctx context.Context, sessionID string, entry Entry) error {
	payload := redisPayload{
		UserID:      entry.UserID,
		RoleID:      entry.RoleID,
		DisplayName: entry.DisplayName,
		Permissions: entry.Permissions(),
		CreatedAt:   entry.CreatedAt,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisKey(sessionID), data, s.ttl).Err()
}

// Get returns the entry for sessionID if present and not expired.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (Entry, bool, error) {
	data, err := s.client.Get(ctx, redisKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Entry{}, false, nil
		}
		return Entry{}, false, err
	}
	var payload redisPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Entry{}, false, err
	}
	entry := NewEntry(payload.UserID, payload.RoleID, payload.DisplayName, payload.Permissions)
	entry.CreatedAt = payload.CreatedAt
	return entry, true, nil
}

// Invalidate removes the entry for sessionID.
func (s *RedisStore) Invalidate(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, redisKey(sessionID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

func redisKey(id string) string {
	return "session:" + id
}

var _ Store = (*RedisStore)(nil)
