package securitycontext

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"authbridge/internal/bridge/models"
	"authbridge/pkg/platform/sentinel"
)

const redisKeyPrefix = "bridge:principal:"

// RedisStore shares established principals across instances.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed security-context store. The client
// lifecycle is managed externally.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Establish(ctx context.Context, sid string, principal models.Principal) error {
	raw, err := json.Marshal(principal)
	if err != nil {
		return fmt.Errorf("marshal principal: %w", err)
	}
	return s.client.Set(ctx, redisKeyPrefix+sid, raw, s.ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, sid string) (models.Principal, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+sid).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Principal{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.Principal{}, fmt.Errorf("get principal: %w", err)
	}
	var principal models.Principal
	if err := json.Unmarshal(raw, &principal); err != nil {
		return models.Principal{}, fmt.Errorf("unmarshal principal: %w", err)
	}
	return principal, nil
}

func (s *RedisStore) Clear(ctx context.Context, sid string) error {
	return s.client.Del(ctx, redisKeyPrefix+sid).Err()
}
