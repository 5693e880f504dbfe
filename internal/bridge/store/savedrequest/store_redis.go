package savedrequest

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

const redisKeyPrefix = "bridge:saved:"

// RedisStore shares suspended requests across instances so the callback can
// resume a request captured elsewhere.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed suspension store. The client lifecycle
// is managed externally.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Save(ctx context.Context, sid string, req models.SavedRequest) error {
	raw, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal saved request: %w", err)
	}
	return s.client.Set(ctx, redisKeyPrefix+sid, raw, s.ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, sid string) (models.SavedRequest, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+sid).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.SavedRequest{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.SavedRequest{}, fmt.Errorf("get saved request: %w", err)
	}
	var req models.SavedRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return models.SavedRequest{}, fmt.Errorf("unmarshal saved request: %w", err)
	}
	return req, nil
}

func (s *RedisStore) Remove(ctx context.Context, sid string) error {
	return s.client.Del(ctx, redisKeyPrefix+sid).Err()
}
