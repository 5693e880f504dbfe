package pending

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

const redisKeyPrefix = "bridge:pending:"

// RedisStore is the production implementation for multi-instance deployments
// where the callback may land on a different instance than the initiation.
// Expiry is delegated to Redis key TTLs.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed pending-context store. The client
// lifecycle is managed externally.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Put(ctx context.Context, sid string, pctx models.PendingAuthContext) error {
	raw, err := json.Marshal(pctx)
	if err != nil {
		return fmt.Errorf("marshal pending context: %w", err)
	}
	return s.client.Set(ctx, redisKeyPrefix+sid, raw, s.ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, sid string) (models.PendingAuthContext, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+sid).Bytes()
	if errors.Is(err, redis.Nil) {
		// Redis evicts on TTL, so an expired context is indistinguishable
		// from an absent one; both surface as not found.
		return models.PendingAuthContext{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.PendingAuthContext{}, fmt.Errorf("get pending context: %w", err)
	}
	var pctx models.PendingAuthContext
	if err := json.Unmarshal(raw, &pctx); err != nil {
		return models.PendingAuthContext{}, fmt.Errorf("unmarshal pending context: %w", err)
	}
	return pctx, nil
}

func (s *RedisStore) ClearTicket(ctx context.Context, sid string) error {
	pctx, err := s.Get(ctx, sid)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	pctx.SessionTicket = ""
	raw, err := json.Marshal(pctx)
	if err != nil {
		return fmt.Errorf("marshal pending context: %w", err)
	}
	// Keep the original expiry; consuming the ticket must not extend the flow.
	return s.client.Set(ctx, redisKeyPrefix+sid, raw, redis.KeepTTL).Err()
}

func (s *RedisStore) Delete(ctx context.Context, sid string) error {
	return s.client.Del(ctx, redisKeyPrefix+sid).Err()
}
