package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ExposureCacheRepository is the shared (cross-process) exposure cache tier.
// Keys are the composite "context:user:category" strings; values are the raw
// payload JSON.
type ExposureCacheRepository struct {
	client *redis.Client
}

func NewExposureCacheRepository(client *redis.Client) *ExposureCacheRepository {
	return &ExposureCacheRepository{client: client}
}

func (r *ExposureCacheRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get exposure payload from Redis: %w", err)
	}

	return val, true, nil
}

func (r *ExposureCacheRepository) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store exposure payload in Redis: %w", err)
	}

	return nil
}

func (r *ExposureCacheRepository) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete exposure payload from Redis: %w", err)
	}

	return nil
}

func (r *ExposureCacheRepository) Flush(ctx context.Context) error {
	if err := r.client.FlushDB(ctx).Err(); err != nil {
		return fmt.Errorf("failed to flush exposure cache: %w", err)
	}

	return nil
}
