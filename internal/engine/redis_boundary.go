package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisCmdable interface {
	Get(context.Context, string) *redis.StringCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Ping(context.Context) *redis.StatusCmd
}

// RedisBoundary keeps the blob under a single Redis key with no expiry.
type RedisBoundary struct {
	client redisCmdable
	key    string
}

// NewRedisBoundary connects to url and verifies connectivity.
func NewRedisBoundary(ctx context.Context, url, key string) (*RedisBoundary, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return newRedisBoundary(client, key), nil
}

func newRedisBoundary(client redisCmdable, key string) *RedisBoundary {
	return &RedisBoundary{client: client, key: key}
}

func (r *RedisBoundary) Load(ctx context.Context) ([]byte, error) {
	blob, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoState
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", r.key, err)
	}
	return blob, nil
}

func (r *RedisBoundary) Save(ctx context.Context, blob []byte) error {
	if err := r.client.Set(ctx, r.key, blob, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}
