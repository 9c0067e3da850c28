package deduplication

import (
	"context"
	"errors"
	"fmt"
	"time"

	"qacurator/config"

	"github.com/redis/go-redis/v9"
)

// redisCommands is the subset of *redis.Client the cache uses.
type redisCommands interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisCache stores embeddings as binary values with native key expiry.
type RedisCache struct {
	client redisCommands
	closer func() error
	prefix string
}

// NewRedisCache connects to redis and verifies connectivity.
func NewRedisCache(cfg config.Cache) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}

	return &RedisCache{client: client, closer: client.Close, prefix: cfg.RedisKeyPrefix}, nil
}

// NewRedisCacheWithClient wraps a preconfigured client.
func NewRedisCacheWithClient(client redisCommands, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

func (r *RedisCache) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer()
}

func (r *RedisCache) Get(ctx context.Context, key string) ([][]float32, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	vecs, _, err := decodeVectors(data)
	if err != nil {
		return nil, false, err
	}
	return vecs, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, vectors [][]float32, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Redis enforces expiry itself; the stored header carries none
	data, err := encodeVectors(vectors, time.Time{})
	if err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}
	return r.client.Set(ctx, r.prefix+key, data, ttl).Err()
}
