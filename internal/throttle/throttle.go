// Package throttle limits how often an action may run per key.
package throttle

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter reports whether the action for key may run now.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RedisLimiter allows one action per key per window using SET NX with a TTL,
// so the limit holds across every instance sharing the Redis server.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, prefix string, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: prefix, window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.redisKey(key), 1, l.window).Result()
	if err != nil {
		return false, fmt.Errorf("throttle check failed: %w", err)
	}
	return ok, nil
}

// redisKey hashes the key so raw emails never land in Redis.
func (l *RedisLimiter) redisKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return l.prefix + hex.EncodeToString(sum[:])
}

// NewClient parses a redis:// URL and verifies the connection.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}
