package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores values in Redis under a key prefix, so replicas of the
// site share upstream bodies.
type RedisCache struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisCache connects to addr and verifies the connection with PING.
func NewRedisCache(ctx context.Context, addr string, keyPrefix string) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, &CacheError{
			Message:   fmt.Sprintf("ping %s: %v", addr, err),
			Retryable: true,
			Cause:     ErrCauseBackendUnavailable,
		}
	}
	return NewRedisCacheFromClient(client, keyPrefix), nil
}

func NewRedisCacheFromClient(client redis.UniversalClient, keyPrefix string) *RedisCache {
	return &RedisCache{client: client, keyPrefix: keyPrefix}
}

func (r *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, r.fullKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &CacheError{
			Message:   fmt.Sprintf("get %s: %v", key, err),
			Retryable: true,
			Cause:     ErrCauseReadFailure,
		}
	}
	return value, true, nil
}

func (r *RedisCache) Put(ctx context.Context, key string, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := r.client.Set(ctx, r.fullKey(key), value, ttl).Err(); err != nil {
		return &CacheError{
			Message:   fmt.Sprintf("set %s: %v", key, err),
			Retryable: true,
			Cause:     ErrCauseWriteFailure,
		}
	}
	return nil
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

func (r *RedisCache) fullKey(key string) string {
	if r.keyPrefix == "" {
		return key
	}
	return r.keyPrefix + ":" + key
}
