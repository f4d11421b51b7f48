package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paideia-dao/paideia-site/pkg/failure"
)

func newTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewRedisCache(context.Background(), mr.Addr(), "paideia-site")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestRedisCache_PutAndGet(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t)

	require.NoError(t, c.Put(ctx, "faq-list", "body", 0))

	value, found, err := c.Get(ctx, "faq-list")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "body", value)

	raw, err := mr.Get("paideia-site:faq-list")
	require.NoError(t, err)
	assert.Equal(t, "body", raw)
}

func TestRedisCache_Miss(t *testing.T) {
	c, _ := newTestRedis(t)
	_, found, err := c.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCache_TTL(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t)

	require.NoError(t, c.Put(ctx, "asset-price:paideia", `{"price":1}`, 30*time.Second))
	assert.Equal(t, 30*time.Second, mr.TTL("paideia-site:asset-price:paideia"))

	mr.FastForward(31 * time.Second)
	_, found, err := c.Get(ctx, "asset-price:paideia")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCache_BackendDown(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t)
	mr.Close()

	_, _, err := c.Get(ctx, "faq-list")
	require.Error(t, err)
	var cacheErr *CacheError
	require.True(t, errors.As(err, &cacheErr))
	assert.Equal(t, ErrCauseReadFailure, cacheErr.Cause)
	assert.Equal(t, failure.SeverityRecoverable, cacheErr.Severity())

	err = c.Put(ctx, "faq-list", "x", 0)
	require.True(t, errors.As(err, &cacheErr))
	assert.Equal(t, ErrCauseWriteFailure, cacheErr.Cause)
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisCache(context.Background(), addr, "")
	var cacheErr *CacheError
	require.True(t, errors.As(err, &cacheErr))
	assert.Equal(t, ErrCauseBackendUnavailable, cacheErr.Cause)
}

func TestRedisCache_NoPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	c := NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "")
	require.NoError(t, c.Put(context.Background(), "faq-list", "v", 0))
	assert.True(t, mr.Exists("faq-list"))
}
