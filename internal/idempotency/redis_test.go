package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb, time.Minute), mr
}

func TestRedisStore_LockRememberRecall(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t)

	ok, err := s.TryLock(ctx, "orders", "abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists("idemp:orders:abc"))
	assert.Equal(t, time.Minute, mr.TTL("idemp:orders:abc"))

	ok, err = s.TryLock(ctx, "orders", "abc")
	require.NoError(t, err)
	assert.False(t, ok, "second claim of the same key must fail")

	ok, err = s.TryLock(ctx, "payments", "abc")
	require.NoError(t, err)
	assert.True(t, ok, "scopes are independent")

	_, found, err := s.Recall(ctx, "orders", "abc")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Remember(ctx, "orders", "abc", "order-1"))
	stored, err := mr.Get("idemp:map:orders:abc")
	require.NoError(t, err)
	assert.Equal(t, "order-1", stored)

	value, found, err := s.Recall(ctx, "orders", "abc")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "order-1", value)
}

func TestRedisStore_Release(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t)

	ok, _ := s.TryLock(ctx, "orders", "k")
	require.True(t, ok)
	require.NoError(t, s.Release(ctx, "orders", "k"))
	assert.False(t, mr.Exists("idemp:orders:k"))

	ok, err := s.TryLock(ctx, "orders", "k")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Release(ctx, "orders", "never-locked"))
}

func TestRedisStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t)

	ok, _ := s.TryLock(ctx, "orders", "k")
	require.True(t, ok)
	require.NoError(t, s.Remember(ctx, "orders", "k", "v"))

	mr.FastForward(2 * time.Minute)

	_, found, err := s.Recall(ctx, "orders", "k")
	require.NoError(t, err)
	assert.False(t, found)

	ok, err = s.TryLock(ctx, "orders", "k")
	require.NoError(t, err)
	assert.True(t, ok)
}
