package idempotency

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_LockRememberRecall(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute)

	ok, err := s.TryLock(ctx, "orders", "abc")
	require.NoError(t, err)
	assert.True(t, ok)

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
	value, found, err := s.Recall(ctx, "orders", "abc")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "order-1", value)
}

func TestMemoryStore_Release(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute)

	ok, _ := s.TryLock(ctx, "orders", "k")
	require.True(t, ok)
	require.NoError(t, s.Release(ctx, "orders", "k"))

	ok, err := s.TryLock(ctx, "orders", "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(time.Minute)
	s.now = func() time.Time { return now }

	ok, _ := s.TryLock(ctx, "orders", "k")
	require.True(t, ok)
	require.NoError(t, s.Remember(ctx, "orders", "k", "v"))

	now = now.Add(2 * time.Minute)

	_, found, err := s.Recall(ctx, "orders", "k")
	require.NoError(t, err)
	assert.False(t, found)

	ok, err = s.TryLock(ctx, "orders", "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestKey(t *testing.T) {
	r := httptest.NewRequest("POST", "/orders", nil)
	assert.Equal(t, "", Key(r))

	r.Header.Set(Header, "  retry-1 ")
	assert.Equal(t, "retry-1", Key(r))
}

func TestMemoryStore_DropsStaleEntries(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(time.Minute)
	s.now = func() time.Time { return now }

	for _, key := range []string{"a", "b", "c"} {
		ok, err := s.TryLock(ctx, "orders", key)
		require.NoError(t, err)
		require.True(t, ok)
	}
	require.NoError(t, s.Remember(ctx, "orders", "a", "order-a"))
	assert.Len(t, s.locks, 2, "remembering a key drops its lock")
	assert.Len(t, s.values, 1)

	now = now.Add(2 * time.Minute)
	ok, err := s.TryLock(ctx, "payments", "fresh")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Len(t, s.locks, 1)
	assert.Empty(t, s.values)
}
