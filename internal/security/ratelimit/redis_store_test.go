package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisLimiter(t *testing.T) (*Limiter, *RedisStore, *miniredis.Miniredis, *clock) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	clk := &clock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := NewRedisStore(rdb)
	store.now = clk.Now
	l := NewLimiter(store)
	l.now = clk.Now
	return l, store, mr, clk
}

func TestRedisStore_StartsWindow(t *testing.T) {
	_, store, mr, clk := newRedisLimiter(t)
	ctx := context.Background()

	count, resetAt, err := store.Hit(ctx, "rl:k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, clk.Now().Add(time.Minute), resetAt)
	assert.Equal(t, time.Minute, mr.TTL("rl:k"))

	mr.FastForward(20 * time.Second)
	count, resetAt, err = store.Hit(ctx, "rl:k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, clk.Now().Add(40*time.Second), resetAt)
}

func TestRedisStore_RepairsMissingExpiry(t *testing.T) {
	_, store, mr, _ := newRedisLimiter(t)
	require.NoError(t, mr.Set("rl:stale", "3"))

	count, _, err := store.Hit(context.Background(), "rl:stale", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.Equal(t, time.Minute, mr.TTL("rl:stale"))
}

func TestRedisStore_LimitThenReset(t *testing.T) {
	l, _, mr, clk := newRedisLimiter(t)
	ctx := context.Background()
	key := Key("1.2.3.4", "ua", "/api/auth/login")

	for i := 1; i <= 5; i++ {
		res, err := l.Allow(ctx, Auth, key)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "attempt %d", i)
	}
	res, err := l.Allow(ctx, Auth, key)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 15*time.Minute, res.RetryAfter)

	mr.FastForward(15 * time.Minute)
	clk.Advance(15 * time.Minute)

	res, err = l.Allow(ctx, Auth, key)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 4, res.Remaining)
}

func TestRedisStore_ErrorWhenUnavailable(t *testing.T) {
	_, store, mr, _ := newRedisLimiter(t)
	mr.Close()

	_, _, err := store.Hit(context.Background(), "rl:k", time.Minute)
	assert.Error(t, err)
}
