package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestMemoryLimiterBurstThenRefill(t *testing.T) {
	l := NewMemoryLimiter(3, time.Minute)
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow(ctx, "user-1"), "attempt %d", i)
	}
	assert.False(t, l.Allow(ctx, "user-1"))
	assert.True(t, l.Allow(ctx, "user-2"))

	now = now.Add(20 * time.Second)
	assert.True(t, l.Allow(ctx, "user-1"))
}

func TestMemoryLimiterDisabled(t *testing.T) {
	l := NewMemoryLimiter(0, time.Minute)
	for i := 0; i < 10; i++ {
		assert.True(t, l.Allow(context.Background(), "k"))
	}
}

func TestMemoryLimiterCleanup(t *testing.T) {
	l := NewMemoryLimiter(1, time.Minute)
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	l.Allow(context.Background(), "old")
	now = now.Add(time.Hour)
	l.Allow(context.Background(), "fresh")

	assert.Equal(t, 1, l.Cleanup(10*time.Minute))
	assert.Len(t, l.visitors, 1)
}

func TestNilRedisLimiterAllows(t *testing.T) {
	var l *RedisLimiter
	assert.True(t, l.Allow(context.Background(), "k"))
}

func newRedisLimiter(t *testing.T, limit int, window time.Duration) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisLimiter(client, "ratelimit:", limit, window), mr
}

func TestRedisLimiterFixedWindow(t *testing.T) {
	l, mr := newRedisLimiter(t, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow(ctx, "user-1"), "attempt %d", i)
	}
	assert.False(t, l.Allow(ctx, "user-1"))
	assert.True(t, l.Allow(ctx, "user-2"))

	assert.Equal(t, "4", mustGet(t, mr, "ratelimit:user-1"))
	assert.Equal(t, time.Minute, mr.TTL("ratelimit:user-1"))

	mr.FastForward(time.Minute + time.Second)
	assert.True(t, l.Allow(ctx, "user-1"))
}

func TestRedisLimiterFailsOpen(t *testing.T) {
	l, mr := newRedisLimiter(t, 1, time.Minute)
	ctx := context.Background()
	assert.True(t, l.Allow(ctx, "user-1"))
	assert.False(t, l.Allow(ctx, "user-1"))

	mr.Close()
	assert.True(t, l.Allow(ctx, "user-1"))

	var disabled *RedisLimiter
	assert.True(t, disabled.Allow(ctx, "user-1"))
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, key string) string {
	t.Helper()
	v, err := mr.Get(key)
	if err != nil {
		t.Fatalf("get %s: %v", key, err)
	}
	return v
}
