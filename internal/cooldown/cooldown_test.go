package cooldown

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGate(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	gate := NewMemoryGate(time.Hour)
	gate.now = func() time.Time { return now }

	ok, _ := gate.Acquire(ctx, 1)
	assert.True(t, ok)

	now = now.Add(20 * time.Minute)
	ok, retry := gate.Acquire(ctx, 1)
	assert.False(t, ok)
	assert.Equal(t, 40*time.Minute, retry)

	ok, _ = gate.Acquire(ctx, 2)
	assert.True(t, ok, "users cool down independently")

	now = now.Add(40 * time.Minute)
	ok, _ = gate.Acquire(ctx, 1)
	assert.True(t, ok, "claim is free again once the interval passed")
}

func TestMemoryGate_Release(t *testing.T) {
	ctx := context.Background()
	gate := NewMemoryGate(time.Hour)

	ok, _ := gate.Acquire(ctx, 1)
	require.True(t, ok)
	gate.Release(ctx, 1)

	ok, _ = gate.Acquire(ctx, 1)
	assert.True(t, ok)
}

func TestNew_SelectsGate(t *testing.T) {
	assert.IsType(t, Unlimited{}, New(nil, "spin", 0))
	assert.IsType(t, &MemoryGate{}, New(nil, "spin", time.Minute))

	rdb := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	t.Cleanup(func() { _ = rdb.Close() })
	assert.IsType(t, &RedisGate{}, New(rdb, "spin", time.Minute))
}

func TestUnlimited(t *testing.T) {
	for i := 0; i < 3; i++ {
		ok, retry := Unlimited{}.Acquire(context.Background(), 1)
		assert.True(t, ok)
		assert.Zero(t, retry)
	}
}

func TestRedisGate_UnreachableServerAllows(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })
	gate := NewRedisGate(rdb, "spin", time.Hour)

	ok, retry := gate.Acquire(context.Background(), 1)

	assert.True(t, ok)
	assert.Zero(t, retry)
}

func TestRedisGate(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if testing.Short() || addr == "" {
		t.Skip("Skipping redis test: REDIS_TEST_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	prefix := fmt.Sprintf("test_spin_%d", time.Now().UnixNano())
	gate := NewRedisGate(rdb, prefix, time.Minute)
	t.Cleanup(func() { gate.Release(ctx, 1) })

	ok, _ := gate.Acquire(ctx, 1)
	require.True(t, ok)

	ok, retry := gate.Acquire(ctx, 1)
	assert.False(t, ok)
	assert.Greater(t, retry, time.Duration(0))
	assert.LessOrEqual(t, retry, time.Minute)

	gate.Release(ctx, 1)
	ok, _ = gate.Acquire(ctx, 1)
	assert.True(t, ok)
}
