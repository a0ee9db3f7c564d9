package cooldown

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"referral-earn-bot/internal/logger"
)

// Gate limits an action to once per interval per user.
type Gate interface {
	// Acquire claims the action for userID. When the user is still cooling
	// down it returns false and the time left.
	Acquire(ctx context.Context, userID int64) (ok bool, retryAfter time.Duration)
	// Release gives the claim back, e.g. when the action itself failed.
	Release(ctx context.Context, userID int64)
}

// New picks a gate for the configured interval: no limit when interval is
// zero, Redis when a client is given, process memory otherwise.
func New(rdb *redis.Client, prefix string, interval time.Duration) Gate {
	switch {
	case interval <= 0:
		return Unlimited{}
	case rdb != nil:
		return NewRedisGate(rdb, prefix, interval)
	default:
		return NewMemoryGate(interval)
	}
}

type Unlimited struct{}

func (Unlimited) Acquire(context.Context, int64) (bool, time.Duration) { return true, 0 }
func (Unlimited) Release(context.Context, int64)                      {}

// RedisGate stores one expiring key per user. Redis errors let the action
// through.
type RedisGate struct {
	rdb      *redis.Client
	prefix   string
	interval time.Duration
}

func NewRedisGate(rdb *redis.Client, prefix string, interval time.Duration) *RedisGate {
	return &RedisGate{rdb: rdb, prefix: prefix, interval: interval}
}

func (g *RedisGate) key(userID int64) string {
	return fmt.Sprintf("%s:%d", g.prefix, userID)
}

func (g *RedisGate) Acquire(ctx context.Context, userID int64) (bool, time.Duration) {
	key := g.key(userID)
	ok, err := g.rdb.SetNX(ctx, key, time.Now().Unix(), g.interval).Result()
	if err != nil {
		logger.FromContext(ctx).Warn("Cooldown check failed, allowing action", "key", key, "error", err)
		return true, 0
	}
	if ok {
		return true, 0
	}

	ttl, err := g.rdb.TTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		ttl = g.interval
	}
	return false, ttl
}

func (g *RedisGate) Release(ctx context.Context, userID int64) {
	if err := g.rdb.Del(ctx, g.key(userID)).Err(); err != nil {
		logger.FromContext(ctx).Warn("Failed to release cooldown", "user_id", userID, "error", err)
	}
}

// MemoryGate keeps expiry times in process memory.
type MemoryGate struct {
	mu       sync.Mutex
	until    map[int64]time.Time
	interval time.Duration
	now      func() time.Time
}

func NewMemoryGate(interval time.Duration) *MemoryGate {
	return &MemoryGate{
		until:    make(map[int64]time.Time),
		interval: interval,
		now:      time.Now,
	}
}

func (g *MemoryGate) Acquire(_ context.Context, userID int64) (bool, time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if until, ok := g.until[userID]; ok && now.Before(until) {
		return false, until.Sub(now)
	}
	g.until[userID] = now.Add(g.interval)
	return true, 0
}

func (g *MemoryGate) Release(_ context.Context, userID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.until, userID)
}
