package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "cityinfo:ratelimit"

// RedisLimiter shares fixed-window counters between instances through Redis.
// The counter key expires with its window.
type RedisLimiter struct {
	rdb    redis.Cmdable
	limit  int
	period time.Duration
	prefix string
}

// NewRedisLimiter allows limit requests per key in every period
func NewRedisLimiter(rdb redis.Cmdable, limit int, period time.Duration) *RedisLimiter {
	return &RedisLimiter{
		rdb:    rdb,
		limit:  limit,
		period: period,
		prefix: defaultKeyPrefix,
	}
}

// Allow increments the counter for key. INCR and the window expiry run in one
// MULTI block, so a counter never outlives its window.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	redisKey := l.prefix + ":" + key

	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	_, err := l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		// NX keeps the expiry set by the first request of the window
		pipe.ExpireNX(ctx, redisKey, l.period)
		ttl = pipe.PTTL(ctx, redisKey)
		return nil
	})
	if err != nil {
		return Decision{}, fmt.Errorf("failed to update rate counter: %w", err)
	}

	resetIn := l.period
	if remaining := ttl.Val(); remaining > 0 {
		resetIn = remaining
	}

	return decide(l.limit, incr.Val(), resetIn), nil
}
