package middlewares

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window limiter shared by every API instance.
type RedisLimiter struct {
	rdb       *redis.Client
	limit     int
	window    time.Duration
	keyPrefix string
}

func NewRedisLimiter(rdb *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		rdb:       rdb,
		limit:     limit,
		window:    window,
		keyPrefix: "taskhub:ratelimit:",
	}
}

func (rl *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	k := rl.keyPrefix + key

	pipe := rl.rdb.TxPipeline()
	incr := pipe.Incr(ctx, k)
	// NX keeps the first request's expiry, so the window does not slide
	pipe.ExpireNX(ctx, k, rl.window)
	ttl := pipe.PTTL(ctx, k)

	if _, err := pipe.Exec(ctx); err != nil {
		return true, 0, err
	}

	if incr.Val() > int64(rl.limit) {
		retry := ttl.Val()
		if retry < 0 {
			retry = rl.window
		}
		return false, retry, nil
	}

	return true, 0, nil
}
