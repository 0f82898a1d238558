package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/viajora/leadnotify/internal/ratelimit"
)

const (
	defaultLimitPerMinute int64 = 600
	backoffStep                 = 10 * time.Millisecond
	backoffMax                  = 50 * time.Millisecond
	windowSeconds               = 60
)

var allowScript = goredis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[2])
end
if current > tonumber(ARGV[1]) then
  return 0
end
return 1
`)

var _ ratelimit.RateLimiter = (*RedisRateLimiter)(nil)

// RedisRateLimiter is a distributed per-minute rate limiter keyed by
// provider, so the window is shared across replicas.
type RedisRateLimiter struct {
	client         *goredis.Client
	limitPerMinute int64
	now            func() time.Time
	sleep          func(ctx context.Context, d time.Duration) error
	script         *goredis.Script
}

func NewRedisRateLimiter(client *goredis.Client, limitPerMinute int) (*RedisRateLimiter, error) {
	return newRedisRateLimiter(
		client,
		int64(limitPerMinute),
		time.Now,
		sleepWithContext,
	)
}

func newRedisRateLimiter(
	client *goredis.Client,
	limitPerMinute int64,
	nowFn func() time.Time,
	sleepFn func(ctx context.Context, d time.Duration) error,
) (*RedisRateLimiter, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if limitPerMinute <= 0 {
		limitPerMinute = defaultLimitPerMinute
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	if sleepFn == nil {
		sleepFn = sleepWithContext
	}

	return &RedisRateLimiter{
		client:         client,
		limitPerMinute: limitPerMinute,
		now:            nowFn,
		sleep:          sleepFn,
		script:         allowScript,
	}, nil
}

func (r *RedisRateLimiter) Allow(ctx context.Context, provider string) (bool, error) {
	if r == nil || r.client == nil || r.script == nil {
		return false, fmt.Errorf("rate limiter is not initialized")
	}

	normalized := strings.ToLower(strings.TrimSpace(provider))
	if normalized == "" {
		return false, fmt.Errorf("provider is required")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	window := r.now().UTC().Unix() / windowSeconds
	key := fmt.Sprintf("ratelimit:%s:%d", normalized, window)
	result, err := r.script.Run(ctx, r.client, []string{key}, r.limitPerMinute, windowSeconds).Int()
	if err != nil {
		return false, fmt.Errorf("failed to evaluate rate limit: %w", err)
	}

	return result == 1, nil
}

func (r *RedisRateLimiter) Wait(ctx context.Context, provider string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	backoff := backoffStep
	for {
		allowed, err := r.Allow(ctx, provider)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}

		if err := r.sleep(ctx, backoff); err != nil {
			return err
		}

		backoff += backoffStep
		if backoff > backoffMax {
			backoff = backoffMax
		}
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
