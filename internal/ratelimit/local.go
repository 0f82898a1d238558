package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

const defaultPerMinute = 600

var _ RateLimiter = (*LocalRateLimiter)(nil)

// LocalRateLimiter is an in-process token bucket per provider. Suitable for
// single-instance deployments; multi-instance setups should use the Redis
// limiter instead.
type LocalRateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*rate.Limiter
	perMinute int
}

func NewLocalRateLimiter(perMinute int) *LocalRateLimiter {
	if perMinute <= 0 {
		perMinute = defaultPerMinute
	}
	return &LocalRateLimiter{
		limiters:  make(map[string]*rate.Limiter),
		perMinute: perMinute,
	}
}

func (l *LocalRateLimiter) limiter(provider string) (*rate.Limiter, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return nil, fmt.Errorf("provider is required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters[provider]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(float64(l.perMinute)/60.0), l.perMinute)
		l.limiters[provider] = limiter
	}
	return limiter, nil
}

func (l *LocalRateLimiter) Allow(ctx context.Context, provider string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	limiter, err := l.limiter(provider)
	if err != nil {
		return false, err
	}
	return limiter.Allow(), nil
}

func (l *LocalRateLimiter) Wait(ctx context.Context, provider string) error {
	limiter, err := l.limiter(provider)
	if err != nil {
		return err
	}
	return limiter.Wait(ctx)
}
