package ratelimit

import "context"

// RateLimiter controls outbound message throughput per provider. The queue
// treats a denied token as "try again next tick", never as a send failure.
type RateLimiter interface {
	Allow(ctx context.Context, provider string) (bool, error)
	Wait(ctx context.Context, provider string) error
}
