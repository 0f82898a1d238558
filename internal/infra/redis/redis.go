package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const clientName = "leadnotify"

// NewRedis connects the client backing the distributed provider rate
// limiter. The URL carries auth and database selection; a failed ping is a
// startup error, not something to retry lazily.
func NewRedis(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	opts.ClientName = clientName

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}
