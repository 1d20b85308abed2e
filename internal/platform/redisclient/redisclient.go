package redisclient

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// New creates a Redis client from a redis:// URL and verifies connectivity.
// The same client backs the advisory lock, the balance cache and the task
// queue.
func New(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}
