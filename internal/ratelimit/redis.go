// Package ratelimit provides a Redis-backed per-client rate limiter.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter applies a token bucket per client key, stored in Redis.
type Limiter struct {
	client *redis.Client
	rate   float64
	burst  int
}

// New connects to Redis and returns a Limiter allowing rps requests per
// second per client with the given burst.
func New(ctx context.Context, redisURL string, rps, burst int) (*Limiter, error) {
	if rps <= 0 || burst <= 0 {
		return nil, fmt.Errorf("rate and burst must be positive, got %d/%d", rps, burst)
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// Connection pool settings
	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)

	// Verify connection
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &Limiter{client: client, rate: float64(rps), burst: burst}, nil
}

// Ping checks Redis connectivity.
func (l *Limiter) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (l *Limiter) Close() error {
	return l.client.Close()
}
