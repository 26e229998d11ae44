// Package ratelimit caps submissions per client with Redis fixed windows.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds the window size and the number of requests allowed in it.
type Config struct {
	Limit  int
	Window time.Duration
	Prefix string
}

// DefaultConfig allows 5 submissions per client per 10 minutes.
func DefaultConfig() Config {
	return Config{Limit: 5, Window: 10 * time.Minute, Prefix: "folio:rl"}
}

// Limiter counts requests per key. A nil Redis client allows everything.
type Limiter struct {
	redis  *redis.Client
	config Config
}

func NewLimiter(redisClient *redis.Client, cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.Limit <= 0 {
		cfg.Limit = def.Limit
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.Prefix == "" {
		cfg.Prefix = def.Prefix
	}
	return &Limiter{redis: redisClient, config: cfg}
}

// Allow counts one request for key in the current window and reports
// whether it is within the limit. On Redis errors it allows the request and
// returns the error for logging.
func (l *Limiter) Allow(ctx context.Context, scope, key string) (bool, error) {
	if l == nil || l.redis == nil {
		return true, nil
	}

	k := fmt.Sprintf("%s:%s:%s", l.config.Prefix, scope, key)

	n, err := l.redis.Incr(ctx, k).Result()
	if err != nil {
		return true, fmt.Errorf("rate limit %s: %w", scope, err)
	}
	// The first hit opens the window.
	if n == 1 {
		if err := l.redis.Expire(ctx, k, l.config.Window).Err(); err != nil {
			return true, fmt.Errorf("rate limit %s: %w", scope, err)
		}
	}
	return n <= int64(l.config.Limit), nil
}
