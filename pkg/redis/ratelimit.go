package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter implements sliding window rate limiting using Redis.
// It is shared by every process scraping with the same prefix, so a
// scheduled run and a manual run do not double the request rate.
// ⭐ SSOT: 레이트 리밋은 여기서만
type RateLimiter struct {
	client *Client
	prefix string
	poll   time.Duration
}

// RateLimitConfig defines rate limit parameters
type RateLimitConfig struct {
	Key    string        // Unique identifier (e.g., "finviz", "telegram")
	Limit  int           // Maximum requests allowed
	Window time.Duration // Time window
}

// sliding window: drop expired entries, count, admit if below limit
var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])
	local member = ARGV[5]

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local count = redis.call('ZCARD', key)
	if count < limit then
		redis.call('ZADD', key, now, member)
		redis.call('PEXPIRE', key, window_ms)
		return {1, limit - count - 1}
	end
	return {0, 0}
`)

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(client *Client, prefix string) *RateLimiter {
	return &RateLimiter{
		client: client,
		prefix: prefix,
		poll:   100 * time.Millisecond,
	}
}

// Allow checks if a request is allowed under the rate limit
// Returns (allowed, remaining, error)
func (r *RateLimiter) Allow(ctx context.Context, cfg RateLimitConfig) (bool, int, error) {
	if !r.client.Enabled() {
		// If Redis is disabled, allow all requests
		return true, cfg.Limit, nil
	}

	key := fmt.Sprintf("%s:ratelimit:%s", r.prefix, cfg.Key)
	now := time.Now()
	windowStart := now.UnixMilli() - cfg.Window.Milliseconds()

	// 같은 밀리초에 들어온 요청도 구분되도록 나노초를 멤버로 사용
	member := fmt.Sprintf("%d", now.UnixNano())

	result, err := slidingWindow.Run(ctx, r.client.Redis(), []string{key},
		now.UnixMilli(),
		windowStart,
		cfg.Limit,
		cfg.Window.Milliseconds(),
		member,
	).Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit script failed: %w", err)
	}

	allowed := result[0].(int64) == 1
	remaining := int(result[1].(int64))

	return allowed, remaining, nil
}

// Wait blocks until a request is allowed or context is cancelled
func (r *RateLimiter) Wait(ctx context.Context, cfg RateLimitConfig) error {
	for {
		allowed, _, err := r.Allow(ctx, cfg)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.poll):
		}
	}
}

// Predefined rate limit configs for external services
var (
	// Finviz: 초당 2회 (보수적, 429 회피)
	FinvizRateLimit = RateLimitConfig{
		Key:    "finviz",
		Limit:  2,
		Window: time.Second,
	}

	// Telegram: 채널당 분당 20회
	TelegramRateLimit = RateLimitConfig{
		Key:    "telegram",
		Limit:  20,
		Window: time.Minute,
	}
)
