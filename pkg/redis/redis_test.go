package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/gainerscout/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.False(t, client.Enabled(), "Expected client to be disabled")
	assert.NoError(t, client.Close())
}

func TestNilClient_Disabled(t *testing.T) {
	var client *Client
	assert.False(t, client.Enabled())
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(Disabled(), "test")

	// When Redis is disabled, all requests should be allowed
	allowed, remaining, err := limiter.Allow(context.Background(), FinvizRateLimit)
	require.NoError(t, err)
	assert.True(t, allowed, "Expected request to be allowed when Redis disabled")
	assert.Equal(t, FinvizRateLimit.Limit, remaining)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, limiter.Wait(ctx, TelegramRateLimit))
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(Disabled(), "test")
	ctx := context.Background()

	// When Redis is disabled, cache operations should be no-ops
	var result map[string]string
	found, err := cache.Get(ctx, DetailKey("aapl"), &result)
	require.NoError(t, err)
	assert.False(t, found, "Expected cache miss when Redis disabled")

	assert.NoError(t, cache.Set(ctx, DetailKey("aapl"), map[string]string{"sector": "Technology"}, 10*time.Minute))
	assert.NoError(t, cache.Delete(ctx, DetailKey("aapl")))
	assert.False(t, cache.Enabled())
}

func TestCacheKeys(t *testing.T) {
	tests := []struct {
		name     string
		fn       func() string
		expected string
	}{
		{
			name:     "DetailKey upper-cases",
			fn:       func() string { return DetailKey("aapl") },
			expected: "finviz:detail:AAPL",
		},
		{
			name:     "DetailKey keeps symbol",
			fn:       func() string { return DetailKey("BRK-B") },
			expected: "finviz:detail:BRK-B",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}

	cache := NewCache(Disabled(), "scout")
	assert.Equal(t, "scout:cache:finviz:detail:AAPL", cache.fullKey(DetailKey("AAPL")))
}
