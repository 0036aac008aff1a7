package finviz

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/gainerscout/internal/screenerconfig"
	"github.com/wonny/gainerscout/pkg/config"
	"github.com/wonny/gainerscout/pkg/httputil"
	"github.com/wonny/gainerscout/pkg/logger"
	"github.com/wonny/gainerscout/pkg/redis"
)

// Client handles communication with Finviz
// ⭐ SSOT: Finviz 호출은 이 클라이언트에서만
type Client struct {
	listing  *httputil.Client // screener pages: every failure retried
	detail   *httputil.Client // quote pages: only 429 retried
	screener *screenerconfig.Config
	baseURL  string
	cache    *redis.Cache
	cacheTTL time.Duration
	logger   *logger.Logger
}

// NewClient creates a Finviz client on top of the shared HTTP client
func NewClient(cfg *config.Config, httpClient *httputil.Client, screener *screenerconfig.Config, log *logger.Logger) *Client {
	if screener == nil {
		screener = screenerconfig.Default()
	}

	listing := httpClient.WithPolicy(httputil.RetryPolicy{
		MaxAttempts:    cfg.Finviz.FetchMaxAttempts,
		Delay:          cfg.Finviz.FetchRetryDelay,
		RateLimitDelay: cfg.Finviz.FetchRetryDelay,
		RetryTransient: true,
	})

	detail := httpClient.WithPolicy(httputil.RetryPolicy{
		MaxAttempts:    cfg.Finviz.DetailMaxAttempts,
		RateLimitDelay: cfg.Finviz.DetailRetryDelay,
		RetryTransient: false,
	})
	if cfg.Finviz.DetailRatePerSec > 0 {
		detail = detail.WithLimiter(rate.NewLimiter(rate.Limit(cfg.Finviz.DetailRatePerSec), 1))
	}

	return &Client{
		listing:  listing,
		detail:   detail,
		screener: screener,
		baseURL:  cfg.Finviz.BaseURL,
		cacheTTL: cfg.Finviz.DetailCacheTTL,
		logger:   log,
	}
}

// WithCache enables the detail-page cache
func (c *Client) WithCache(cache *redis.Cache) *Client {
	c.cache = cache
	return c
}

// WithRateLimiter shares the detail-page budget with other processes through Redis
func (c *Client) WithRateLimiter(limiter *redis.RateLimiter) *Client {
	c.detail = c.detail.WithRateLimiter(limiter, redis.FinvizRateLimit)
	return c
}

// ListingURLs returns the configured screener page URLs in page order
func (c *Client) ListingURLs() []string {
	return c.screener.ListingURLs(c.baseURL)
}

// DetailURL returns the quote page URL of ticker
func (c *Client) DetailURL(ticker string) string {
	return c.screener.DetailURL(c.baseURL, ticker)
}
