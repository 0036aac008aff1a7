package httputil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/gainerscout/pkg/config"
	"github.com/wonny/gainerscout/pkg/logger"
	"github.com/wonny/gainerscout/pkg/redis"
)

// Client is an HTTP client wrapper with retry logic and logging
// ⭐ SSOT: 모든 HTTP 요청은 이 클라이언트를 통해서만 수행
type Client struct {
	httpClient   *http.Client
	logger       *logger.Logger
	userAgent    string
	policy       RetryPolicy
	retryAfter   RetryAfterFunc
	limiter      *rate.Limiter
	rateLimiter  *redis.RateLimiter
	rateLimitCfg *redis.RateLimitConfig
	redact       func(string) string
}

// RetryAfterFunc extracts a server wait hint from a non-2xx response.
// The default reads the Retry-After header.
type RetryAfterFunc func(header http.Header, body []byte) (time.Duration, bool)

// Response is a fully read HTTP response
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// New creates a new HTTP client from config
// ⭐ SSOT: http.Client 인스턴스는 여기서만 생성
func New(cfg *config.Config, log *logger.Logger) *Client {
	timeout := cfg.HTTP.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second // Default timeout
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:    log,
		userAgent: cfg.HTTP.UserAgent,
		policy:    DefaultPolicy(),
		retryAfter: func(header http.Header, _ []byte) (time.Duration, bool) {
			return ParseRetryAfter(header.Get("Retry-After"), time.Now())
		},
	}
}

// WithPolicy returns a copy of the client using p.
// The copy shares the underlying transport.
func (c *Client) WithPolicy(p RetryPolicy) *Client {
	clone := *c
	clone.policy = p
	return &clone
}

// WithRetryAfter returns a copy that reads wait hints with fn
func (c *Client) WithRetryAfter(fn RetryAfterFunc) *Client {
	clone := *c
	clone.retryAfter = fn
	return &clone
}

// WithLimiter returns a copy that waits on an in-process token bucket before every attempt
func (c *Client) WithLimiter(limiter *rate.Limiter) *Client {
	clone := *c
	clone.limiter = limiter
	return &clone
}

// WithRateLimiter sets the shared (Redis) rate limiter for this client
func (c *Client) WithRateLimiter(limiter *redis.RateLimiter, cfg redis.RateLimitConfig) *Client {
	clone := *c
	clone.rateLimiter = limiter
	clone.rateLimitCfg = &cfg
	return &clone
}

// WithRedactor returns a copy that passes URLs through fn before they are
// logged or placed in errors (e.g. to hide a token in the path)
func (c *Client) WithRedactor(fn func(string) string) *Client {
	clone := *c
	clone.redact = fn
	return &clone
}

// Get performs a GET request
func (c *Client) Get(ctx context.Context, target string) (*Response, error) {
	return c.do(ctx, http.MethodGet, target, "", nil)
}

// Post performs a POST request with body
func (c *Client) Post(ctx context.Context, target string, contentType string, body []byte) (*Response, error) {
	return c.do(ctx, http.MethodPost, target, contentType, body)
}

// PostForm performs a POST request with form data
func (c *Client) PostForm(ctx context.Context, target string, formData url.Values) (*Response, error) {
	return c.Post(ctx, target, "application/x-www-form-urlencoded", []byte(formData.Encode()))
}

// do executes the request with retry logic and logging
func (c *Client) do(ctx context.Context, method, target, contentType string, body []byte) (*Response, error) {
	startTime := time.Now()

	logURL := target
	if c.redact != nil {
		logURL = c.redact(target)
	}

	// Log request
	c.logger.WithFields(map[string]interface{}{
		"method": method,
		"url":    logURL,
	}).Debug("HTTP request started")

	var resp *Response
	err := c.policy.Do(ctx, c.logger, logURL, func(ctx context.Context, attempt int) error {
		r, err := c.attempt(ctx, method, target, logURL, contentType, body)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})

	duration := time.Since(startTime)

	if err != nil {
		c.logger.WithFields(map[string]interface{}{
			"method":   method,
			"url":      logURL,
			"duration": duration,
			"error":    err.Error(),
		}).Debug("HTTP request failed")
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"method":      method,
		"url":         logURL,
		"status_code": resp.StatusCode,
		"duration":    duration,
	}).Debug("HTTP request completed")

	return resp, nil
}

// attempt performs exactly one round trip
func (c *Client) attempt(ctx context.Context, method, target, logURL, contentType string, body []byte) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait failed: %w", err)
		}
	}

	// Check rate limit
	if c.rateLimiter != nil && c.rateLimitCfg != nil {
		if err := c.rateLimiter.Wait(ctx, *c.rateLimitCfg); err != nil {
			return nil, fmt.Errorf("rate limit wait failed: %w", err)
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", method, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		var ue *url.Error
		if c.redact != nil && errors.As(err, &ue) {
			return nil, fmt.Errorf("HTTP request to %s failed: %w", logURL, ue.Err)
		}
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		se := &StatusError{
			URL:        logURL,
			StatusCode: httpResp.StatusCode,
			Body:       data,
		}
		if c.retryAfter != nil {
			se.RetryAfter, se.RetryAfterSet = c.retryAfter(httpResp.Header, data)
		}
		return nil, se
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
	}, nil
}
