package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/gainerscout/internal/finviz"
	"github.com/wonny/gainerscout/pkg/config"
	"github.com/wonny/gainerscout/pkg/httputil"
	"github.com/wonny/gainerscout/pkg/logger"
	"github.com/wonny/gainerscout/pkg/redis"
)

// defaultRetryAfter is used when a 429 carries no hint at all
const defaultRetryAfter = 3 * time.Second

// Notifier posts records to a Telegram channel
// ⭐ SSOT: Telegram Bot API 호출은 여기서만
type Notifier struct {
	httpClient *httputil.Client
	endpoint   string
	channelID  string
	enabled    bool
	logger     *logger.Logger
}

// apiResponse is the Bot API envelope
type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
	Parameters  struct {
		RetryAfter *int `json:"retry_after"`
	} `json:"parameters"`
}

// NewNotifier creates a notifier; it is a no-op when BOT_TOKEN is empty
func NewNotifier(cfg *config.Config, httpClient *httputil.Client, log *logger.Logger) *Notifier {
	tg := cfg.Telegram

	client := httpClient.
		WithPolicy(httputil.RetryPolicy{
			MaxAttempts:    tg.MaxAttempts,
			RateLimitDelay: defaultRetryAfter,
			RetryTransient: false,
		}).
		WithRetryAfter(retryAfter)

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(tg.BaseURL, "/"), tg.BotToken)
	if tg.BotToken != "" {
		client = client.WithRedactor(func(u string) string {
			return strings.ReplaceAll(u, tg.BotToken, "<token>")
		})
	}

	return &Notifier{
		httpClient: client,
		endpoint:   endpoint,
		channelID:  tg.ChannelID,
		enabled:    tg.Enabled(),
		logger:     log,
	}
}

// WithRateLimiter paces sends through the shared Redis limiter
func (n *Notifier) WithRateLimiter(limiter *redis.RateLimiter) *Notifier {
	n.httpClient = n.httpClient.WithRateLimiter(limiter, redis.TelegramRateLimit)
	return n
}

// Enabled reports whether a bot token is configured
func (n *Notifier) Enabled() bool {
	return n.enabled
}

// Send posts one HTML message, waiting out rate limits
func (n *Notifier) Send(ctx context.Context, text string) error {
	form := url.Values{}
	form.Set("chat_id", n.channelID)
	form.Set("text", text)
	form.Set("parse_mode", "HTML")

	resp, err := n.httpClient.PostForm(ctx, n.endpoint, form)
	if err != nil {
		return n.describe(err)
	}

	var body apiResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !body.OK {
		return fmt.Errorf("telegram error %d: %s", body.ErrorCode, body.Description)
	}
	return nil
}

// SendAll sends one message per record, in order.
// A failed record is logged and skipped.
func (n *Notifier) SendAll(ctx context.Context, records []*finviz.StockRecord) (sent, failed int) {
	if !n.enabled {
		n.logger.Info("Telegram disabled (BOT_TOKEN not set), skipping notifications")
		return 0, 0
	}

	for _, record := range records {
		if ctx.Err() != nil {
			failed += len(records) - sent - failed
			break
		}

		if err := n.Send(ctx, FormatRecord(record)); err != nil {
			failed++
			n.logger.WithError(err).WithField("ticker", record.Ticker).Error("Failed to send message")
			continue
		}
		sent++
		n.logger.WithField("ticker", record.Ticker).Info("Message sent successfully.")
	}

	n.logger.WithFields(map[string]interface{}{
		"sent":   sent,
		"failed": failed,
	}).Info("Notifications completed")

	return sent, failed
}

// describe prefers the Bot API description over the raw status error
func (n *Notifier) describe(err error) error {
	var se *httputil.StatusError
	if errors.As(err, &se) {
		msg := fmt.Sprintf("telegram error %d", se.StatusCode)
		var body apiResponse
		if json.Unmarshal(se.Body, &body) == nil && body.Description != "" {
			msg += ": " + body.Description
		}

		var re *httputil.RetryError
		if errors.As(err, &re) {
			return fmt.Errorf("%s after %d attempts: %w", msg, re.Attempts, httputil.ErrRetriesExhausted)
		}
		return errors.New(msg)
	}

	return err
}

// retryAfter prefers parameters.retry_after from the body over the header
func retryAfter(header http.Header, body []byte) (time.Duration, bool) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Parameters.RetryAfter != nil && *resp.Parameters.RetryAfter >= 0 {
		return time.Duration(*resp.Parameters.RetryAfter) * time.Second, true
	}
	return httputil.ParseRetryAfter(header.Get("Retry-After"), time.Now())
}
