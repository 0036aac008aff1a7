package httputil_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/gainerscout/pkg/config"
	"github.com/wonny/gainerscout/pkg/httputil"
	"github.com/wonny/gainerscout/pkg/logger"
)

// Example_basic demonstrates basic HTTP client usage
func Example_basic() {
	cfg := &config.Config{
		Env:      "production",
		LogLevel: "info",
	}
	log := logger.New(cfg)

	// Create HTTP client (SSOT)
	client := httputil.New(cfg, log)

	resp, err := client.Get(context.Background(), "https://finviz.com/screener.ashx?v=340&s=ta_topgainers")
	if err != nil {
		fmt.Printf("Request failed: %v\n", err)
		return
	}

	fmt.Printf("Status: %d, %d bytes\n", resp.StatusCode, len(resp.Body))
}

// Example_policy demonstrates a rate-limit-only retry policy
func Example_policy() {
	cfg := &config.Config{Env: "production", LogLevel: "info"}
	log := logger.New(cfg)

	// 429만 재시도, 그 외 오류는 즉시 반환
	client := httputil.New(cfg, log).WithPolicy(httputil.RetryPolicy{
		MaxAttempts:    3,
		RateLimitDelay: 3 * time.Second,
		RetryTransient: false,
	})

	_, err := client.Get(context.Background(), "https://finviz.com/quote.ashx?t=AAPL")
	if errors.Is(err, httputil.ErrRetriesExhausted) {
		fmt.Println("Still rate limited after 3 attempts")
		return
	}

	var se *httputil.StatusError
	if errors.As(err, &se) {
		fmt.Printf("Gave up on status %d\n", se.StatusCode)
	}
}
