package httputil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/gainerscout/pkg/logger"
)

// ErrRetriesExhausted is matched by errors.Is when a RetryPolicy gave up
var ErrRetriesExhausted = errors.New("retries exhausted")

// RetryPolicy is an attempt-then-wait policy.
// The wait is either fixed (Delay) or server specified (Retry-After on 429);
// there is no exponential growth.
type RetryPolicy struct {
	MaxAttempts    int           // total attempts, 0 = unbounded
	Delay          time.Duration // wait after a transient failure
	RateLimitDelay time.Duration // wait after 429 when the server gave no hint
	RetryTransient bool          // also retry network faults and non-429 statuses
}

// DefaultPolicy mirrors the listing fetcher: 3 attempts, 3s waits, everything retried
func DefaultPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		Delay:          3 * time.Second,
		RateLimitDelay: 3 * time.Second,
		RetryTransient: true,
	}
}

// RetryError reports the last failure of an exhausted policy
type RetryError struct {
	Attempts int
	Err      error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("%s after %d attempts: %v", ErrRetriesExhausted, e.Attempts, e.Err)
}

// Unwrap exposes both the sentinel and the last error
func (e *RetryError) Unwrap() []error {
	return []error{ErrRetriesExhausted, e.Err}
}

// StatusError is returned for any non-2xx response
type StatusError struct {
	URL           string
	StatusCode    int
	RetryAfter    time.Duration
	RetryAfterSet bool
	Body          []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s", e.StatusCode, e.URL)
}

// RateLimited reports whether the server answered 429
func (e *StatusError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// Do runs op until it succeeds, the policy gives up, or ctx ends.
// attempt starts at 1.
func (p RetryPolicy) Do(ctx context.Context, log *logger.Logger, target string, op func(ctx context.Context, attempt int) error) error {
	for attempt := 1; ; attempt++ {
		err := op(ctx, attempt)
		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		wait, retry := p.backoff(err)
		if !retry {
			return err
		}
		if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
			return &RetryError{Attempts: attempt, Err: err}
		}

		if log != nil {
			log.WithError(err).WithFields(map[string]interface{}{
				"attempt": attempt,
				"delay":   wait.String(),
				"url":     target,
			}).Warn("Retrying HTTP request")
		}

		if err := Sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// backoff decides whether err is retried and how long to wait first
func (p RetryPolicy) backoff(err error) (time.Duration, bool) {
	var se *StatusError
	if errors.As(err, &se) && se.RateLimited() {
		if se.RetryAfterSet {
			return se.RetryAfter, true
		}
		return p.RateLimitDelay, true
	}
	return p.Delay, p.RetryTransient
}

// Sleep waits for d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ParseRetryAfter reads a Retry-After header value (delta seconds or HTTP date)
func ParseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}

	if at, err := http.ParseTime(value); err == nil {
		d := at.Sub(now)
		if d < 0 {
			d = 0
		}
		return d, true
	}

	return 0, false
}
