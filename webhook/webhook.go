// Package webhook posts messages to Discord webhooks.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/go-resty/resty/v2"
)

const (
	maxAttempts = 3
	retryDelay  = 500 * time.Millisecond
)

// StatusError is a non-2xx response from the webhook endpoint.
type StatusError struct {
	Body string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook returned HTTP %d: %s", e.Code, e.Body)
}

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	switch e.Code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Client posts content to webhook URLs.
type Client struct {
	http   *resty.Client
	logger *slog.Logger
	delay  time.Duration
}

// New creates a webhook client with the given per-request timeout.
func New(timeout time.Duration, logger *slog.Logger) *Client {
	c := resty.New()
	c.SetTimeout(timeout)
	return &Client{
		http:   c,
		logger: logger,
		delay:  retryDelay,
	}
}

type payload struct {
	Content string `json:"content"`
}

// Post sends content to webhookURL, retrying transient failures with a fixed delay.
func (c *Client) Post(ctx context.Context, webhookURL, content string) error {
	startTime := time.Now()
	attempts := 0

	err := retry.Do(
		func() error {
			attempts++
			return c.post(ctx, webhookURL, content)
		},
		retry.Attempts(maxAttempts),
		retry.Delay(c.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("Retrying webhook post after error", "attempt", n+1, "error", err)
		}),
		retry.RetryIf(retryable),
	)
	if err != nil {
		return fmt.Errorf("post webhook after %d attempts: %w", attempts, err)
	}

	c.logger.Debug("Webhook post completed", "attempts", attempts, "duration_ms", time.Since(startTime).Milliseconds())
	return nil
}

func (c *Client) post(ctx context.Context, webhookURL, content string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload{Content: content}).
		Post(webhookURL)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	if resp.IsError() || resp.StatusCode() >= 300 {
		return &StatusError{Code: resp.StatusCode(), Body: truncate(resp.String(), 200)}
	}
	return nil
}

// retryable allows another attempt for the listed statuses, connection failures and timeouts.
// A request that could not be built or sent for any other reason fails at once.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}

	// *url.Error satisfies net.Error itself, so look at what it wraps.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true
		}
		err = urlErr.Err
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
