// Package fetch provides the HTTP client used by all outbound calls to
// news and trends endpoints, with bounded retries for transient failures.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"sentinela/internal/core"
	"sentinela/internal/logger"
)

const (
	defaultTimeout = 15 * time.Second
	maxRetries     = 2
	baseDelay      = 1 * time.Second

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Client wraps http.Client with retry and rate-limit classification.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a client with the given request timeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Get fetches url and returns the response body. Server errors and network
// failures are retried with exponential backoff; HTTP 429 fails immediately
// with core.ErrRateLimited and other client errors fail without retry.
func (c *Client) Get(ctx context.Context, url string, header http.Header) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := baseDelay * time.Duration(1<<(attempt-1))
			logger.Debug("retrying request", "url", url, "attempt", attempt, "delay", delay.String())
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		body, err := c.do(ctx, url, header)
		if err == nil {
			return body, nil
		}
		if !core.IsTransient(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("request failed after %d retries: %w", maxRetries, lastErr)
}

func (c *Client) do(ctx context.Context, url string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, core.Transient(fmt.Errorf("request to %s failed: %w", url, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%s: %w", url, core.ErrRateLimited)
	case resp.StatusCode >= 500:
		return nil, core.Transient(fmt.Errorf("%s returned status %d", url, resp.StatusCode))
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%s returned status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, core.Transient(fmt.Errorf("failed to read response from %s: %w", url, err))
	}
	return body, nil
}
