// Package upstream wraps outbound calls to the main API. Every request
// carries a freshly minted internal bearer credential.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/asc0ltato/summary-api/internal/metrics"
	"github.com/asc0ltato/summary-api/pkg/tokens"
)

// ErrNetwork marks a transport failure where no response was received.
var ErrNetwork = errors.New("main api unreachable")

// StatusError is a non-2xx response from the main API.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("main api returned %d: %s", e.Status, e.Body)
}

const userAgent = "summary-api/1.0"

// Client performs authenticated GET requests against the main API.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  *tokens.Manager
	logger  *slog.Logger
}

// NewClient creates a Client for the given base URL. The token manager
// supplies the credential attached to every outbound request.
func NewClient(baseURL string, tm *tokens.Manager, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		tokens:  tm,
		logger:  logger,
	}
}

// Get performs an authenticated GET against path and returns the raw
// response body. A 401 clears the cached credential before the error is
// surfaced so the next call mints a fresh one. No retries happen here.
func (c *Client) Get(ctx context.Context, path string) (json.RawMessage, error) {
	token, err := c.tokens.Token()
	if err != nil {
		c.logger.Error("failed to obtain internal token", slog.String("error", err.Error()))
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	c.logger.Info("requesting main api", slog.String("url", c.baseURL+path))

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.UpstreamRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(path, "network_error").Inc()
		c.logger.Error("main api request failed",
			slog.String("url", c.baseURL+path),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	metrics.UpstreamRequestsTotal.WithLabelValues(path, strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrNetwork, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.logger.Warn("authentication failed, resetting token cache",
			slog.String("path", path))
		c.tokens.Invalidate()
		return nil, &StatusError{Status: resp.StatusCode, Body: string(body)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("main api error response",
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(body)))
		return nil, &StatusError{Status: resp.StatusCode, Body: string(body)}
	}

	c.logger.Debug("main api response received",
		slog.String("path", path),
		slog.Int("status", resp.StatusCode))

	return body, nil
}
