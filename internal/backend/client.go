// Package backend fetches rendered Alibaba search pages from a realtime
// scraping API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/maltedev/sourcing-triads/internal/ratelimit"
)

const (
	DefaultURL     = "https://realtime.oxylabs.io/v1/queries"
	DefaultTimeout = 120 * time.Second

	searchSource  = "alibaba_search"
	userAgentType = "desktop_chrome"
	renderMode    = "html"
)

var (
	ErrNoResults    = errors.New("backend returned no results")
	ErrUnauthorized = errors.New("backend rejected credentials")
)

type Config struct {
	URL        string
	Username   string
	Password   string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

type Client struct {
	cfg     Config
	http    *http.Client
	limiter ratelimit.Limiter
	logger  *slog.Logger
}

type searchRequest struct {
	Source        string `json:"source"`
	UserAgentType string `json:"user_agent_type"`
	Render        string `json:"render"`
	Query         string `json:"query"`
}

type searchResponse struct {
	Results []struct {
		Content    string `json:"content"`
		StatusCode int    `json:"status_code"`
		URL        string `json:"url"`
	} `json:"results"`
}

// requestError marks whether a failed attempt is worth repeating.
type requestError struct {
	err       error
	retryable bool
}

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func NewClient(cfg Config, limiter ratelimit.Limiter, logger *slog.Logger) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
		logger:  logger.With("component", "backend"),
	}
}

// FetchSearchPage returns the rendered search results HTML for query.
func (c *Client) FetchSearchPage(ctx context.Context, query string) (string, error) {
	body, err := json.Marshal(searchRequest{
		Source:        searchSource,
		UserAgentType: userAgentType,
		Render:        renderMode,
		Query:         query,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.cfg.RetryDelay * time.Duration(1<<(attempt-1))
			c.logger.Warn("retrying search", "query", query, "attempt", attempt, "delay", delay, "error", lastErr)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}

		html, err := c.do(ctx, body)
		c.record(err)
		if err == nil {
			c.logger.Info("search page fetched", "query", query, "bytes", len(html), "attempts", attempt+1)
			return html, nil
		}

		var reqErr *requestError
		if !errors.As(err, &reqErr) || !reqErr.retryable {
			return "", err
		}
		lastErr = err
	}

	return "", fmt.Errorf("search failed after %d attempts: %w", c.cfg.MaxRetries+1, lastErr)
}

func (c *Client) do(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.cfg.Username, c.cfg.Password)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &requestError{err: fmt.Errorf("request failed: %w", err), retryable: true}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &requestError{err: fmt.Errorf("failed to read response: %w", err), retryable: true}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", ErrUnauthorized
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", &requestError{err: fmt.Errorf("backend status %d", resp.StatusCode), retryable: true}
	case resp.StatusCode >= 400:
		return "", fmt.Errorf("backend status %d: %s", resp.StatusCode, truncate(data, 200))
	}

	return ContentFromResponse(data)
}

func (c *Client) record(err error) {
	fb, ok := c.limiter.(ratelimit.Feedback)
	if !ok {
		return
	}
	if err != nil {
		fb.RecordError()
	} else {
		fb.RecordSuccess()
	}
}

// ContentFromResponse pulls the page HTML out of a raw backend response.
func ContentFromResponse(data []byte) (string, error) {
	var resp searchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(resp.Results) == 0 || resp.Results[0].Content == "" {
		return "", ErrNoResults
	}
	return resp.Results[0].Content, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
