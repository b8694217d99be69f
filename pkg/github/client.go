// Copyright 2026 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the public GitHub API endpoint.
	DefaultBaseURL = "https://api.github.com"

	// DefaultUserAgent identifies the client to GitHub.
	DefaultUserAgent = "ccscorpus/1.0"

	acceptJSON = "application/vnd.github.v3+json"
	acceptDiff = "application/vnd.github.v3.diff"
)

var (
	// ErrNotFound is returned when GitHub answers 404.
	ErrNotFound = errors.New("github: not found")

	// ErrInvalidRepo is returned for repository names not shaped owner/name.
	ErrInvalidRepo = errors.New("github: invalid repository name")
)

// Config configures the client. Zero values take the defaults noted on each
// field.
type Config struct {
	// BaseURL of the API (default: DefaultBaseURL).
	BaseURL string

	// Token is sent as "Authorization: token <Token>" when set.
	Token string

	// UserAgent header (default: DefaultUserAgent).
	UserAgent string

	// Timeout per request (default: 30s).
	Timeout time.Duration

	// MaxRetries for server and transport errors (default: 3).
	MaxRetries int

	// RetryBackoff is the base of the exponential backoff (default: 1s).
	RetryBackoff time.Duration

	// RateLimit in requests per second (default: 1).
	RateLimit float64

	// RateBurst of the limiter (default: 1).
	RateBurst int

	// MaxRateLimitWaits bounds how often one request may wait for a
	// rate-limit reset (default: 10).
	MaxRateLimitWaits int

	// MinRateLimitWait is the shortest reset wait (default: 1s).
	MinRateLimitWait time.Duration

	// ResetSlack is added to the advertised reset time (default: 1s).
	ResetSlack time.Duration

	// Transport overrides the HTTP transport (tests, proxies).
	Transport http.RoundTripper

	// Logger receives retry and wait events (default: slog.Default()).
	Logger *slog.Logger
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = time.Second
	}
	if c.RateLimit <= 0 {
		c.RateLimit = 1
	}
	if c.RateBurst <= 0 {
		c.RateBurst = 1
	}
	if c.MaxRateLimitWaits == 0 {
		c.MaxRateLimitWaits = 10
	}
	if c.MinRateLimitWait == 0 {
		c.MinRateLimitWait = time.Second
	}
	if c.ResetSlack == 0 {
		c.ResetSlack = time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Client is a rate-limited, retrying GitHub API client. It is safe for
// concurrent use.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	now        func() time.Time
}

// New creates a client.
func New(cfg Config) *Client {
	cfg.applyDefaults()
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		now:     time.Now,
	}
}

// HTTPError is a non-2xx GitHub response.
type HTTPError struct {
	StatusCode int
	Message    string
	Header     http.Header
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("github: HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *HTTPError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

type request struct {
	path   string
	query  url.Values
	accept string
}

// do executes a GET with rate limiting, reset waits and retries.
func (c *Client) do(ctx context.Context, req request) ([]byte, error) {
	attempt := 0
	waits := 0
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		start := c.now()
		body, err := c.doOnce(ctx, req)
		observeRequest(err, c.now().Sub(start))
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		var httpErr *HTTPError
		if errors.As(err, &httpErr) {
			if httpErr.StatusCode == http.StatusNotFound {
				return nil, fmt.Errorf("%w: %s", ErrNotFound, req.path)
			}
			if wait, limited := c.rateLimitWait(httpErr); limited && waits < c.cfg.MaxRateLimitWaits {
				waits++
				recordRateLimitWait()
				c.cfg.Logger.Warn("github.ratelimit.wait",
					"path", req.path,
					"status", httpErr.StatusCode,
					"wait", wait.Round(time.Second).String(),
				)
				if err := sleep(ctx, wait); err != nil {
					return nil, err
				}
				continue
			}
			if !httpErr.retryable() {
				return nil, err
			}
		}

		if attempt >= c.cfg.MaxRetries {
			return nil, fmt.Errorf("max retries exceeded: %w", err)
		}
		backoff := time.Duration(1<<uint(attempt)) * c.cfg.RetryBackoff
		attempt++
		recordRetry()
		c.cfg.Logger.Debug("github.retry",
			"path", req.path,
			"attempt", attempt,
			"backoff", backoff.String(),
			"err", err,
		)
		if err := sleep(ctx, backoff); err != nil {
			return nil, err
		}
	}
}

func (c *Client) doOnce(ctx context.Context, req request) ([]byte, error) {
	fullURL := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/" + strings.TrimPrefix(req.path, "/")
	if len(req.query) > 0 {
		fullURL += "?" + req.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	accept := req.accept
	if accept == "" {
		accept = acceptJSON
	}
	httpReq.Header.Set("Accept", accept)
	httpReq.Header.Set("User-Agent", c.cfg.UserAgent)
	if c.cfg.Token != "" {
		httpReq.Header.Set("Authorization", "token "+c.cfg.Token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Message:    truncate(strings.TrimSpace(string(body)), 200),
			Header:     resp.Header,
		}
	}
	return body, nil
}

// rateLimitWait reports whether the error is a primary or secondary rate
// limit and how long to wait before retrying.
func (c *Client) rateLimitWait(e *HTTPError) (time.Duration, bool) {
	if e.StatusCode != http.StatusForbidden && e.StatusCode != http.StatusTooManyRequests {
		return 0, false
	}
	if s := e.Header.Get("Retry-After"); s != "" {
		if secs, err := strconv.Atoi(s); err == nil {
			return max(time.Duration(secs)*time.Second, c.cfg.MinRateLimitWait), true
		}
	}

	exhausted := e.Header.Get("X-RateLimit-Remaining") == "0"
	var reset time.Time
	if s := e.Header.Get("X-RateLimit-Reset"); s != "" {
		if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
			reset = time.Unix(unix, 0)
		}
	}
	now := c.now()
	if !exhausted && !reset.After(now) {
		return 0, false
	}

	wait := c.cfg.MinRateLimitWait
	if !reset.IsZero() {
		wait = max(reset.Sub(now)+c.cfg.ResetSlack, c.cfg.MinRateLimitWait)
	}
	return wait, true
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, target any) error {
	body, err := c.do(ctx, request{path: path, query: query})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
