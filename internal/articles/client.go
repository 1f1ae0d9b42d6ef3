// Headliner - Personalized News Feed Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/headliner

package articles

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/headliner/internal/feed"
)

// ClientConfig configures the article service client.
type ClientConfig struct {
	// URL is the article service base URL.
	URL string `koanf:"url"`

	// APIKey authenticates requests, sent as X-Api-Key.
	APIKey string `koanf:"api_key"`

	// Timeout bounds each HTTP request.
	Timeout time.Duration `koanf:"timeout"`

	// RequestsPerSecond rate-limits outgoing requests. 0 disables limiting.
	RequestsPerSecond float64 `koanf:"requests_per_second"`

	// DefaultLimit is the pool size requested when the query has none.
	DefaultLimit int `koanf:"default_limit"`
}

// Client fetches candidate articles from the article service over HTTP.
type Client struct {
	baseURL      string
	apiKey       string
	client       *http.Client
	limiter      *rate.Limiter
	defaultLimit int
}

// NewClient creates an article service client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit <= 0 {
		defaultLimit = 100
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), int(cfg.RequestsPerSecond)+1)
	}

	return &Client{
		baseURL:      cfg.URL,
		apiKey:       cfg.APIKey,
		client:       &http.Client{Timeout: timeout},
		limiter:      limiter,
		defaultLimit: defaultLimit,
	}
}

// articlesResponse is the service's list envelope.
type articlesResponse struct {
	Articles []feed.Article `json:"articles"`
}

// Fetch returns candidate articles matching the query.
func (c *Client) Fetch(ctx context.Context, q Query) ([]feed.Article, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	limit := q.Limit
	if limit <= 0 {
		limit = c.defaultLimit
	}

	params := url.Values{}
	if q.Language != "" {
		params.Set("language", q.Language)
	}
	if q.Region != "" {
		params.Set("country", q.Region)
	}
	if q.Category != "" {
		params.Set("category", q.Category)
	}
	params.Set("limit", strconv.Itoa(limit))

	reqURL := c.baseURL + "/api/v1/articles?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch articles: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch articles: unexpected status %d", resp.StatusCode)
	}

	var body articlesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode articles: %w", err)
	}
	return body.Articles, nil
}

var _ Source = (*Client)(nil)
