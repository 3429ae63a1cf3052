// Package search queries the recipe search index over its HTTP API.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"recipeshare/internal/config"
	dom "recipeshare/internal/domain"
)

const maxLimit = 50

// Client talks to one index. It is safe for concurrent use.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

// NewClient builds a Client from cfg. cfg.Host must be set.
func NewClient(cfg config.SearchConfig) (*Client, error) {
	if cfg.Host == "" {
		return nil, errors.New("search: host is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.Host, "/"))
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") {
		return nil, fmt.Errorf("search: invalid host %q", cfg.Host)
	}
	timeout := cfg.Timeout.Duration()
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Client{
		endpoint: base.String() + "/indexes/" + url.PathEscape(cfg.Index) + "/search",
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: timeout},
	}, nil
}

type searchRequest struct {
	Q     string `json:"q"`
	Limit int    `json:"limit"`
}

type searchResponse struct {
	Hits []dom.SearchHit `json:"hits"`
}

// Search returns up to limit hits for q. A blank query returns no hits without a call.
func (c *Client) Search(ctx context.Context, q string, limit int) ([]dom.SearchHit, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []dom.SearchHit{}, nil
	}
	if limit <= 0 || limit > maxLimit {
		limit = maxLimit
	}
	b, err := json.Marshal(searchRequest{Q: q, Limit: limit})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("search: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("search: index returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("search: decode: %w", err)
	}
	if out.Hits == nil {
		out.Hits = []dom.SearchHit{}
	}
	return out.Hits, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}
