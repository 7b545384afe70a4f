// Package platform encapsulates outbound calls to the contact-center
// platform API and normalizes its divergent digital/legacy response
// shapes into one contract for the orchestrator and handlers.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// APIError carries the upstream status and payload so handlers can relay
// the platform's own error detail.
type APIError struct {
	Status int
	Body   json.RawMessage
}

func (e *APIError) Error() string {
	return fmt.Sprintf("platform: upstream status %d", e.Status)
}

// IsAuth reports whether the failure calls for re-authentication rather
// than a generic error.
func (e *APIError) IsAuth() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// Client issues authenticated calls against a regional platform endpoint.
type Client struct {
	http    *http.Client
	baseURL func(region string) string

	configCache *lru.Cache[string, *FlowConfiguration]
}

// Option adjusts client construction.
type Option func(*Client)

// WithBaseURL overrides endpoint derivation, mainly for tests.
func WithBaseURL(fn func(region string) string) Option {
	return func(c *Client) { c.baseURL = fn }
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient builds a client with a bounded request timeout and a small
// LRU over flow configurations, which are fetched repeatedly during
// batch testing but change rarely.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http: &http.Client{Timeout: 10 * time.Second},
		baseURL: func(region string) string {
			return "https://api." + strings.TrimSpace(region)
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	cache, err := lru.New[string, *FlowConfiguration](1024)
	if err == nil {
		c.configCache = cache
	}
	return c
}

// do performs one JSON request and returns the status and body. Transport
// errors are returned as-is; HTTP error statuses are the caller's problem.
func (c *Client) do(ctx context.Context, method, region, token, path string, body any) (int, json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("platform: encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL(region)+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("platform: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("platform: read response: %w", err)
	}
	return resp.StatusCode, raw, nil
}
