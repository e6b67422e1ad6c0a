package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const maxResponseBodySize = 1 << 20 // 1MB

// Transient transport errors (connection failures, 5xx responses) are
// retried this many times within a single list fetch before the whole
// attempt is reported as one failure to the caller. Client errors (4xx) and
// undecodable bodies are never retried.
const (
	maxTransientRetries = 2
	retryDelay          = 100 * time.Millisecond
)

// connection pooling limits to prevent resource exhaustion when many
// widgets poll the same backend
const (
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultMaxConnsPerHost     = 10
	defaultIdleConnTimeout     = 60 * time.Second
)

// defaultItemsKeys are the object keys tried, in order, when the response
// wraps its list in an object and no explicit items key is configured.
var defaultItemsKeys = []string{"items", "presentations", "workspaces", "jobs"}

// Resource is the wire representation of one remote resource as the
// backend returns it. Fields outside this projection are dropped at decode
// time.
type Resource struct {
	// ID is the backend identity of the resource.
	ID string `json:"id"`

	// Status is the backend-reported processing status.
	Status string `json:"status"`

	// Name is the user-facing display name.
	Name string `json:"name"`

	// FileName is the associated file name, if any.
	FileName string `json:"fileName"`

	// Thumbnail is a reference to the resource's thumbnail, if any.
	Thumbnail string `json:"thumbnail"`

	// UpdatedAt is the backend's last-modified timestamp.
	UpdatedAt time.Time `json:"updatedAt"`
}

// Request describes one resource-list fetch.
type Request struct {
	// URL is the resource collection endpoint.
	URL string

	// Query is appended to the URL's query string.
	Query map[string]string

	// Headers are set on the outgoing request.
	Headers map[string]string

	// ItemsKey names the object key wrapping the list when the response is
	// not a top-level array. Empty tries a set of common keys.
	ItemsKey string
}

// Client is an HTTP client for fetching resource lists.
//
// Timeouts are applied per-request via the context passed to
// [Client.ListResources], not as a global client timeout, so each widget's
// fetch timeout is honored independently. Response bodies are limited to
// 1MB.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a resource-list [Client] with pooled connections.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			// no default timeout - callers bound requests via context
			Transport: &http.Transport{
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				MaxConnsPerHost:     defaultMaxConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
				DisableKeepAlives:   false,
			},
		},
	}
}

// ListResources fetches and decodes one resource list.
//
// Connection errors and 5xx responses are retried up to two times before
// the call fails; 4xx responses and malformed bodies fail immediately. The
// context bounds the whole call including retries.
func (c *Client) ListResources(ctx context.Context, req Request) ([]Resource, error) {
	target, err := buildURL(req.URL, req.Query)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= maxTransientRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
		}

		body, retriable, err := c.fetchOnce(ctx, target, req.Headers)
		if err != nil {
			lastErr = err
			if retriable && ctx.Err() == nil {
				continue
			}
			return nil, err
		}

		resources, err := decodeResources(body, req.ItemsKey)
		if err != nil {
			// malformed payload: retrying the same response is pointless
			return nil, err
		}
		return resources, nil
	}

	return nil, lastErr
}

// fetchOnce performs a single HTTP GET. The second return value reports
// whether a failure is worth retrying.
func (c *Client) fetchOnce(ctx context.Context, target string, headers map[string]string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBodySize))
		retriable := resp.StatusCode >= 500
		return nil, retriable, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, true, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, false, nil
}

// buildURL merges extra query parameters into the endpoint URL.
func buildURL(rawURL string, query map[string]string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}

	if len(query) > 0 {
		values := parsed.Query()
		for k, v := range query {
			values.Set(k, v)
		}
		parsed.RawQuery = values.Encode()
	}
	return parsed.String(), nil
}

// decodeResources decodes a resource list from either a top-level JSON
// array or an object wrapping the list under itemsKey (or, when itemsKey is
// empty, one of a few common keys).
func decodeResources(body []byte, itemsKey string) ([]Resource, error) {
	var list []Resource
	if err := json.Unmarshal(body, &list); err == nil {
		return list, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, fmt.Errorf("malformed payload: %w", err)
	}

	keys := defaultItemsKeys
	if itemsKey != "" {
		keys = []string{itemsKey}
	}

	for _, key := range keys {
		raw, ok := wrapper[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("malformed payload under %q: %w", key, err)
		}
		return list, nil
	}

	if itemsKey != "" {
		return nil, fmt.Errorf("response object has no %q list", itemsKey)
	}
	return nil, fmt.Errorf("response object has no recognizable resource list")
}

// Close closes all idle connections in the client's connection pool.
//
// Safe to call multiple times. After Close, the client remains usable but
// new connections will be established as needed.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}
