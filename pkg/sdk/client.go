// Package sdk provides the client for the remote app_state resource used by cloud sync.
// The resource follows the PostgREST conventions: rows are filtered with
// `username=eq.<name>` and upserted with `on_conflict=username`.
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// ResourcePath is appended to the endpoint to address the app_state collection.
const ResourcePath = "/app_state"

// maxErrorBody bounds how much of a failed response is kept for diagnostics.
const maxErrorBody = 4 << 10

// Client talks to one app_state endpoint with one credential key.
// It never retries; a failed call is reported as-is.
type Client struct {
	endpoint string
	key      string
	http     *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client. Timeouts are the transport's business.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// NewClient returns a client for endpoint (for example https://x.supabase.co/rest/v1).
func NewClient(endpoint, key string, opts ...Option) *Client {
	c := &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		key:      key,
		http:     http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the row for username, or ErrRowNotFound.
func (c *Client) Fetch(ctx context.Context, username string) (AppStateRow, error) {
	q := url.Values{}
	q.Set("username", "eq."+username)
	q.Set("select", "*")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+ResourcePath+"?"+q.Encode(), nil)
	if err != nil {
		return AppStateRow{}, &TransportError{Op: "fetch", Err: err}
	}
	c.authorize(req)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return AppStateRow{}, &TransportError{Op: "fetch", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return AppStateRow{}, failure("fetch", resp)
	}

	var rows []AppStateRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return AppStateRow{}, &TransportError{Op: "fetch", StatusCode: resp.StatusCode, Status: resp.Status, Err: fmt.Errorf("decoding rows: %w", err)}
	}
	if len(rows) == 0 {
		return AppStateRow{}, ErrRowNotFound
	}
	return rows[0], nil
}

// Upsert creates or replaces the row keyed by row.Username.
func (c *Client) Upsert(ctx context.Context, row AppStateRow) error {
	body, err := json.Marshal([]AppStateRow{row})
	if err != nil {
		return fmt.Errorf("encoding row: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+ResourcePath+"?on_conflict=username", bytes.NewReader(body))
	if err != nil {
		return &TransportError{Op: "upsert", Err: err}
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: "upsert", Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		io.Copy(io.Discard, resp.Body)
		return nil
	default:
		return failure("upsert", resp)
	}
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
}

func failure(op string, resp *http.Response) *TransportError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &TransportError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       strings.TrimSpace(string(body)),
	}
}
