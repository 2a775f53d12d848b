// ABOUTME: HTTP client for the chat backend REST contract
// ABOUTME: JSON request/response plumbing with uniform non-2xx failure handling

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultTimeout bounds every backend call. The browser source relied on
// fetch's own error surfacing with no explicit timeout; a fixed client
// timeout with no retries is the hardening decision made here.
const DefaultTimeout = 30 * time.Second

// BackendError represents a failed backend call: either a transport error
// or a non-2xx response. The engine treats all backend failures uniformly,
// so no status-code-specific branching is exposed.
type BackendError struct {
	Op         string // which call failed, e.g. "init session"
	StatusCode int    // 0 for transport errors
	Err        error  // underlying transport error, if any
}

func (e *BackendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: backend returned status %d", e.Op, e.StatusCode)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Client calls the chat backend REST API. All paths are relative to the
// base URL derived at bootstrap from the widget script's origin.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a backend client for the given base URL. A non-positive
// timeout selects DefaultTimeout. Pass nil logger for default.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With("component", "api"),
	}
}

// postJSON issues a POST with a JSON body and decodes the JSON response
// into out. Any transport error or non-2xx status becomes a BackendError.
func (c *Client) postJSON(ctx context.Context, op, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &BackendError{Op: op, Err: fmt.Errorf("encoding request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return &BackendError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(op, req, out)
}

// getJSON issues a GET and decodes the JSON response into out.
func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &BackendError{Op: op, Err: err}
	}

	return c.do(op, req, out)
}

func (c *Client) do(op string, req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("backend call failed", "op", op, "error", err)
		return &BackendError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused
		io.Copy(io.Discard, resp.Body)
		c.logger.Debug("backend call failed", "op", op, "status", resp.StatusCode)
		return &BackendError{Op: op, StatusCode: resp.StatusCode}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &BackendError{Op: op, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}
