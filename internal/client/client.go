// ABOUTME: HTTP client for the link-indexing API
// ABOUTME: Owns the base address and bearer credential shared by every outbound call

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout bounds every request unless the caller configures otherwise
const DefaultTimeout = 30 * time.Second

// Client is the transport context for the API. The credential is attached
// and detached only by the session manager; everything else just reads it.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu         sync.RWMutex
	credential string
}

// New creates a new API client with the given base URL
func New(baseURL string) *Client {
	return NewWithTimeout(baseURL, DefaultTimeout)
}

// NewWithTimeout creates a new API client with the given request timeout
func NewWithTimeout(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL returns the API base address
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetCredential attaches a bearer token to every subsequent request
func (c *Client) SetCredential(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.credential = token
}

// ClearCredential detaches the bearer token
func (c *Client) ClearCredential() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.credential = ""
}

// HasCredential reports whether a bearer token is attached
func (c *Client) HasCredential() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.credential != ""
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.credential
}

// envelope is the response wrapper used by every endpoint
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// do issues a request and decodes the envelope's data into out (if non-nil)
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Debug("API request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return c.handleRequestError(ctx, err)
	}
	defer resp.Body.Close()

	slog.Debug("API request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start),
	)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindNetwork, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.handleErrorResponse(resp.StatusCode, raw)
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		if out != nil {
			return &Error{Kind: KindDecode, StatusCode: resp.StatusCode, Err: errors.New("empty response from backend")}
		}
		return nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &Error{Kind: KindDecode, StatusCode: resp.StatusCode, Err: fmt.Errorf("invalid response from backend: %w", err)}
	}
	if env.Success != nil && !*env.Success {
		return &Error{Kind: KindValidation, StatusCode: resp.StatusCode, Message: env.Error}
	}

	if out == nil {
		return nil
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return &Error{Kind: KindDecode, StatusCode: resp.StatusCode, Err: errors.New("response from backend has no data")}
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &Error{Kind: KindDecode, StatusCode: resp.StatusCode, Err: fmt.Errorf("invalid response from backend: %w", err)}
	}
	return nil
}

// handleRequestError converts transport errors to user-friendly messages
func (c *Client) handleRequestError(ctx context.Context, err error) error {
	if ctx.Err() == context.Canceled {
		return &Error{Kind: KindNetwork, Err: fmt.Errorf("request canceled: %w", err)}
	}
	if ctx.Err() == context.DeadlineExceeded {
		return &Error{Kind: KindNetwork, Err: fmt.Errorf("request timed out: %w", err)}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return &Error{Kind: KindNetwork, Err: fmt.Errorf("request timed out: %w", err)}
	}
	return &Error{Kind: KindNetwork, Err: fmt.Errorf("cannot connect to backend at %s: %w", c.baseURL, err)}
}

// handleErrorResponse parses API error responses
func (c *Client) handleErrorResponse(status int, raw []byte) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &Error{Kind: kindForStatus(status), StatusCode: status}
	}
	return &Error{Kind: kindForStatus(status), StatusCode: status, Message: env.Error}
}

// escape makes an identifier safe to embed in a path segment
func escape(id string) string {
	return url.PathEscape(id)
}
