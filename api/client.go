// Package api is the JSON-over-HTTP transport used by every console screen.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/initializ/glewlwyd-console/logging"
)

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	BaseURL     string
	Token       string
	TimeoutSecs int
	Logger      logging.Logger
	HTTPClient  *http.Client
}

// Client sends JSON requests to the identity server API. It keeps a cookie
// jar so the registration session survives across calls.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	logger  logging.Logger
}

// NewClient creates a new API client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("api client: base url is required")
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := time.Duration(cfg.TimeoutSecs) * time.Second
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("creating cookie jar: %w", err)
		}
		hc = &http.Client{Timeout: timeout, Jar: jar}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		client:  hc,
		logger:  logger,
	}, nil
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// Do sends a request with an optional JSON body and decodes a JSON response
// into out when out is non-nil. Non-2xx responses are returned as *StatusError.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshalling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+strings.TrimLeft(path, "/"), reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("api request failed", map[string]any{
			"method": method, "path": path, "request_id": reqID, "error": err.Error(),
		})
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("api request", map[string]any{
		"method":      method,
		"path":        path,
		"status":      resp.StatusCode,
		"request_id":  reqID,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Method: method, Path: path, Status: resp.StatusCode, Body: string(respBody)}
	}

	if out != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decoding %s %s response: %w", method, path, err)
		}
	}
	return nil
}
