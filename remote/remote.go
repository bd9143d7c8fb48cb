// CLAUDE:SUMMARY Bearer-token JSON client for the document platform with typed 429/4xx/5xx errors.
// Package remote is the thin HTTP boundary to the document platform. It
// speaks JSON over HTTPS with bearer authentication and converts non-2xx
// responses into typed errors; pacing and retry policy live in the engine,
// not here.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

const maxResponseBytes = 10 * 1024 * 1024

// Config describes one platform connection.
type Config struct {
	// BaseURL is the platform origin, e.g. "https://api.example.com".
	BaseURL string
	// Token is sent as "Authorization: Bearer <token>".
	Token string
	// Version is sent as the platform's version pin header when non-empty.
	Version string
	// Timeout bounds each individual HTTP exchange. Default 30s.
	Timeout time.Duration
}

func (c *Config) defaults() {
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
}

// Response is the decoded result of one successful call.
type Response struct {
	Status int
	Body   map[string]any
	// ID is the created/updated object's ID when the body carried one.
	ID string
	// URL is the object's public URL when the body carried one.
	URL string
}

// Client issues single requests. It is safe for concurrent use.
type Client struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger
}

// New builds a client. logger may be nil for silent operation.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("remote: base URL is required")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("remote: bearer token is required")
	}
	cfg.defaults()
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  logger,
	}, nil
}

// Do issues one request and decodes the JSON response. body may be nil.
// Non-2xx statuses return *RateLimitedError (429) or *APIError; the caller
// decides whether and when to retry.
func (c *Client) Do(ctx context.Context, method, path string, body any) (*Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("remote: encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("remote: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Version != "" {
		req.Header.Set("X-Platform-Version", c.cfg.Version)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("remote: read body for %s %s: %w", method, path, err)
	}

	c.log.DebugContext(ctx, "api call",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitedError{
			Method:     method,
			Path:       path,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Method: method, Path: path, Status: resp.StatusCode}
		var errBody struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &errBody) == nil {
			apiErr.Code = errBody.Code
			apiErr.Message = errBody.Message
		}
		return nil, apiErr
	}

	out := &Response{Status: resp.StatusCode}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out.Body); err != nil {
			return nil, fmt.Errorf("remote: decode %s %s: %w", method, path, err)
		}
	}
	if id, ok := out.Body["id"].(string); ok {
		out.ID = id
	}
	if u, ok := out.Body["url"].(string); ok {
		out.URL = u
	}
	return out, nil
}

// parseRetryAfter accepts both forms the header allows: delay seconds and
// an HTTP date.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
