// Package backend is the typed HTTP client for the GIS REST backend. It
// builds URLs, attaches the bearer token, and decodes the {success, data}
// envelope; it carries no business logic.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mapdesk/geoquery/internal/core/observability"
)

// APIError is a non-2xx or success:false response from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("backend: %s (status %d)", e.Message, e.Status)
	}
	return "backend: " + e.Message
}

// envelope is the one response shape the backend sends.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type Client struct {
	logger  *slog.Logger
	http    *http.Client
	baseURL *url.URL
	token   string
}

func New(logger *slog.Logger, httpClient *http.Client, base, token string) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend url %q must be absolute", base)
	}
	return &Client{
		logger:  logger,
		http:    httpClient,
		baseURL: u,
		token:   token,
	}, nil
}

const maxErrorBody = 8 << 10

// do performs one request and decodes the envelope's data into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")

	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	dur := time.Since(start)
	observability.ObserveUpstreamLatency(routeLabel(method, path), dur.Seconds())
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("close response body", "err", cerr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Status: resp.StatusCode, Message: errorMessage(resp.Header.Get("Content-Type"), raw)}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = env.Error
		}
		if msg == "" {
			msg = "request failed"
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}

func errorMessage(contentType string, raw []byte) string {
	if strings.Contains(contentType, "application/json") {
		var env envelope
		if err := json.Unmarshal(raw, &env); err == nil {
			if env.Message != "" {
				return env.Message
			}
			if env.Error != "" {
				return env.Error
			}
		}
	}
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return "request failed"
	}
	return s
}

// routeLabel collapses IDs out of the metric label to bound cardinality.
func routeLabel(method, path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, p := range parts {
		if i > 0 && parts[i-1] == "datasets" && p != "" {
			parts[i] = "{id}"
		}
		if i > 0 && parts[i-1] == "clippings" && p != "" {
			parts[i] = "{id}"
		}
	}
	return method + " /" + strings.Join(parts, "/")
}
