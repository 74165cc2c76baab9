// Package protocol is the client side of the swim-meet persistence service contract.
package protocol

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

const (
	// ParamDuplicateHandling carries the types.DuplicateHandling of a mutation.
	ParamDuplicateHandling = "duplicate_handling"

	defaultTimeout = 30 * time.Second
	maxErrorBody   = 64 << 10
)

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	Token      string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the persistence service over HTTP.
type Client struct {
	base   *url.URL
	token  string
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("protocol: base URL is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("protocol: parse base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("protocol: unsupported scheme %q", base.Scheme)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		base:   base,
		token:  cfg.Token,
		http:   httpClient,
		logger: logger,
	}, nil
}

// Create POSTs body to route and returns the created record.
func (c *Client) Create(ctx context.Context, route string, body map[string]any, query url.Values) (Record, error) {
	var rec Record
	if err := c.do(ctx, http.MethodPost, route, query, body, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Update PUTs body to route; query scopes the call to an existing record.
func (c *Client) Update(ctx context.Context, route string, body map[string]any, query url.Values) (Record, error) {
	var rec Record
	if err := c.do(ctx, http.MethodPut, route, query, body, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Delete removes the record query scopes to.
func (c *Client) Delete(ctx context.Context, route string, query url.Values) error {
	return c.do(ctx, http.MethodDelete, route, query, nil, nil)
}

// List reads the records route returns for query, in response order.
func (c *Client) List(ctx context.Context, route string, query url.Values) ([]Record, error) {
	var recs []Record
	if err := c.do(ctx, http.MethodGet, route, query, nil, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

func (c *Client) endpoint(route string, query url.Values) string {
	u := c.base.JoinPath(route)
	if strings.HasSuffix(route, "/") && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) do(ctx context.Context, method, route string, query url.Values, body map[string]any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := sonic.Marshal(body)
		if err != nil {
			return fmt.Errorf("protocol: marshal %s body: %w", method, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(route, query), reader)
	if err != nil {
		return fmt.Errorf("protocol: build request: %w", err)
	}
	correlationID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Correlation-ID", correlationID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}

	c.logger.Debug("protocol request", "method", method, "route", route, "query", query.Encode(), "correlation_id", correlationID)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("protocol: %s %s: %w", method, route, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readBackendError(resp, method, route)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("protocol: read %s %s response: %w", method, route, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		return fmt.Errorf("protocol: decode %s %s response: %w", method, route, err)
	}
	return nil
}

// Failure is the JSON body of a structured failure response.
type Failure struct {
	Code   Code              `json:"code"`
	Error  string            `json:"error"`
	Params map[string]string `json:"params,omitempty"`
}

func readBackendError(resp *http.Response, method, route string) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	be := &BackendError{
		Method: method,
		Route:  route,
		Status: resp.StatusCode,
		Text:   strings.TrimSpace(string(data)),
	}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		var sf Failure
		if err := sonic.Unmarshal(data, &sf); err == nil && (sf.Code != "" || sf.Error != "") {
			be.Code = sf.Code
			be.Text = sf.Error
			be.Params = sf.Params
		}
	}
	return be
}
