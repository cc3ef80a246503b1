package queue

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
)

const (
	defaultBaseURL     = "https://queue.fal.run"
	defaultHTTPTimeout = 60 * time.Second
	authScheme         = "Key"
)

// Client wraps the remote generation queue API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option customizes the queue client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the default queue base (useful for tests/mocks).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		base = strings.TrimSpace(base)
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// NewClient constructs a queue client authenticating with the given API key.
func NewClient(apiKey string, opts ...Option) *Client {
	client := &Client{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

// submitEnvelope covers both shapes a submit call can answer with: the async
// queue handle or, for synchronous endpoints, the result body itself.
type submitEnvelope struct {
	RequestID   string          `json:"request_id"`
	StatusURL   string          `json:"status_url"`
	ResponseURL string          `json:"response_url"`
	CancelURL   string          `json:"cancel_url"`
	Images      []Image         `json:"images"`
	Seed        json.Number     `json:"seed"`
	Detail      json.RawMessage `json:"detail"`
}

// Submit posts a payload to the given endpoint id. The answer is either an
// asynchronous handle to poll or, for synchronous endpoints, the finished
// result.
func (c *Client) Submit(ctx context.Context, endpoint string, body map[string]any) (Submission, error) {
	var empty Submission
	endpoint = strings.Trim(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return empty, errors.New("queue submit: endpoint required")
	}
	if c.apiKey == "" {
		return empty, errors.New("queue submit: api key required")
	}

	target, err := url.JoinPath(c.baseURL, endpoint)
	if err != nil {
		return empty, fmt.Errorf("queue submit: build url: %w", err)
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return empty, fmt.Errorf("queue submit: encode payload: %w", err)
	}

	raw, err := c.do(ctx, http.MethodPost, target, bytes.NewReader(encoded))
	if err != nil {
		return empty, fmt.Errorf("queue submit: %w", err)
	}

	var envelope submitEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return empty, fmt.Errorf("queue submit: decode response: %w", err)
	}

	if envelope.RequestID != "" && envelope.StatusURL != "" {
		return Submission{Handle: &Handle{
			RequestID:   envelope.RequestID,
			StatusURL:   envelope.StatusURL,
			ResponseURL: envelope.ResponseURL,
			CancelURL:   envelope.CancelURL,
		}}, nil
	}
	if len(envelope.Images) > 0 {
		return Submission{Result: &Result{
			Images: envelope.Images,
			Seed:   envelope.Seed,
			Raw:    raw,
		}}, nil
	}
	return empty, fmt.Errorf("queue submit: unrecognized response: %s", firstLine(raw))
}

// Status asks the queue for the job's current state, requesting logs so
// failures arrive with context.
func (c *Client) Status(ctx context.Context, handle Handle) (StatusResponse, error) {
	var empty StatusResponse
	if handle.StatusURL == "" {
		return empty, errors.New("queue status: handle missing status url")
	}

	raw, err := c.do(ctx, http.MethodGet, withLogsParam(handle.StatusURL), nil)
	if err != nil {
		return empty, fmt.Errorf("queue status: %w", err)
	}

	var status StatusResponse
	if err := json.Unmarshal(raw, &status); err != nil {
		return empty, fmt.Errorf("queue status: decode response: %w", err)
	}
	normalized, _ := ParseStatus(string(status.Status))
	status.Status = normalized
	return status, nil
}

// Result fetches the finished job's payload.
func (c *Client) Result(ctx context.Context, handle Handle) (Result, error) {
	var empty Result
	if handle.ResponseURL == "" {
		return empty, errors.New("queue result: handle missing response url")
	}

	raw, err := c.do(ctx, http.MethodGet, handle.ResponseURL, nil)
	if err != nil {
		return empty, fmt.Errorf("queue result: %w", err)
	}

	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return empty, fmt.Errorf("queue result: decode response: %w", err)
	}
	result.Raw = raw
	return result, nil
}

// Cancel issues one best-effort cancel request. The queue's answer is
// discarded; only transport-level failures surface, and callers are expected
// to stop polling regardless.
func (c *Client) Cancel(ctx context.Context, handle Handle) error {
	target := handle.CancelURL
	if target == "" {
		target = derivedCancelURL(handle.StatusURL)
	}
	if target == "" {
		return errors.New("queue cancel: handle missing cancel url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, nil)
	if err != nil {
		return fmt.Errorf("queue cancel: request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("queue cancel: request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) do(ctx context.Context, method, target string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	c.authorize(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed after %s: %w", time.Since(start).Round(time.Millisecond), err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Body: firstLine(payload), URL: target, Payload: payload}
	}
	return payload, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", authScheme+" "+c.apiKey)
	}
}

func withLogsParam(statusURL string) string {
	parsed, err := url.Parse(statusURL)
	if err != nil {
		return statusURL
	}
	query := parsed.Query()
	if query.Get("logs") == "" {
		query.Set("logs", "1")
		parsed.RawQuery = query.Encode()
	}
	return parsed.String()
}

// derivedCancelURL rewrites a .../status URL into .../cancel for queues that
// omit the cancel link from the handle.
func derivedCancelURL(statusURL string) string {
	if statusURL == "" {
		return ""
	}
	parsed, err := url.Parse(statusURL)
	if err != nil {
		return ""
	}
	if !strings.HasSuffix(parsed.Path, "/status") {
		return ""
	}
	parsed.Path = strings.TrimSuffix(parsed.Path, "/status") + "/cancel"
	parsed.RawQuery = ""
	return parsed.String()
}

func firstLine(raw []byte) string {
	text := strings.TrimSpace(string(raw))
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	const limit = 200
	if len(text) > limit {
		text = text[:limit]
	}
	return text
}
