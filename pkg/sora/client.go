// Package sora is a client for Sora video generation jobs exposed through
// the Azure AI Foundry video API. Jobs are asynchronous: create, poll until
// terminal, then download the rendered clip.
package sora

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultAPIVersion is the video API version sent with every request.
	DefaultAPIVersion = "preview"

	// DefaultTimeout is the per-request timeout. Job polling uses many
	// short requests, so this stays modest.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxRetries is the default maximum number of retries.
	DefaultMaxRetries = 2
)

// Error represents a video API error.
type Error struct {
	HTTPStatus int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("sora: %s (code=%s, http=%d)", e.Message, e.Code, e.HTTPStatus)
}

// Retryable returns true if the request can be retried.
func (e *Error) Retryable() bool {
	return e.HTTPStatus == http.StatusTooManyRequests || e.HTTPStatus >= 500
}

// AsError extracts *Error from an error.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Client is a video API client.
type Client struct {
	config *clientConfig
}

type clientConfig struct {
	endpoint   string
	apiKey     string
	deployment string
	apiVersion string
	httpClient *http.Client
	timeout    time.Duration
	maxRetries int
}

// Option is a function that configures the client.
type Option func(*clientConfig)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = timeout
	}
}

// WithAPIVersion overrides the API version query parameter.
func WithAPIVersion(version string) Option {
	return func(c *clientConfig) {
		c.apiVersion = version
	}
}

// WithRetry sets the maximum number of retries for transient errors.
func WithRetry(maxRetries int) Option {
	return func(c *clientConfig) {
		c.maxRetries = maxRetries
	}
}

// NewClient creates a client for the deployment hosted at endpoint.
func NewClient(endpoint, apiKey, deployment string, opts ...Option) *Client {
	cfg := &clientConfig{
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     apiKey,
		deployment: deployment,
		apiVersion: DefaultAPIVersion,
		timeout:    DefaultTimeout,
		maxRetries: DefaultMaxRetries,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.httpClient == nil {
		cfg.httpClient = &http.Client{Timeout: cfg.timeout}
	}
	return &Client{config: cfg}
}

func (c *Client) url(path string) string {
	return fmt.Sprintf("%s/openai/v1%s?api-version=%s", c.config.endpoint, path, c.config.apiVersion)
}

// request makes a JSON request with retry on transient errors.
func (c *Client) request(ctx context.Context, method, path string, body, result any) error {
	var bodyData []byte
	if body != nil {
		var err error
		bodyData, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
		err := c.doRequest(ctx, method, path, bodyData, result)
		if err == nil {
			return nil
		}
		lastErr = err
		if apiErr, ok := AsError(err); ok && !apiErr.Retryable() {
			return err
		}
	}
	return lastErr
}

func (c *Client) doRequest(ctx context.Context, method, path string, bodyData []byte, result any) error {
	var bodyReader io.Reader
	if bodyData != nil {
		bodyReader = bytes.NewReader(bodyData)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Api-Key", c.config.apiKey)
	if bodyData != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.config.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return parseError(body, resp.StatusCode)
	}
	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

func parseError(body []byte, httpStatus int) error {
	var wrapped struct {
		Error *Error `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Error != nil {
		wrapped.Error.HTTPStatus = httpStatus
		return wrapped.Error
	}
	return &Error{HTTPStatus: httpStatus, Message: string(body)}
}
