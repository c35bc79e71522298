// Package flux is a client for FLUX image generation deployments exposed
// through the Azure AI Foundry images API.
package flux

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
	// DefaultAPIVersion is the images API version sent with every request.
	DefaultAPIVersion = "2025-04-01-preview"

	// DefaultTimeout is the default request timeout. Image rendering is
	// slow, so this is far above a typical HTTP timeout.
	DefaultTimeout = 3 * time.Minute

	// DefaultMaxRetries is the default maximum number of retries.
	DefaultMaxRetries = 2
)

// Error represents an images API error.
type Error struct {
	HTTPStatus int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("flux: %s (code=%s, http=%d)", e.Message, e.Code, e.HTTPStatus)
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

// Client is an images API client bound to one deployment.
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

// WithTimeout sets the request timeout.
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

func (c *Client) post(ctx context.Context, path string, body, result any) error {
	bodyData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
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
		err := c.doPost(ctx, path, bodyData, result)
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

func (c *Client) doPost(ctx context.Context, path string, bodyData []byte, result any) error {
	url := fmt.Sprintf("%s/openai/deployments/%s%s?api-version=%s",
		c.config.endpoint, c.config.deployment, path, c.config.apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyData))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Api-Key", c.config.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.config.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
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
