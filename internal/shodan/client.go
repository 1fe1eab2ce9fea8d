// Package shodan is a minimal client for the Shodan Trends search API and the
// account info endpoint used to validate API keys.
package shodan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const (
	// DefaultEndpoint is the Shodan Trends API base URL.
	DefaultEndpoint = "https://trends.shodan.io"
	// DefaultInfoEndpoint is the Shodan REST API base URL.
	DefaultInfoEndpoint = "https://api.shodan.io"
	// DefaultTimeout bounds a whole search request, body included.
	DefaultTimeout = 90 * time.Second
	// DefaultRateLimit is requests per second.
	DefaultRateLimit = 1.0

	// EndpointEnv overrides the Trends endpoint, mainly for tests against a
	// local mock server.
	EndpointEnv = "STREND_API_URL"

	maxBodySize = 32 << 20
)

// Client calls the Shodan APIs with a fixed API key.
type Client struct {
	endpoint     string
	infoEndpoint string
	key          string
	httpClient   *http.Client
	timeout      time.Duration
	limiter      *rate.Limiter
	logger       *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the Trends API base URL.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = strings.TrimRight(endpoint, "/")
		}
	}
}

// WithInfoEndpoint overrides the base URL used by ValidateKey.
func WithInfoEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint != "" {
			c.infoEndpoint = strings.TrimRight(endpoint, "/")
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRateLimit paces requests to qps per second. Zero or less disables
// pacing.
func WithRateLimit(qps float64) Option {
	return func(c *Client) {
		if qps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(qps), 1)
	}
}

// WithLogger sets the logger for the client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient replaces the underlying HTTP client. Its Timeout is
// overwritten by the client timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a client authenticating with key.
func NewClient(key string, opts ...Option) *Client {
	c := &Client{
		endpoint:     DefaultEndpoint,
		infoEndpoint: DefaultInfoEndpoint,
		key:          key,
		timeout:      DefaultTimeout,
		limiter:      rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
		logger:       slog.Default(),
	}
	if env := os.Getenv(EndpointEnv); env != "" {
		c.endpoint = strings.TrimRight(env, "/")
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	c.httpClient.Timeout = c.timeout
	return c
}

// Endpoint returns the Trends API base URL in use.
func (c *Client) Endpoint() string { return c.endpoint }

// Search runs a historical search and returns the raw JSON body. It does not
// retry.
func (c *Client) Search(ctx context.Context, query, facets string) ([]byte, error) {
	v := url.Values{}
	v.Set("query", query)
	v.Set("facets", facets)
	v.Set("key", c.key)

	start := time.Now()
	body, err := c.get(ctx, c.endpoint+"/api/v1/search?"+v.Encode())
	c.logger.Debug("search finished", "query", query, "facets", facets,
		"elapsed", time.Since(start), "err", err)
	return body, err
}

// ValidateKey checks the key against the account info endpoint.
func (c *Client) ValidateKey(ctx context.Context) error {
	v := url.Values{}
	v.Set("key", c.key)
	_, err := c.get(ctx, c.infoEndpoint+"/api-info?"+v.Encode())
	return err
}

func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &TransportError{Err: eris.Wrap(err, "rate limit")}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &TransportError{Err: eris.Wrap(err, "read response")}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPStatusError{Code: resp.StatusCode, Body: body}
	}
	return body, nil
}

// HTTPStatusError is a non-2xx response.
type HTTPStatusError struct {
	Code int
	Body []byte
}

func (e *HTTPStatusError) Error() string {
	if msg, ok := ErrorMessage(e.Body); ok {
		return fmt.Sprintf("shodan: status %d: %s", e.Code, msg)
	}
	return fmt.Sprintf("shodan: status %d", e.Code)
}

// Message returns the API's error text, or fallback when the body has none.
func (e *HTTPStatusError) Message(fallback string) string {
	if msg, ok := ErrorMessage(e.Body); ok {
		return msg
	}
	return fallback
}

// TransportError is a failure to complete the exchange at all.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "shodan: " + e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the request ran out of time.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// ErrorMessage extracts the "error" field of an API error body.
func ErrorMessage(body []byte) (string, bool) {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Error == "" {
		return "", false
	}
	return payload.Error, true
}
