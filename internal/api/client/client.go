// Package client provides the HTTP client for the classmart marketplace
// backend. One Client is built per process and shared: it owns the base URL,
// the request timeout, the host authorization header and the normalization
// of failed responses into *APIError.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/donaldgifford/classmart/internal/metrics"
	"github.com/donaldgifford/classmart/pkg/logger"
)

// DefaultTimeout bounds every request made by a Client.
const DefaultTimeout = 10 * time.Second

// AuthScheme prefixes the init token in the Authorization header.
const AuthScheme = "tma"

const requestIDHeader = "X-Request-ID"

// TokenSource returns the current authorization token, or "" when there is
// none. host.Bridge.AuthToken satisfies it.
type TokenSource func() string

// Client is a thin HTTP client for the marketplace API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenSource
	limiter    *rate.Limiter
	log        *slog.Logger
}

// New creates a new API client targeting the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		token:      func() string { return "" },
		log:        logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client. Its Timeout is used as-is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout overrides the request timeout. The HTTP client is copied, so
// a client passed to WithHTTPClient is not modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// WithTokenSource sets where the authorization token comes from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		if ts != nil {
			c.token = ts
		}
	}
}

// WithRateLimiter throttles outgoing requests.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.log = logger.OrDiscard(l)
	}
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// get performs a GET request and decodes the JSON response into dst.
func (c *Client) get(ctx context.Context, route, path string, dst any) error {
	return c.do(ctx, http.MethodGet, route, path, nil, "", dst)
}

// post performs a POST request with a JSON body and decodes the response into dst.
func (c *Client) post(ctx context.Context, route, path string, body, dst any) error {
	var (
		reader      io.Reader
		contentType string
	)
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.do(ctx, http.MethodPost, route, path, reader, contentType, dst)
}

// do sends one request. route is the path template used as a metric label.
func (c *Client) do(
	ctx context.Context,
	method, route, path string,
	body io.Reader,
	contentType string,
	dst any,
) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	reqID := uuid.NewString()
	req.Header.Set(requestIDHeader, reqID)

	// An empty token means no header at all, not an empty credential.
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", AuthScheme+" "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	metrics.APIRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())

	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(method, route, "error").Inc()
		c.log.Debug("api request failed",
			"method", method,
			"route", route,
			"request_id", reqID,
			"duration_ms", elapsed.Milliseconds(),
			"error", err,
		)
		// No response: the caller gets the transport error as it came.
		return err
	}
	defer resp.Body.Close()

	metrics.APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(resp.StatusCode)).Inc()
	c.log.Debug("api request",
		"method", method,
		"route", route,
		"status", resp.StatusCode,
		"request_id", reqID,
		"duration_ms", elapsed.Milliseconds(),
	)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return newAPIError(resp.StatusCode, respBody)
	}

	if dst != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, dst); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
