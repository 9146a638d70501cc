package peloton

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"pelosync/internal/auth"
)

// BaseURL is the Peloton API domain, distinct from the auth domain.
const BaseURL = "https://api.onepeloton.com"

// APIError is a well-formed non-2xx (or non-JSON) response from the platform.
type APIError struct {
	Status  int
	Message string
	Path    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("peloton API error %d on %s: %s", e.Status, e.Path, e.Message)
}

// Client is an authenticated Peloton API client.
// Construct one per authenticated context; it is not a process-wide singleton.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     *auth.TokenSource
	limiter    *rate.Limiter
	log        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL (used in tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// NewClient creates a new Peloton API client backed by a refreshing token source.
func NewClient(tokens *auth.TokenSource, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    BaseURL,
		tokens:     tokens,
		// The platform throttles aggressive clients; pace well under that.
		limiter: rate.NewLimiter(rate.Every(150*time.Millisecond), 5),
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs an authenticated GET and returns the raw JSON body.
// On HTTP 401 it triggers exactly one token refresh and retries once.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, status, err := c.do(ctx, path, params)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized {
		if _, err := c.tokens.Refresh(); err != nil {
			return nil, err
		}
		body, status, err = c.do(ctx, path, params)
		if err != nil {
			return nil, err
		}
	}

	if status < 200 || status > 299 {
		apiErr := &APIError{Status: status, Path: path, Message: errorMessage(body)}
		c.log.Warn("peloton API error", "path", path, "status", status, "message", apiErr.Message)
		return nil, apiErr
	}

	if !json.Valid(body) {
		apiErr := &APIError{Status: status, Path: path, Message: "malformed JSON response"}
		c.log.Warn("peloton API error", "path", path, "status", status, "message", apiErr.Message)
		return nil, apiErr
	}

	return json.RawMessage(body), nil
}

// do performs one authenticated request. Transport failures are returned
// wrapped; HTTP status handling is the caller's.
func (c *Client) do(ctx context.Context, path string, params url.Values) ([]byte, int, error) {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, err
	}

	tok, err := c.tokens.Token()
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("peloton request failed", "path", path, "error", err)
		return nil, 0, fmt.Errorf("requesting %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		c.log.Warn("peloton response read failed", "path", path, "error", err)
		return nil, 0, fmt.Errorf("reading %s response: %w", path, err)
	}

	return body, resp.StatusCode, nil
}

// GetJSON performs Get and decodes into out.
func (c *Client) GetJSON(ctx context.Context, path string, params url.Values, out any) error {
	raw, err := c.Get(ctx, path, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

// errorMessage pulls a human-readable message from an error body.
func errorMessage(body []byte) string {
	var e struct {
		Message     string `json:"message"`
		ErrorDesc   string `json:"error_description"`
		ErrorString string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil {
		switch {
		case e.Message != "":
			return e.Message
		case e.ErrorDesc != "":
			return e.ErrorDesc
		case e.ErrorString != "":
			return e.ErrorString
		}
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return string(body)
}
