package openalex

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	// BaseURL is the OpenAlex works endpoint.
	BaseURL = "https://api.openalex.org/works"

	// DefaultRateLimit is requests per second. OpenAlex allows 10 rps
	// for polite-pool users (those sending a mailto).
	DefaultRateLimit = 10.0

	// PerPage is the page size requested for every query. A 50-item
	// identifier batch always fits in one page.
	PerPage = 100

	// DefaultMaxRetries bounds retries of transient failures before the
	// error is surfaced to the caller.
	DefaultMaxRetries = 5

	// retryBaseDelay is the first backoff interval; it doubles per
	// attempt.
	retryBaseDelay = time.Second
)

// Client is a rate-limited HTTP client for the OpenAlex works API.
// Transient failures are retried a bounded number of times with
// exponential backoff instead of looping forever.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	mailto     string
	apiKey     string
	maxRetries int
	sleep      func(time.Duration) // replaceable in tests
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL sets a custom endpoint URL (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

// WithRateLimit sets the request rate in requests per second.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// WithMaxRetries sets the transient-failure retry budget.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) { c.maxRetries = n }
}

// NewClient creates an OpenAlex client. The mailto address identifies the
// caller to OpenAlex; its MD5 hex digest doubles as the API key, per the
// OpenAlex documentation.
func NewClient(mailto string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
		baseURL:    BaseURL,
		mailto:     mailto,
		maxRetries: DefaultMaxRetries,
		sleep:      time.Sleep,
	}
	if mailto != "" {
		c.apiKey = fmt.Sprintf("%x", md5.Sum([]byte(mailto)))
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListWorks queries the works endpoint with the given filter expression
// and returns the first page of results. Transient failures are retried
// with exponential backoff up to the configured budget; exhaustion returns
// an error wrapping ErrRetriesExhausted.
func (c *Client) ListWorks(ctx context.Context, filter string) ([]Work, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := retryBaseDelay << (attempt - 1)
			c.sleep(delay)
		}

		works, err := c.listOnce(ctx, filter)
		if err == nil {
			return works, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !retryable(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, c.maxRetries, lastErr)
}

func (c *Client) listOnce(ctx context.Context, filter string) ([]Work, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("per-page", fmt.Sprint(PerPage))
	params.Set("filter", filter)
	if c.mailto != "" {
		params.Set("mailto", c.mailto)
		params.Set("api_key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrNetworkError, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	}

	var parsed listResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if resp.StatusCode >= 400 {
			return nil, &APIError{StatusCode: resp.StatusCode, Code: "http_error", Message: fmt.Sprintf("HTTP %d", resp.StatusCode)}
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	if parsed.ErrorMsg != "" {
		return nil, &APIError{StatusCode: resp.StatusCode, Code: parsed.ErrorMsg, Message: parsed.Message}
	}
	if resp.StatusCode >= 400 {
		return nil, &APIError{StatusCode: resp.StatusCode, Code: "http_error", Message: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}

	return parsed.Results, nil
}
