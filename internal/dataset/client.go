// Package dataset downloads the bulk Semantic Scholar dataset dumps that
// feed extraction: the S2ORC full-text release and the Papers metadata
// release.
package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

const (
	// BaseURL is the Semantic Scholar datasets API base URL.
	BaseURL = "https://api.semanticscholar.org/datasets/v1"

	// DefaultTimeout is the default HTTP request timeout for listing
	// calls. Downloads use no timeout; shard files run to tens of
	// gigabytes.
	DefaultTimeout = 60 * time.Second

	// DatasetS2ORC is the full-text dataset name.
	DatasetS2ORC = "s2orc"

	// DatasetPapers is the paper-metadata dataset name.
	DatasetPapers = "papers"
)

// Client lists release files from the datasets API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPIKey sets the API key for authenticated requests.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// NewClient creates a datasets API client. The API key is read from the
// S2_API_KEY environment variable unless set explicitly.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    BaseURL,
	}

	if key := os.Getenv("S2_API_KEY"); key != "" {
		c.apiKey = key
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// releaseResponse is the datasets API listing body.
type releaseResponse struct {
	Files   []string `json:"files"`
	Message string   `json:"message"`
}

// ReleaseFiles returns the pre-signed shard URLs for one dataset in one
// release.
func (c *Client) ReleaseFiles(ctx context.Context, release, dataset string) ([]string, error) {
	u := fmt.Sprintf("%s/release/%s/dataset/%s",
		c.baseURL, url.PathEscape(release), url.PathEscape(dataset))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing %s release %s: %w", dataset, release, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading listing response: %w", err)
	}

	var listing releaseResponse
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("parsing listing response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if listing.Message != "" {
			return nil, fmt.Errorf("datasets API: %s (HTTP %d)", listing.Message, resp.StatusCode)
		}
		return nil, fmt.Errorf("datasets API: HTTP %d", resp.StatusCode)
	}
	if len(listing.Files) == 0 {
		return nil, fmt.Errorf("release %s has no %s files", release, dataset)
	}
	return listing.Files, nil
}
