package openalex

import (
	"errors"
	"fmt"
)

// Common errors returned by the OpenAlex client.
var (
	// ErrRateLimited indicates the rate limit has been exceeded.
	ErrRateLimited = errors.New("OpenAlex rate limit exceeded")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with OpenAlex")

	// ErrInvalidResponse indicates an unexpected API response body.
	ErrInvalidResponse = errors.New("invalid response from OpenAlex")

	// ErrRetriesExhausted indicates the retry budget ran out on a
	// transient failure.
	ErrRetriesExhausted = errors.New("OpenAlex retries exhausted")
)

// APIError represents an error reported by the OpenAlex API itself.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("OpenAlex API error (status %d, code %s): %s", e.StatusCode, e.Code, e.Message)
}

// retryable reports whether an error is transient and worth retrying:
// network failures, malformed bodies, rate limiting, and server errors.
// Client-side errors (bad filter syntax) are permanent.
func retryable(err error) bool {
	if errors.Is(err, ErrNetworkError) || errors.Is(err, ErrInvalidResponse) || errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return false
}
