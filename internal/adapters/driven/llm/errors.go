package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// maxErrorBody bounds the response body kept in an APIError.
const maxErrorBody = 512

// APIError represents a non-2xx response from a provider API.
type APIError struct {
	// Provider names the API that failed (e.g., "gemini").
	Provider string

	// StatusCode is the HTTP status.
	StatusCode int

	// Body is the start of the response body.
	Body string

	// RetryAfter is the wait requested by a 429 or 503 response, if any.
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: API returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// IsRateLimited reports whether the provider refused the call for quota reasons.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// NewAPIError builds an APIError from a response and its body.
func NewAPIError(provider string, resp *http.Response, body []byte) *APIError {
	text := string(body)
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody]
	}
	return &APIError{
		Provider:   provider,
		StatusCode: resp.StatusCode,
		Body:       text,
		RetryAfter: ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
	}
}

// ParseRetryAfter parses a Retry-After header given as seconds or an HTTP date.
// It returns zero when the header is absent or unparsable.
func ParseRetryAfter(value string, now time.Time) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

// RateLimited reports whether err is a provider rate limit and how long to wait.
func RateLimited(err error) (time.Duration, bool) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || !apiErr.IsRateLimited() {
		return 0, false
	}
	return apiErr.RetryAfter, true
}
