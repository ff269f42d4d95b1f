package llm

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"empty", "", 0},
		{"seconds", "30", 30 * time.Second},
		{"zero", "0", 0},
		{"negative", "-5", 0},
		{"http date", now.Add(2 * time.Minute).Format(http.TimeFormat), 2 * time.Minute},
		{"date in the past", now.Add(-time.Minute).Format(http.TimeFormat), 0},
		{"garbage", "soon", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRetryAfter(tt.value, now))
		})
	}
}

func TestNewAPIError(t *testing.T) {
	resp := &http.Response{StatusCode: http.StatusTooManyRequests, Header: http.Header{}}
	resp.Header.Set("Retry-After", "12")

	err := NewAPIError("gemini", resp, []byte(strings.Repeat("x", 2000)))

	assert.Equal(t, "gemini", err.Provider)
	assert.Len(t, err.Body, maxErrorBody)
	assert.Equal(t, 12*time.Second, err.RetryAfter)
	assert.True(t, err.IsRateLimited())
	assert.Contains(t, err.Error(), "status 429")

	wait, ok := RateLimited(fmt.Errorf("invoke: %w", err))
	assert.True(t, ok)
	assert.Equal(t, 12*time.Second, wait)

	_, ok = RateLimited(&APIError{StatusCode: http.StatusInternalServerError})
	assert.False(t, ok)
	_, ok = RateLimited(fmt.Errorf("dial tcp: refused"))
	assert.False(t, ok)
}
