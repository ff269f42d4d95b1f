package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/triagem/internal/adapters/driven/llm"
	"github.com/custodia-labs/triagem/internal/core/domain"
	"github.com/custodia-labs/triagem/internal/core/ports/driven"
)

// Ensure RateLimited implements the interface.
var _ driven.Oracle = (*RateLimited)(nil)

// DefaultBackoff is the wait applied after a 429 without a Retry-After header.
const DefaultBackoff = 60 * time.Second

// RateLimitConfig holds rate limiting configuration for an oracle.
type RateLimitConfig struct {
	// RequestsPerMinute is the sustained rate. Zero disables the token bucket.
	RequestsPerMinute int

	// Burst is the maximum burst size (default: 1).
	Burst int
}

// RateLimited decorates an Oracle with a token bucket and a backoff window.
// It never retries: a rate-limited call fails and later calls wait out the window.
type RateLimited struct {
	oracle  driven.Oracle
	limiter *rate.Limiter

	mu      sync.Mutex
	retryAt time.Time
	now     func() time.Time
}

// NewRateLimited wraps oracle with the given limits.
func NewRateLimited(oracle driven.Oracle, cfg RateLimitConfig) *RateLimited {
	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(cfg.RequestsPerMinute) / 60.0)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &RateLimited{
		oracle:  oracle,
		limiter: rate.NewLimiter(limit, burst),
		now:     time.Now,
	}
}

// Invoke waits for a slot, then calls the wrapped oracle.
func (r *RateLimited) Invoke(ctx context.Context, req domain.OracleRequest) (string, error) {
	if err := r.wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %s: waiting for rate limit: %w", domain.ErrOracleUnavailable, r.oracle.Name(), err)
	}

	out, err := r.oracle.Invoke(ctx, req)
	if wait, limited := llm.RateLimited(err); limited {
		r.recordRateLimit(wait)
		slog.WarnContext(ctx, "oracle rate limited", "oracle", r.oracle.Name(), "retry_after", r.backoff(wait))
	}
	return out, err
}

// wait blocks until the backoff window has passed and a token is available.
func (r *RateLimited) wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if d := retryAt.Sub(r.now()); d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return r.limiter.Wait(ctx)
}

func (r *RateLimited) backoff(wait time.Duration) time.Duration {
	if wait <= 0 {
		return DefaultBackoff
	}
	return wait
}

// recordRateLimit opens or extends the backoff window.
func (r *RateLimited) recordRateLimit(wait time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	until := r.now().Add(r.backoff(wait))
	if until.After(r.retryAt) {
		r.retryAt = until
	}
}

// RetryAt returns the end of the current backoff window.
func (r *RateLimited) RetryAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.retryAt
}

// Name returns the wrapped oracle name.
func (r *RateLimited) Name() string {
	return r.oracle.Name()
}

// AcceptsPDF reports whether the wrapped oracle accepts PDF bytes.
func (r *RateLimited) AcceptsPDF() bool {
	return r.oracle.AcceptsPDF()
}

// Ping checks the wrapped oracle without consuming a token.
func (r *RateLimited) Ping(ctx context.Context) error {
	return r.oracle.Ping(ctx)
}

// Close closes the wrapped oracle.
func (r *RateLimited) Close() error {
	return r.oracle.Close()
}
