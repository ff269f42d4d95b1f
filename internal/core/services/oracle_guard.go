package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/triagem/internal/core/domain"
	"github.com/custodia-labs/triagem/internal/core/ports/driven"
)

// Ensure OracleGuard implements the interface.
var _ driven.Oracle = (*OracleGuard)(nil)

// OracleGuard bounds an oracle call with a timeout and normalises its failures.
// Transport failures and timeouts become domain.ErrOracleUnavailable; empty
// output becomes domain.ErrOracleMalformedResponse. It never retries.
type OracleGuard struct {
	oracle  driven.Oracle
	timeout time.Duration
}

// NewOracleGuard wraps oracle. A non-positive timeout uses domain.DefaultOracleTimeout.
func NewOracleGuard(oracle driven.Oracle, timeout time.Duration) *OracleGuard {
	if timeout <= 0 {
		timeout = domain.DefaultOracleTimeout
	}
	return &OracleGuard{oracle: oracle, timeout: timeout}
}

type oracleReply struct {
	text string
	err  error
}

// Invoke calls the wrapped oracle and returns its trimmed verdict.
// The call returns when the timeout expires even if the oracle ignores cancellation.
func (g *OracleGuard) Invoke(ctx context.Context, req domain.OracleRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	done := make(chan oracleReply, 1)
	go func() {
		text, err := g.oracle.Invoke(ctx, req)
		done <- oracleReply{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %s: %w", domain.ErrOracleUnavailable, g.oracle.Name(), ctx.Err())
	case r := <-done:
		if r.err != nil {
			return "", g.mapError(r.err)
		}
		text := strings.TrimSpace(r.text)
		if text == "" {
			return "", fmt.Errorf("%w: %s returned no text", domain.ErrOracleMalformedResponse, g.oracle.Name())
		}
		return text, nil
	}
}

func (g *OracleGuard) mapError(err error) error {
	switch {
	case errors.Is(err, domain.ErrOracleUnavailable),
		errors.Is(err, domain.ErrOracleMalformedResponse),
		errors.Is(err, domain.ErrFormatViolation),
		errors.Is(err, domain.ErrInvalidPolicy),
		errors.Is(err, domain.ErrExtractorUnavailable):
		return err
	default:
		return fmt.Errorf("%w: %s: %w", domain.ErrOracleUnavailable, g.oracle.Name(), err)
	}
}

// Name returns the wrapped oracle's name.
func (g *OracleGuard) Name() string {
	return g.oracle.Name()
}

// AcceptsPDF reports whether the wrapped oracle reads raw PDF bytes.
func (g *OracleGuard) AcceptsPDF() bool {
	return g.oracle.AcceptsPDF()
}

// Ping checks the wrapped oracle within the guard's timeout.
func (g *OracleGuard) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	if err := g.oracle.Ping(ctx); err != nil {
		return g.mapError(err)
	}
	return nil
}

// Close closes the wrapped oracle.
func (g *OracleGuard) Close() error {
	return g.oracle.Close()
}
