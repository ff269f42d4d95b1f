package driven

import (
	"context"

	"github.com/custodia-labs/triagem/internal/core/domain"
)

// Oracle produces a free-text verdict for a document under a compiled instruction.
// It is untrusted relative to format; callers validate the verdict.
type Oracle interface {
	// Invoke returns the raw verdict text.
	Invoke(ctx context.Context, req domain.OracleRequest) (string, error)

	// Name identifies the oracle in logs and receipts.
	Name() string

	// AcceptsPDF reports whether the oracle can read raw PDF bytes.
	AcceptsPDF() bool

	// Ping validates the oracle is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// PolicySource supplies the classification policy for each job.
// Implementations may reload the policy between jobs.
type PolicySource interface {
	// Current returns the policy to use for a new job.
	Current() *domain.Policy
}
