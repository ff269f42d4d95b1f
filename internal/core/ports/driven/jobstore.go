package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/triagem/internal/core/domain"
)

// JobStore is the job ledger. It records identity, channel and state only.
// Transitions are compare-and-set so a job is dispatched at most once,
// including across replicas sharing a store.
type JobStore interface {
	// Create records a new job. Returns domain.ErrAlreadyExists on duplicate IDs.
	Create(ctx context.Context, rec domain.JobRecord) error

	// Transition moves a job from one state to another atomically.
	// Returns domain.ErrNotFound, domain.ErrJobTerminal or
	// domain.ErrInvalidTransition when the move is not allowed.
	Transition(ctx context.Context, id string, from, to domain.JobState) error

	// Get retrieves a job record by ID.
	Get(ctx context.Context, id string) (*domain.JobRecord, error)

	// Close releases resources.
	Close() error
}

// JobLedger inspects and trims recorded jobs.
// Optional: implemented by stores that keep jobs past their delivery.
type JobLedger interface {
	// List returns the most recently updated jobs, newest first.
	// A non-empty state filters by state.
	List(ctx context.Context, state domain.JobState, limit int) ([]domain.JobRecord, error)

	// Prune deletes terminal jobs last updated before the cutoff.
	Prune(ctx context.Context, before time.Time) (int64, error)
}
