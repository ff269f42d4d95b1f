package driving

import (
	"context"

	"github.com/custodia-labs/triagem/internal/core/domain"
)

// TriageService classifies documents and dispatches verdicts.
type TriageService interface {
	// Triage runs one job end to end: validate, classify, dispatch.
	// Cheap preconditions are checked before the oracle is called.
	Triage(ctx context.Context, req domain.TriageRequest) (*domain.TriageOutcome, error)

	// Classify classifies a document without dispatching.
	Classify(ctx context.Context, doc domain.Document) (*domain.ClassificationResult, error)

	// Policy returns the policy the next job will use.
	Policy() *domain.Policy

	// Instruction returns the instruction compiled from the current policy
	// and the stored preamble, as handed to the oracle.
	Instruction() string
}

// DispatchService delivers classified jobs to their channel.
type DispatchService interface {
	// Dispatch delivers the job's verdict. The job must be Classified.
	// Each job is attempted at most once.
	Dispatch(ctx context.Context, job *domain.NotificationJob) (*domain.DeliveryReceipt, error)
}
