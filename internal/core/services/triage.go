package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/triagem/internal/core/domain"
	"github.com/custodia-labs/triagem/internal/core/ports/driven"
	"github.com/custodia-labs/triagem/internal/core/ports/driving"
	"github.com/custodia-labs/triagem/internal/core/rules"
)

// Ensure TriageService implements the interface.
var _ driving.TriageService = (*TriageService)(nil)

// TriageConfig holds optional behaviour of the triage service.
type TriageConfig struct {
	// Timeout bounds each oracle call. Defaults to domain.DefaultOracleTimeout.
	Timeout time.Duration

	// CrossCheck classifies every document locally as well and logs disagreements.
	CrossCheck bool

	// Prompts supplies the stored instruction preamble.
	Prompts driven.PromptStore
}

// TriageService runs one intimation through classification and dispatch.
type TriageService struct {
	oracle     *OracleGuard
	policies   driven.PolicySource
	jobs       driven.JobStore
	dispatcher driving.DispatchService
	prompts    driven.PromptStore
	crossCheck bool
	now        func() time.Time
	newID      func() string
}

// NewTriageService creates a new triage service.
func NewTriageService(
	oracle driven.Oracle,
	policies driven.PolicySource,
	jobs driven.JobStore,
	dispatcher driving.DispatchService,
	cfg TriageConfig,
) *TriageService {
	return &TriageService{
		oracle:     NewOracleGuard(oracle, cfg.Timeout),
		policies:   policies,
		jobs:       jobs,
		dispatcher: dispatcher,
		prompts:    cfg.Prompts,
		crossCheck: cfg.CrossCheck,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Policy returns the policy new jobs will use.
func (s *TriageService) Policy() *domain.Policy {
	return s.policies.Current()
}

// Instruction returns the oracle instruction for the current policy.
func (s *TriageService) Instruction() string {
	policy := s.policies.Current()
	if policy == nil {
		return ""
	}
	return rules.CompileInstruction(policy, loadPrompt(s.prompts, driven.PromptTriagePreamble, ""))
}

// Triage classifies a document and delivers the result over the requested channel.
// Preconditions are checked before any oracle call. Once a job exists, the returned
// outcome carries its final state even when an error is returned.
func (s *TriageService) Triage(ctx context.Context, req domain.TriageRequest) (*domain.TriageOutcome, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Document.IsEmpty() && !s.oracle.AcceptsPDF() {
		return nil, fmt.Errorf("%w: %s cannot read pdf bytes and no text was extracted",
			domain.ErrExtractorUnavailable, s.oracle.Name())
	}

	// The policy is fixed for the whole job so a reload cannot split it.
	policy := s.policies.Current()
	if policy == nil {
		return nil, fmt.Errorf("%w: no policy loaded", domain.ErrInvalidPolicy)
	}

	now := s.now()
	job := &domain.NotificationJob{
		ID:          s.newID(),
		Destination: req.Destination,
		Subject:     req.Subject,
		SourceName:  req.Document.SourceName,
		Channel:     req.Channel,
		State:       domain.JobCreated,
		HTMLEmail:   policy.HTMLEmail,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.jobs.Create(ctx, job.Record()); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	outcome := &domain.TriageOutcome{JobID: job.ID, State: job.State}

	if err := s.advance(ctx, job, domain.JobClassifying); err != nil {
		return outcome, err
	}
	outcome.State = job.State

	result, err := s.classify(ctx, req.Document, req.PDF, policy)
	if err != nil {
		slog.WarnContext(ctx, "classification failed",
			"job_id", job.ID,
			"oracle", s.oracle.Name(),
			"kind", domain.KindOf(err),
			"error", err,
		)
		if advErr := s.advance(ctx, job, domain.JobClassificationFailed); advErr != nil {
			slog.WarnContext(ctx, "failed to record classification failure", "job_id", job.ID, "error", advErr)
		}
		outcome.State = job.State
		return outcome, err
	}

	if req.PublishedAt != nil {
		rules.ResolveDueDates(result, policy, *req.PublishedAt)
	}
	job.Body = result
	outcome.Result = result

	if err := s.advance(ctx, job, domain.JobClassified); err != nil {
		return outcome, err
	}
	outcome.State = job.State
	slog.InfoContext(ctx, "document classified",
		"job_id", job.ID,
		"channel", job.Channel,
		"classification", result.Classification,
		"rule", result.RuleID,
	)

	receipt, err := s.dispatcher.Dispatch(ctx, job)
	outcome.State = job.State
	if err != nil {
		return outcome, err
	}
	outcome.Receipt = receipt
	return outcome, nil
}

// Classify classifies a document without creating a job or dispatching anything.
func (s *TriageService) Classify(ctx context.Context, doc domain.Document) (*domain.ClassificationResult, error) {
	if doc.IsEmpty() {
		return nil, fmt.Errorf("%w: document has no text", domain.ErrInvalidInput)
	}
	policy := s.policies.Current()
	if policy == nil {
		return nil, fmt.Errorf("%w: no policy loaded", domain.ErrInvalidPolicy)
	}
	return s.classify(ctx, doc, nil, policy)
}

func (s *TriageService) classify(ctx context.Context, doc domain.Document, pdf []byte, policy *domain.Policy) (*domain.ClassificationResult, error) {
	req := domain.OracleRequest{
		Instruction: rules.CompileInstruction(policy, loadPrompt(s.prompts, driven.PromptTriagePreamble, "")),
		Document:    doc,
		Policy:      policy,
	}
	if doc.IsEmpty() {
		req.PDF = pdf
	}

	raw, err := s.oracle.Invoke(ctx, req)
	if err != nil {
		return nil, err
	}
	result, err := rules.ParseVerdict(raw, policy)
	if err != nil {
		return nil, err
	}

	if s.crossCheck && !doc.IsEmpty() && s.oracle.Name() != string(domain.OracleProviderRules) {
		s.compareWithLocal(ctx, doc, policy, result)
	}
	return result, nil
}

// compareWithLocal logs when the local engine disagrees with the oracle.
// The oracle verdict is kept either way.
func (s *TriageService) compareWithLocal(ctx context.Context, doc domain.Document, policy *domain.Policy, result *domain.ClassificationResult) {
	local, err := rules.Classify(doc, policy)
	if err != nil {
		slog.WarnContext(ctx, "local cross-check failed", "error", err)
		return
	}
	if local.Classification != result.Classification {
		slog.WarnContext(ctx, "oracle and local engine disagree",
			"oracle", s.oracle.Name(),
			"classification", result.Classification,
			"local_classification", local.Classification,
			"local_rule", local.RuleID,
		)
	}
}

// advance moves the job in the store first, then in memory.
func (s *TriageService) advance(ctx context.Context, job *domain.NotificationJob, to domain.JobState) error {
	if err := s.jobs.Transition(ctx, job.ID, job.State, to); err != nil {
		return err
	}
	return job.Transition(to, s.now())
}
