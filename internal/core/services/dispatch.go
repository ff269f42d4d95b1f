package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/custodia-labs/triagem/internal/core/domain"
	"github.com/custodia-labs/triagem/internal/core/ports/driven"
	"github.com/custodia-labs/triagem/internal/core/ports/driving"
)

// Ensure DispatchService implements the interface.
var _ driving.DispatchService = (*DispatchService)(nil)

// DispatchConfig holds the static values used to render notifications.
type DispatchConfig struct {
	// From is the sender address of email notifications.
	From string

	// Logo is embedded inline in HTML emails when set.
	Logo *domain.InlineAsset

	// Prompts supplies the email intro text.
	Prompts driven.PromptStore
}

// DispatchService delivers classified jobs over their channel.
// Each job is delivered at most once: the job store claim is the gate.
type DispatchService struct {
	jobs   driven.JobStore
	mailer driven.Mailer
	cfg    DispatchConfig
	now    func() time.Time
}

// NewDispatchService creates a new dispatch service.
// mailer may be nil when no mail provider is configured; email jobs then fail.
func NewDispatchService(jobs driven.JobStore, mailer driven.Mailer, cfg DispatchConfig) *DispatchService {
	return &DispatchService{
		jobs:   jobs,
		mailer: mailer,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Dispatch delivers a job that has reached the Classified state.
func (s *DispatchService) Dispatch(ctx context.Context, job *domain.NotificationJob) (*domain.DeliveryReceipt, error) {
	if job == nil || job.Body == nil {
		return nil, fmt.Errorf("%w: job has no classification", domain.ErrInvalidInput)
	}

	switch job.Channel {
	case domain.ChannelHTTP:
		return s.dispatchHTTP(ctx, job)
	case domain.ChannelEmail:
		return s.dispatchEmail(ctx, job)
	default:
		return nil, fmt.Errorf("%w: unknown channel %q", domain.ErrInvalidInput, job.Channel)
	}
}

func (s *DispatchService) dispatchHTTP(ctx context.Context, job *domain.NotificationJob) (*domain.DeliveryReceipt, error) {
	if err := s.advance(ctx, job, domain.JobDispatching); err != nil {
		return nil, err
	}

	receipt := &domain.DeliveryReceipt{
		JobID:       job.ID,
		Channel:     domain.ChannelHTTP,
		Reply:       renderReply(job),
		DeliveredAt: s.now(),
	}
	if err := s.advance(ctx, job, domain.JobDelivered); err != nil {
		return nil, err
	}
	return receipt, nil
}

func (s *DispatchService) dispatchEmail(ctx context.Context, job *domain.NotificationJob) (*domain.DeliveryReceipt, error) {
	// Claim before sending so a concurrent or repeated dispatch cannot send twice.
	if err := s.advance(ctx, job, domain.JobDispatching); err != nil {
		return nil, err
	}
	if job.Destination == "" {
		s.recordFailure(ctx, job, domain.ErrMissingDestination)
		return nil, domain.ErrMissingDestination
	}

	msg, err := renderEmail(job, s.cfg.From, s.cfg.Prompts, s.cfg.Logo)
	if err != nil {
		return nil, s.fail(ctx, job, err)
	}
	if s.mailer == nil {
		return nil, s.fail(ctx, job, fmt.Errorf("no mail provider configured"))
	}

	messageID, err := s.mailer.Send(ctx, msg)
	if err != nil {
		return nil, s.fail(ctx, job, err)
	}

	if err := s.advance(ctx, job, domain.JobDelivered); err != nil {
		// The message left; record the ledger problem without reporting a failed delivery.
		slog.WarnContext(ctx, "failed to record delivery", "job_id", job.ID, "error", err)
	}
	slog.InfoContext(ctx, "notification sent",
		"job_id", job.ID,
		"channel", job.Channel,
		"classification", job.Body.Classification,
	)

	return &domain.DeliveryReceipt{
		JobID:       job.ID,
		Channel:     domain.ChannelEmail,
		Destination: job.Destination,
		MessageID:   messageID,
		Reply:       renderEmailReply(job),
		DeliveredAt: s.now(),
	}, nil
}

// fail records DeliveryFailed and returns the wrapped delivery error.
func (s *DispatchService) fail(ctx context.Context, job *domain.NotificationJob, cause error) error {
	s.recordFailure(ctx, job, cause)
	return fmt.Errorf("%w: %w", domain.ErrDeliveryFailed, cause)
}

// recordFailure moves a claimed job to DeliveryFailed.
func (s *DispatchService) recordFailure(ctx context.Context, job *domain.NotificationJob, cause error) {
	if err := s.advance(ctx, job, domain.JobDeliveryFailed); err != nil {
		slog.WarnContext(ctx, "failed to record delivery failure", "job_id", job.ID, "error", err)
	}
	slog.WarnContext(ctx, "delivery failed", "job_id", job.ID, "channel", job.Channel, "error", cause)
}

// advance moves the job in the store first, then in memory.
func (s *DispatchService) advance(ctx context.Context, job *domain.NotificationJob, to domain.JobState) error {
	if err := domain.CheckTransition(job.State, to); err != nil {
		return err
	}
	if err := s.jobs.Transition(ctx, job.ID, job.State, to); err != nil {
		return err
	}
	return job.Transition(to, s.now())
}
