package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/triagem/internal/core/domain"
	"github.com/custodia-labs/triagem/internal/core/ports/driven"
)

// Ensure JobStore implements the interfaces.
var (
	_ driven.JobStore  = (*JobStore)(nil)
	_ driven.JobLedger = (*JobStore)(nil)
)

// DefaultMaxFinishedJobs is how many terminal jobs the memory store keeps.
const DefaultMaxFinishedJobs = 1000

// JobStore is an in-memory implementation of driven.JobStore.
// It gives at-most-once delivery within a single process.
// Live jobs are always kept; only the newest finished jobs are retained.
type JobStore struct {
	mu          sync.Mutex
	jobs        map[string]domain.JobRecord
	finished    []string
	maxFinished int
	now         func() time.Time
}

// NewJobStore creates a new in-memory job store keeping
// DefaultMaxFinishedJobs finished jobs.
func NewJobStore() *JobStore {
	return NewJobStoreWithLimit(DefaultMaxFinishedJobs)
}

// NewJobStoreWithLimit creates an in-memory job store that evicts the oldest
// finished job once more than maxFinished have reached a terminal state.
func NewJobStoreWithLimit(maxFinished int) *JobStore {
	if maxFinished <= 0 {
		maxFinished = DefaultMaxFinishedJobs
	}
	return &JobStore{
		jobs:        make(map[string]domain.JobRecord),
		maxFinished: maxFinished,
		now:         time.Now,
	}
}

// Create records a new job.
func (s *JobStore) Create(_ context.Context, rec domain.JobRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("%w: job id is required", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[rec.ID]; ok {
		return fmt.Errorf("%w: job %s", domain.ErrAlreadyExists, rec.ID)
	}
	s.jobs[rec.ID] = rec
	return nil
}

// Transition moves a job from one state to another.
// It fails when the stored state is not from, so only one caller wins a claim.
func (s *JobStore) Transition(_ context.Context, id string, from, to domain.JobState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("%w: job %s", domain.ErrNotFound, id)
	}
	if rec.State != from {
		return domain.StateMismatch(id, rec.State, from)
	}
	if err := domain.CheckTransition(from, to); err != nil {
		return err
	}
	rec.State = to
	rec.UpdatedAt = s.now()
	s.jobs[id] = rec
	if to.IsTerminal() {
		s.retire(id)
	}
	return nil
}

// retire records a finished job and evicts the oldest ones past the limit.
// Callers hold s.mu.
func (s *JobStore) retire(id string) {
	s.finished = append(s.finished, id)
	for len(s.finished) > s.maxFinished {
		oldest := s.finished[0]
		s.finished = s.finished[1:]
		if rec, ok := s.jobs[oldest]; ok && rec.State.IsTerminal() {
			delete(s.jobs, oldest)
		}
	}
}

// Get retrieves a job by ID.
func (s *JobStore) Get(_ context.Context, id string) (*domain.JobRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

// List returns the most recently updated jobs, newest first.
func (s *JobStore) List(_ context.Context, state domain.JobState, limit int) ([]domain.JobRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make([]domain.JobRecord, 0, len(s.jobs))
	for _, rec := range s.jobs {
		if state == "" || rec.State == state {
			jobs = append(jobs, rec)
		}
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].UpdatedAt.After(jobs[j].UpdatedAt)
	})
	if len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

// Prune deletes terminal jobs last updated before the cutoff.
func (s *JobStore) Prune(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, rec := range s.jobs {
		if rec.State.IsTerminal() && rec.UpdatedAt.Before(before) {
			delete(s.jobs, id)
			n++
		}
	}
	kept := s.finished[:0]
	for _, id := range s.finished {
		if _, ok := s.jobs[id]; ok {
			kept = append(kept, id)
		}
	}
	s.finished = kept
	return n, nil
}

// Close is a no-op for the memory store.
func (s *JobStore) Close() error {
	return nil
}
