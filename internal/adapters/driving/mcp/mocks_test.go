package mcp

import (
	"context"

	"github.com/custodia-labs/triagem/internal/core/domain"
)

// mockTriageService is a mock implementation of driving.TriageService.
type mockTriageService struct {
	outcome     *domain.TriageOutcome
	result      *domain.ClassificationResult
	err         error
	policy      *domain.Policy
	instruction string
	requests    []domain.TriageRequest
}

func (m *mockTriageService) Triage(_ context.Context, req domain.TriageRequest) (*domain.TriageOutcome, error) {
	m.requests = append(m.requests, req)
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return m.outcome, m.err
}

func (m *mockTriageService) Classify(_ context.Context, _ domain.Document) (*domain.ClassificationResult, error) {
	return m.result, m.err
}

func (m *mockTriageService) Policy() *domain.Policy {
	return m.policy
}

func (m *mockTriageService) Instruction() string {
	return m.instruction
}
