package httpapi

import (
	"context"
	"sync"

	"github.com/custodia-labs/triagem/internal/core/domain"
)

// mockTriageService is a mock implementation of driving.TriageService.
// Triage validates the request like the real service before answering.
type mockTriageService struct {
	mu       sync.Mutex
	outcome  *domain.TriageOutcome
	result   *domain.ClassificationResult
	err      error
	policy   *domain.Policy
	requests []domain.TriageRequest
	docs     []domain.Document
}

func (m *mockTriageService) Triage(_ context.Context, req domain.TriageRequest) (*domain.TriageOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return m.outcome, m.err
}

func (m *mockTriageService) Classify(_ context.Context, doc domain.Document) (*domain.ClassificationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, doc)
	if doc.IsEmpty() {
		return nil, domain.ErrInvalidInput
	}
	return m.result, m.err
}

func (m *mockTriageService) Policy() *domain.Policy {
	return m.policy
}

func (m *mockTriageService) Instruction() string {
	return "instruction"
}

func (m *mockTriageService) lastRequest() domain.TriageRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[len(m.requests)-1]
}

// mockExtractor is a mock implementation of driven.TextExtractor.
type mockExtractor struct {
	text  string
	err   error
	calls int
}

func (m *mockExtractor) SupportedMIMETypes() []string {
	return []string{domain.MIMETypePDF}
}

func (m *mockExtractor) Extract(_ context.Context, raw *domain.RawDocument) (domain.Document, error) {
	m.calls++
	if m.err != nil {
		return domain.Document{}, m.err
	}
	return domain.NewTextDocument(m.text, raw.Name), nil
}
