package services

import (
	"context"
	"errors"
	"sync"

	"github.com/custodia-labs/triagem/internal/core/domain"
	"github.com/custodia-labs/triagem/internal/core/rules"
)

// --- Mock implementations ---

// mockOracle implements driven.Oracle for testing.
// With no canned verdict it answers like the local rule engine.
type mockOracle struct {
	mu       sync.Mutex
	name     string
	verdict  string
	err      error
	block    bool
	acceptsP bool
	calls    int
	requests []domain.OracleRequest
}

func (m *mockOracle) Invoke(ctx context.Context, req domain.OracleRequest) (string, error) {
	m.mu.Lock()
	m.calls++
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if m.err != nil {
		return "", m.err
	}
	if m.verdict != "" {
		return m.verdict, nil
	}
	return rules.NewLocalOracle(rules.StaticPolicy{Policy: rules.Simple()}).Invoke(ctx, req)
}

func (m *mockOracle) Name() string {
	if m.name == "" {
		return "mock"
	}
	return m.name
}

func (m *mockOracle) AcceptsPDF() bool {
	return m.acceptsP
}

func (m *mockOracle) Ping(_ context.Context) error {
	return m.err
}

func (m *mockOracle) Close() error {
	return nil
}

func (m *mockOracle) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockMailer implements driven.Mailer for testing.
type mockMailer struct {
	mu   sync.Mutex
	err  error
	sent []*domain.MailMessage
}

func (m *mockMailer) Send(_ context.Context, msg *domain.MailMessage) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.sent = append(m.sent, msg)
	return "<msg-1@triagem>", nil
}

func (m *mockMailer) Close() error {
	return nil
}

func (m *mockMailer) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// mockPrompts implements driven.PromptStore for testing.
type mockPrompts struct {
	prompts map[string]string
}

func (m *mockPrompts) Load(name string) (string, error) {
	p, ok := m.prompts[name]
	if !ok {
		return "", errors.New("prompt not found")
	}
	return p, nil
}

func (m *mockPrompts) Reload() {}
