package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/triagem/internal/core/domain"
	"github.com/custodia-labs/triagem/internal/core/ports/driven"
)

// mockTriageService is a mock implementation of driving.TriageService.
type mockTriageService struct {
	outcome     *domain.TriageOutcome
	result      *domain.ClassificationResult
	err         error
	policy      *domain.Policy
	instruction string
	requests    []domain.TriageRequest
	docs        []domain.Document
}

func (m *mockTriageService) Triage(_ context.Context, req domain.TriageRequest) (*domain.TriageOutcome, error) {
	m.requests = append(m.requests, req)
	return m.outcome, m.err
}

func (m *mockTriageService) Classify(_ context.Context, doc domain.Document) (*domain.ClassificationResult, error) {
	m.docs = append(m.docs, doc)
	return m.result, m.err
}

func (m *mockTriageService) Policy() *domain.Policy {
	return m.policy
}

func (m *mockTriageService) Instruction() string {
	return m.instruction
}

// mockExtractor is a mock implementation of driven.TextExtractor.
type mockExtractor struct {
	text string
	err  error
}

func (m *mockExtractor) SupportedMIMETypes() []string {
	return []string{domain.MIMETypePDF}
}

func (m *mockExtractor) Extract(_ context.Context, raw *domain.RawDocument) (domain.Document, error) {
	if m.err != nil {
		return domain.Document{}, m.err
	}
	return domain.NewTextDocument(m.text, raw.Name), nil
}

// mockLedger is a mock implementation of driven.JobLedger.
type mockLedger struct {
	jobs   []domain.JobRecord
	pruned int64
	err    error
	state  domain.JobState
	before time.Time
}

func (m *mockLedger) List(_ context.Context, state domain.JobState, _ int) ([]domain.JobRecord, error) {
	m.state = state
	return m.jobs, m.err
}

func (m *mockLedger) Prune(_ context.Context, before time.Time) (int64, error) {
	m.before = before
	return m.pruned, m.err
}

// mockPrompts is a mock implementation of driven.PromptStore.
type mockPrompts struct {
	prompts map[string]string
}

func (m *mockPrompts) Load(name string) (string, error) {
	p, ok := m.prompts[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return p, nil
}

func (m *mockPrompts) Reload() {}

// mockRuntime is a mock implementation of Runtime.
type mockRuntime struct {
	store       driven.ConfigStore
	settings    domain.AppSettings
	settingsErr error
	policies    map[string]*domain.Policy
	policyErr   error
	prompts     driven.PromptStore
	services    *Services
	buildErr    error
	builds      int
	consent     *mockConsent
	redirectURL string
}

func (m *mockRuntime) Settings(_ string, _ []string) (driven.ConfigStore, domain.AppSettings, error) {
	return m.store, m.settings, m.settingsErr
}

func (m *mockRuntime) Policy(s domain.PolicySettings) (*domain.Policy, error) {
	if m.policyErr != nil {
		return nil, m.policyErr
	}
	key := s.Name
	if s.File != "" {
		key = s.File
	}
	p, ok := m.policies[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (m *mockRuntime) Prompts(_ string) (driven.PromptStore, error) {
	return m.prompts, nil
}

func (m *mockRuntime) IsSecret(key string) bool {
	return key == "oracle.api_key" || key == "mail.password"
}

func (m *mockRuntime) GmailConsent(_, _, redirectURL, credentialsFile string) (Consent, error) {
	m.redirectURL = redirectURL
	m.consent.redirectURL = redirectURL
	m.consent.path = credentialsFile
	return m.consent, nil
}

func (m *mockRuntime) Build(_ context.Context, _ domain.AppSettings, _ string) (*Services, error) {
	m.builds++
	return m.services, m.buildErr
}

// mockConsent answers its own consent page by calling the redirect URI.
type mockConsent struct {
	redirectURL string
	path        string
	code        string
	exchanged   string
	err         error
}

func (m *mockConsent) AuthCodeURL(state string) string {
	target := m.redirectURL + "?" + url.Values{"state": {state}, "code": {m.code}}.Encode()
	go func() {
		if resp, err := http.Get(target); err == nil { //nolint:noctx // test helper
			resp.Body.Close()
		}
	}()
	return "https://accounts.example.com/consent?state=" + state
}

func (m *mockConsent) Exchange(_ context.Context, code string) error {
	m.exchanged = code
	return m.err
}

func (m *mockConsent) CredentialsFile() string {
	return m.path
}

// resetGlobals restores package state after a test.
func resetGlobals(t *testing.T) {
	t.Helper()
	oldRuntime, oldStore, oldSettings := appRuntime, configStore, appSettings
	oldTriage, oldExtractor, oldLedger := triageService, extractor, jobLedger
	t.Cleanup(func() {
		appRuntime, configStore, appSettings = oldRuntime, oldStore, oldSettings
		triageService, extractor, jobLedger = oldTriage, oldExtractor, oldLedger
		middleware, closeFn = nil, nil
		buildOnce, buildErr = sync.Once{}, nil

		classifyJSON, classifyPublished = false, ""
		jobsState, jobsLimit, jobsOlderThan = "", 20, 30*24*time.Hour
		sendURL, sendTimeout = DefaultServerURL, 2*time.Minute
		servePort = 0
		verbose = false
		mailClientID, mailClientSecret, mailCredentials = "", "", ""
		mailNoBrowser, mailLoginTimeout = false, 5*time.Minute
	})
}

// executeCommand runs the root command with args and returns its output.
func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func sampleResult() *domain.ClassificationResult {
	return &domain.ClassificationResult{
		Classification:  "Sentença",
		SuggestedAction: "Apelação em 15 dias úteis.",
		DeadlineDays:    domain.IntPtr(5),
		Deadlines: []domain.Deadline{
			{Name: "Embargos de Declaração", Days: 5},
			{Name: "Apelação", Days: 15},
		},
		Verdict: "Classificação: Sentença\nAção Sugerida: Apelação em 15 dias úteis.",
		RuleID:  "merit",
	}
}

func requireContainsAll(t *testing.T, s string, parts ...string) {
	t.Helper()
	for _, p := range parts {
		require.Contains(t, s, p)
	}
}
