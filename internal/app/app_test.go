package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/triagem/internal/adapters/driven/config/file"
	"github.com/custodia-labs/triagem/internal/core/domain"
	"github.com/custodia-labs/triagem/internal/core/rules"
	"github.com/custodia-labs/triagem/internal/core/services"
)

const customPolicy = `name = "escritorio"
extends = "simple"
`

func newTestRuntime(env map[string]string) *Runtime {
	r := New("test")
	r.getenv = func(key string) string { return env[key] }
	return r
}

func TestRuntime_Settings(t *testing.T) {
	dir := t.TempDir()
	r := newTestRuntime(map[string]string{"PORT": "4000"})

	store, s, err := r.Settings(dir, []string{filepath.Join(dir, "missing.env")})
	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
	assert.Equal(t, 4000, s.Server.Port)
	assert.Equal(t, domain.OracleProviderRules, s.Oracle.Provider)
}

func TestRuntime_SettingsInvalidKeepsStore(t *testing.T) {
	dir := t.TempDir()
	r := newTestRuntime(nil)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[store]\nbackend = \"cassandra\"\n"), 0o600))

	store, _, err := r.Settings(dir, nil)
	require.Error(t, err)
	assert.NotNil(t, store)
}

func TestRuntime_Policy(t *testing.T) {
	r := newTestRuntime(nil)

	p, err := r.Policy(domain.PolicySettings{})
	require.NoError(t, err)
	assert.Equal(t, rules.PolicySimple, p.Name)

	p, err = r.Policy(domain.PolicySettings{Name: rules.PolicyCollegiate})
	require.NoError(t, err)
	assert.Equal(t, rules.PolicyCollegiate, p.Name)

	_, err = r.Policy(domain.PolicySettings{Name: "unknown"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	path := filepath.Join(t.TempDir(), "policy.toml")
	require.NoError(t, os.WriteFile(path, []byte(customPolicy), 0o600))
	p, err = r.Policy(domain.PolicySettings{Name: rules.PolicyRisk, File: path})
	require.NoError(t, err)
	assert.Equal(t, "escritorio", p.Name)
}

func TestRuntime_IsSecret(t *testing.T) {
	r := newTestRuntime(nil)
	assert.True(t, r.IsSecret(file.KeyOracleAPIKey))
	assert.True(t, r.IsSecret(file.KeyMailPassword))
	assert.False(t, r.IsSecret(file.KeyMailFrom))
}

func TestRuntime_Prompts(t *testing.T) {
	dir := t.TempDir()
	r := newTestRuntime(nil)

	prompts, err := r.Prompts(dir)
	require.NoError(t, err)
	preamble, err := prompts.Load("triage_preamble")
	require.NoError(t, err)
	assert.Equal(t, rules.DefaultPreamble, preamble)
	assert.DirExists(t, filepath.Join(dir, "prompts"))
}

func TestRuntime_Build(t *testing.T) {
	dir := t.TempDir()
	r := newTestRuntime(nil)
	s := domain.DefaultAppSettings()

	svc, err := r.Build(context.Background(), s, dir)
	require.NoError(t, err)
	require.NotNil(t, svc.Triage)
	require.NotNil(t, svc.Extractor)
	require.NotNil(t, svc.Jobs)
	assert.Len(t, svc.Middleware, 1)
	assert.Equal(t, rules.PolicySimple, svc.Triage.Policy().Name)

	res, err := svc.Triage.Classify(context.Background(),
		domain.NewTextDocument("Ante o exposto, julgo procedente o pedido e extingo o processo com resolução do mérito.", "sentenca.txt"))
	require.NoError(t, err)
	assert.Equal(t, rules.ClassMerit, res.Classification)

	require.NoError(t, svc.Close(context.Background()))
}

func TestRuntime_BuildSQLite(t *testing.T) {
	dir := t.TempDir()
	r := newTestRuntime(nil)
	s := domain.DefaultAppSettings()
	s.Store = domain.StoreSettings{Backend: domain.StoreSQLite, Path: filepath.Join(dir, "data")}

	svc, err := r.Build(context.Background(), s, dir)
	require.NoError(t, err)
	require.NotNil(t, svc.Jobs)
	assert.FileExists(t, filepath.Join(dir, "data", "jobs.db"))
	require.NoError(t, svc.Close(context.Background()))
}

func TestRuntime_BuildWatchedPolicy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.toml")
	require.NoError(t, os.WriteFile(path, []byte(customPolicy), 0o600))

	r := newTestRuntime(nil)
	s := domain.DefaultAppSettings()
	s.Policy = domain.PolicySettings{File: path, Watch: true}

	svc, err := r.Build(context.Background(), s, dir)
	require.NoError(t, err)
	assert.Equal(t, "escritorio", svc.Triage.Policy().Name)
	require.NoError(t, svc.Close(context.Background()))
}

func TestRuntime_BuildErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(s *domain.AppSettings)
		want   error
	}{
		{
			name:   "unknown store",
			modify: func(s *domain.AppSettings) { s.Store.Backend = "cassandra" },
			want:   domain.ErrUnsupportedType,
		},
		{
			name:   "unknown mail provider",
			modify: func(s *domain.AppSettings) { s.Mail.Provider = "pigeon" },
			want:   domain.ErrUnsupportedType,
		},
		{
			name:   "unknown policy",
			modify: func(s *domain.AppSettings) { s.Policy.Name = "unknown" },
			want:   domain.ErrNotFound,
		},
		{
			name: "cloud oracle without key",
			modify: func(s *domain.AppSettings) {
				s.Oracle.Provider = domain.OracleProviderGemini
				s.Oracle.APIKey = ""
			},
			want: domain.ErrOracleUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := domain.DefaultAppSettings()
			tt.modify(&s)

			_, err := newTestRuntime(nil).Build(context.Background(), s, t.TempDir())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOpenMailer_None(t *testing.T) {
	m, err := openMailer(context.Background(), domain.MailSettings{Provider: domain.MailProviderNone})
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestOpenMailer_GmailMissingCredentials(t *testing.T) {
	_, err := openMailer(context.Background(), domain.MailSettings{
		Provider:       domain.MailProviderGmail,
		GmailTokenFile: filepath.Join(t.TempDir(), "missing.json"),
	})
	require.Error(t, err)
}

func TestLoadLogo(t *testing.T) {
	dir := t.TempDir()
	assert.Nil(t, loadLogo(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, logoFile), []byte("\x89PNG"), 0o600))
	logo := loadLogo(dir)
	require.NotNil(t, logo)
	assert.Equal(t, services.LogoContentID, logo.ContentID)
	assert.Equal(t, "image/png", logo.MIMEType)
	assert.Equal(t, []byte("\x89PNG"), logo.Content)
}

func TestRuntime_GmailConsent(t *testing.T) {
	r := newTestRuntime(nil)

	_, err := r.GmailConsent("", "", "http://127.0.0.1:1/callback", "gmail.json")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "gmail.json")
	c, err := r.GmailConsent("id", "secret", "http://127.0.0.1:1/callback", path)
	require.NoError(t, err)
	assert.Equal(t, path, c.CredentialsFile())
	assert.Contains(t, c.AuthCodeURL("state"), "redirect_uri=http%3A%2F%2F127.0.0.1%3A1%2Fcallback")
}
