package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/triagem/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/triagem/internal/core/domain"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadSettings_Defaults(t *testing.T) {
	s, err := LoadSettings(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultAppSettings(), s)
}

func TestLoadSettings_FromStore(t *testing.T) {
	store := memory.NewConfigStore()
	require.NoError(t, store.Set(KeyServerPort, 8080))
	require.NoError(t, store.Set(KeyOracleProvider, "anthropic"))
	require.NoError(t, store.Set(KeyOracleAPIKey, "sk-ant"))
	require.NoError(t, store.Set(KeyOracleTimeout, "20s"))
	require.NoError(t, store.Set(KeyOracleRequestsPerMinute, 15))
	require.NoError(t, store.Set(KeyMailProvider, "smtp"))
	require.NoError(t, store.Set(KeyMailHost, "smtp.example.com"))
	require.NoError(t, store.Set(KeyMailTLS, true))
	require.NoError(t, store.Set(KeyStoreBackend, "sqlite"))
	require.NoError(t, store.Set(KeyStoreRedisTTL, "2h"))
	require.NoError(t, store.Set(KeyPolicyName, "risk"))
	require.NoError(t, store.Set(KeyTelemetrySampleRate, 0.25))

	s, err := LoadSettings(store, envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, 8080, s.Server.Port)
	assert.Equal(t, domain.OracleProviderAnthropic, s.Oracle.Provider)
	assert.Equal(t, "sk-ant", s.Oracle.APIKey)
	assert.Equal(t, 20*time.Second, s.Oracle.Timeout)
	assert.Equal(t, 15, s.Oracle.RequestsPerMinute)
	assert.Equal(t, domain.MailProviderSMTP, s.Mail.Provider)
	assert.Equal(t, "smtp.example.com", s.Mail.Host)
	assert.Equal(t, 587, s.Mail.Port)
	assert.True(t, s.Mail.TLS)
	assert.Equal(t, domain.StoreSQLite, s.Store.Backend)
	assert.Equal(t, 2*time.Hour, s.Store.RedisTTL)
	assert.Equal(t, "risk", s.Policy.Name)
	assert.InDelta(t, 0.25, s.Telemetry.SampleRate, 1e-9)
}

func TestLoadSettings_EnvOverrides(t *testing.T) {
	tests := []struct {
		name   string
		store  map[string]any
		env    map[string]string
		assert func(t *testing.T, s domain.AppSettings)
	}{
		{
			name: "port",
			env:  map[string]string{"PORT": "4000"},
			assert: func(t *testing.T, s domain.AppSettings) {
				assert.Equal(t, 4000, s.Server.Port)
			},
		},
		{
			name: "gemini key alone selects gemini",
			env:  map[string]string{"GEMINI_API_KEY": "g-key"},
			assert: func(t *testing.T, s domain.AppSettings) {
				assert.Equal(t, domain.OracleProviderGemini, s.Oracle.Provider)
				assert.Equal(t, "g-key", s.Oracle.APIKey)
			},
		},
		{
			name:  "gemini key ignored when another provider is configured",
			store: map[string]any{KeyOracleProvider: "rules"},
			env:   map[string]string{"GEMINI_API_KEY": "g-key"},
			assert: func(t *testing.T, s domain.AppSettings) {
				assert.Equal(t, domain.OracleProviderRules, s.Oracle.Provider)
				assert.Empty(t, s.Oracle.APIKey)
			},
		},
		{
			name: "explicit provider with its key",
			env:  map[string]string{"TRIAGEM_ORACLE_PROVIDER": "openai", "OPENAI_API_KEY": "sk-1"},
			assert: func(t *testing.T, s domain.AppSettings) {
				assert.Equal(t, domain.OracleProviderOpenAI, s.Oracle.Provider)
				assert.Equal(t, "sk-1", s.Oracle.APIKey)
			},
		},
		{
			name: "smtp host enables smtp",
			env: map[string]string{
				"SMTP_HOST": "smtp.gmail.com", "SMTP_PORT": "465", "SMTP_TLS": "true",
				"SMTP_USER": "u", "SMTP_PASS": "p", "MAIL_FROM": "triagem@example.com",
			},
			assert: func(t *testing.T, s domain.AppSettings) {
				assert.Equal(t, domain.MailProviderSMTP, s.Mail.Provider)
				assert.Equal(t, 465, s.Mail.Port)
				assert.True(t, s.Mail.TLS)
				assert.Equal(t, "triagem@example.com", s.Mail.From)
			},
		},
		{
			name: "otlp endpoint enables telemetry",
			env:  map[string]string{"OTEL_EXPORTER_OTLP_ENDPOINT": "collector:4317"},
			assert: func(t *testing.T, s domain.AppSettings) {
				assert.True(t, s.Telemetry.Enabled)
				assert.Equal(t, "collector:4317", s.Telemetry.Endpoint)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewConfigStore()
			for k, v := range tt.store {
				require.NoError(t, store.Set(k, v))
			}
			s, err := LoadSettings(store, envMap(tt.env))
			require.NoError(t, err)
			tt.assert(t, s)
		})
	}
}

func TestLoadSettings_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		store map[string]any
		env   map[string]string
	}{
		{"bad port env", nil, map[string]string{"PORT": "abc"}},
		{"bad tls env", nil, map[string]string{"SMTP_TLS": "maybe"}},
		{"unknown provider", map[string]any{KeyOracleProvider: "mistral"}, nil},
		{"unknown backend", map[string]any{KeyStoreBackend: "postgres"}, nil},
		{"unknown mail provider", map[string]any{KeyMailProvider: "pigeon"}, nil},
		{"port out of range", map[string]any{KeyServerPort: 70000}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewConfigStore()
			for k, v := range tt.store {
				require.NoError(t, store.Set(k, v))
			}
			_, err := LoadSettings(store, envMap(tt.env))
			assert.Error(t, err)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("TRIAGEM_DOTENV_TEST=loaded\n"), 0600))
	t.Setenv("TRIAGEM_DOTENV_TEST", "")
	require.NoError(t, os.Unsetenv("TRIAGEM_DOTENV_TEST"))

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "loaded", os.Getenv("TRIAGEM_DOTENV_TEST"))
}
