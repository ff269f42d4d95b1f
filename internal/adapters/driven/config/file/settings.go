package file

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/triagem/internal/core/domain"
	"github.com/custodia-labs/triagem/internal/core/ports/driven"
)

// Configuration keys understood by LoadSettings.
const (
	KeyServerPort           = "server.port"
	KeyServerMode           = "server.mode"
	KeyServerAllowedOrigins = "server.allowed_origins"

	KeyOracleProvider          = "oracle.provider"
	KeyOracleModel             = "oracle.model"
	KeyOracleBaseURL           = "oracle.base_url"
	KeyOracleAPIKey            = "oracle.api_key"
	KeyOracleTimeout           = "oracle.timeout"
	KeyOracleRequestsPerMinute = "oracle.requests_per_minute"
	KeyOracleCrossCheck        = "oracle.cross_check"

	KeyMailProvider      = "mail.provider"
	KeyMailFrom          = "mail.from"
	KeyMailHost          = "mail.host"
	KeyMailPort          = "mail.port"
	KeyMailUsername      = "mail.username"
	KeyMailPassword      = "mail.password"
	KeyMailTLS           = "mail.tls"
	KeyMailDialAttempts  = "mail.dial_attempts"
	KeyMailGmailCredFile = "mail.gmail_credentials"

	KeyStoreBackend   = "store.backend"
	KeyStorePath      = "store.path"
	KeyStoreRedisAddr = "store.redis_addr"
	KeyStoreRedisTTL  = "store.redis_ttl"

	KeyPolicyName  = "policy.name"
	KeyPolicyFile  = "policy.file"
	KeyPolicyWatch = "policy.watch"

	KeyTelemetryEnabled    = "telemetry.enabled"
	KeyTelemetryEndpoint   = "telemetry.endpoint"
	KeyTelemetryInsecure   = "telemetry.insecure"
	KeyTelemetrySampleRate = "telemetry.sample_rate"

	KeyLogLevel  = "log.level"
	KeyLogFormat = "log.format"
)

// SecretKeys are keys whose values are masked when displayed.
var SecretKeys = map[string]bool{
	KeyOracleAPIKey: true,
	KeyMailPassword: true,
}

// apiKeyEnv maps cloud providers to the environment variable holding their key.
var apiKeyEnv = map[domain.OracleProvider]string{
	domain.OracleProviderGemini:    "GEMINI_API_KEY",
	domain.OracleProviderOpenAI:    "OPENAI_API_KEY",
	domain.OracleProviderAnthropic: "ANTHROPIC_API_KEY",
}

// LoadDotEnv loads variables from .env files into the process environment.
// Variables already set are kept. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// LoadSettings resolves application settings once at start.
// Precedence is environment, then the config store, then defaults.
// getenv is usually os.Getenv; store may be nil.
func LoadSettings(store driven.ConfigStore, getenv func(string) string) (domain.AppSettings, error) {
	s := domain.DefaultAppSettings()
	if getenv == nil {
		getenv = func(string) string { return "" }
	}

	providerSet := false
	if store != nil {
		applyStore(&s, store)
		providerSet = store.GetString(KeyOracleProvider) != ""
	}
	if err := applyEnv(&s, getenv, providerSet); err != nil {
		return s, err
	}
	if err := check(s); err != nil {
		return s, err
	}
	return s, nil
}

func applyStore(s *domain.AppSettings, store driven.ConfigStore) {
	setInt(&s.Server.Port, store.GetInt(KeyServerPort))
	setString(&s.Server.Mode, store.GetString(KeyServerMode))
	if origins := store.GetStringSlice(KeyServerAllowedOrigins); len(origins) > 0 {
		s.Server.AllowedOrigins = origins
	}

	if p := store.GetString(KeyOracleProvider); p != "" {
		s.Oracle.Provider = domain.OracleProvider(p)
	}
	setString(&s.Oracle.Model, store.GetString(KeyOracleModel))
	setString(&s.Oracle.BaseURL, store.GetString(KeyOracleBaseURL))
	setString(&s.Oracle.APIKey, store.GetString(KeyOracleAPIKey))
	if d := store.GetDuration(KeyOracleTimeout); d > 0 {
		s.Oracle.Timeout = d
	}
	setInt(&s.Oracle.RequestsPerMinute, store.GetInt(KeyOracleRequestsPerMinute))
	s.Oracle.CrossCheck = store.GetBool(KeyOracleCrossCheck)

	if p := store.GetString(KeyMailProvider); p != "" {
		s.Mail.Provider = domain.MailProvider(p)
	}
	setString(&s.Mail.From, store.GetString(KeyMailFrom))
	setString(&s.Mail.Host, store.GetString(KeyMailHost))
	setInt(&s.Mail.Port, store.GetInt(KeyMailPort))
	setString(&s.Mail.Username, store.GetString(KeyMailUsername))
	setString(&s.Mail.Password, store.GetString(KeyMailPassword))
	s.Mail.TLS = store.GetBool(KeyMailTLS)
	setInt(&s.Mail.DialAttempts, store.GetInt(KeyMailDialAttempts))
	setString(&s.Mail.GmailTokenFile, store.GetString(KeyMailGmailCredFile))

	if b := store.GetString(KeyStoreBackend); b != "" {
		s.Store.Backend = domain.StoreBackend(b)
	}
	setString(&s.Store.Path, store.GetString(KeyStorePath))
	setString(&s.Store.RedisAddr, store.GetString(KeyStoreRedisAddr))
	if d := store.GetDuration(KeyStoreRedisTTL); d > 0 {
		s.Store.RedisTTL = d
	}

	setString(&s.Policy.Name, store.GetString(KeyPolicyName))
	setString(&s.Policy.File, store.GetString(KeyPolicyFile))
	s.Policy.Watch = store.GetBool(KeyPolicyWatch)

	s.Telemetry.Enabled = store.GetBool(KeyTelemetryEnabled)
	setString(&s.Telemetry.Endpoint, store.GetString(KeyTelemetryEndpoint))
	s.Telemetry.Insecure = store.GetBool(KeyTelemetryInsecure)
	if _, ok := store.Get(KeyTelemetrySampleRate); ok {
		s.Telemetry.SampleRate = store.GetFloat(KeyTelemetrySampleRate)
	}

	setString(&s.Log.Level, store.GetString(KeyLogLevel))
	setString(&s.Log.Format, store.GetString(KeyLogFormat))
}

// applyEnv overrides settings from the environment. A deployment configured
// only with GEMINI_API_KEY runs the Gemini oracle.
func applyEnv(s *domain.AppSettings, getenv func(string) string, providerSet bool) error {
	var errs []error
	envInt := func(dst *int, name string) {
		if v := getenv(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = n
		}
	}
	envBool := func(dst *bool, name string) {
		if v := getenv(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = b
		}
	}

	envInt(&s.Server.Port, "PORT")

	if p := getenv("TRIAGEM_ORACLE_PROVIDER"); p != "" {
		s.Oracle.Provider = domain.OracleProvider(p)
		providerSet = true
	}
	if !providerSet && getenv(apiKeyEnv[domain.OracleProviderGemini]) != "" {
		s.Oracle.Provider = domain.OracleProviderGemini
	}
	setString(&s.Oracle.Model, getenv("TRIAGEM_ORACLE_MODEL"))
	if name, ok := apiKeyEnv[s.Oracle.Provider]; ok {
		setString(&s.Oracle.APIKey, getenv(name))
	}
	setString(&s.Oracle.BaseURL, getenv("OLLAMA_HOST"))

	setString(&s.Mail.From, getenv("MAIL_FROM"))
	setString(&s.Mail.Host, getenv("SMTP_HOST"))
	envInt(&s.Mail.Port, "SMTP_PORT")
	setString(&s.Mail.Username, getenv("SMTP_USER"))
	setString(&s.Mail.Password, getenv("SMTP_PASS"))
	envBool(&s.Mail.TLS, "SMTP_TLS")
	if s.Mail.Provider == domain.MailProviderNone && s.Mail.Host != "" {
		s.Mail.Provider = domain.MailProviderSMTP
	}

	setString(&s.Store.RedisAddr, getenv("REDIS_ADDR"))

	if endpoint := getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		s.Telemetry.Endpoint = endpoint
		s.Telemetry.Enabled = true
	}

	setString(&s.Log.Level, getenv("TRIAGEM_LOG_LEVEL"))
	setString(&s.Log.Format, getenv("TRIAGEM_LOG_FORMAT"))

	return errors.Join(errs...)
}

func check(s domain.AppSettings) error {
	var errs []error
	if !s.Oracle.Provider.IsValid() {
		errs = append(errs, fmt.Errorf("unknown oracle provider %q", s.Oracle.Provider))
	}
	if !s.Mail.Provider.IsValid() {
		errs = append(errs, fmt.Errorf("unknown mail provider %q", s.Mail.Provider))
	}
	if !s.Store.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("unknown store backend %q", s.Store.Backend))
	}
	if s.Server.Port <= 0 || s.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid server port %d", s.Server.Port))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, errors.Join(errs...))
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
