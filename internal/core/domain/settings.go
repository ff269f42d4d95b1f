package domain

import "time"

const unknownDescription = "Unknown"

// OracleProvider identifies the classification oracle backend.
type OracleProvider string

// Available oracle providers.
const (
	// OracleProviderRules is the local deterministic rule engine.
	OracleProviderRules OracleProvider = "rules"

	// OracleProviderOllama is local Ollama instance.
	OracleProviderOllama OracleProvider = "ollama"

	// OracleProviderOpenAI is OpenAI cloud API.
	OracleProviderOpenAI OracleProvider = "openai"

	// OracleProviderAnthropic is Anthropic cloud API.
	OracleProviderAnthropic OracleProvider = "anthropic"

	// OracleProviderGemini is Google Gemini cloud API.
	OracleProviderGemini OracleProvider = "gemini"
)

// IsValid returns true if the oracle provider is recognised.
func (p OracleProvider) IsValid() bool {
	switch p {
	case OracleProviderRules, OracleProviderOllama, OracleProviderOpenAI,
		OracleProviderAnthropic, OracleProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p OracleProvider) RequiresAPIKey() bool {
	switch p {
	case OracleProviderOpenAI, OracleProviderAnthropic, OracleProviderGemini:
		return true
	default:
		return false
	}
}

// IsLocal returns true if this provider runs without a remote service.
func (p OracleProvider) IsLocal() bool {
	return p == OracleProviderRules || p == OracleProviderOllama
}

// String returns the string representation.
func (p OracleProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p OracleProvider) Description() string {
	switch p {
	case OracleProviderRules:
		return "Rule engine (local, deterministic)"
	case OracleProviderOllama:
		return "Ollama (local)"
	case OracleProviderOpenAI:
		return "OpenAI (cloud)"
	case OracleProviderAnthropic:
		return "Anthropic (cloud)"
	case OracleProviderGemini:
		return "Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// AllOracleProviders returns all available oracle providers.
func AllOracleProviders() []OracleProvider {
	return []OracleProvider{
		OracleProviderRules,
		OracleProviderOllama,
		OracleProviderOpenAI,
		OracleProviderAnthropic,
		OracleProviderGemini,
	}
}

// DefaultOracleModels returns default models for each LLM-backed provider.
func DefaultOracleModels() map[OracleProvider]string {
	return map[OracleProvider]string{
		OracleProviderOllama:    "llama3.2",
		OracleProviderOpenAI:    "gpt-4o-mini",
		OracleProviderAnthropic: "claude-3-5-sonnet-latest",
		OracleProviderGemini:    "gemini-2.5-flash-lite",
	}
}

// DefaultOracleTimeout bounds every oracle call.
const DefaultOracleTimeout = 60 * time.Second

// OracleSettings holds oracle configuration.
type OracleSettings struct {
	// Provider is the oracle backend.
	Provider OracleProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint override.
	BaseURL string

	// APIKey is the API key for cloud providers.
	APIKey string

	// Timeout bounds each oracle call.
	Timeout time.Duration

	// RequestsPerMinute rate limits oracle calls. Zero disables limiting.
	RequestsPerMinute int

	// CrossCheck compares oracle verdicts against the local rule engine.
	CrossCheck bool
}

// IsConfigured returns true if the oracle is set up.
func (o OracleSettings) IsConfigured() bool {
	if !o.Provider.IsValid() {
		return false
	}
	if o.Provider.RequiresAPIKey() && o.APIKey == "" {
		return false
	}
	return true
}

// MailProvider identifies the email transport.
type MailProvider string

// Available mail providers.
const (
	// MailProviderNone disables email delivery.
	MailProviderNone MailProvider = "none"

	// MailProviderSMTP sends through an SMTP server.
	MailProviderSMTP MailProvider = "smtp"

	// MailProviderGmail sends through the Gmail API.
	MailProviderGmail MailProvider = "gmail"
)

// IsValid returns true if the mail provider is recognised.
func (p MailProvider) IsValid() bool {
	switch p {
	case MailProviderNone, MailProviderSMTP, MailProviderGmail:
		return true
	default:
		return false
	}
}

// MailSettings holds notification transport configuration.
type MailSettings struct {
	// Provider is the transport.
	Provider MailProvider

	// From is the sender address.
	From string

	// Host is the SMTP host.
	Host string

	// Port is the SMTP port.
	Port int

	// Username is the SMTP user.
	Username string

	// Password is the SMTP password or app password.
	Password string

	// TLS selects implicit TLS (SMTPS) instead of STARTTLS.
	TLS bool

	// DialAttempts bounds connection establishment retries.
	DialAttempts int

	// GmailTokenFile is the Google credentials JSON (authorized user or service account) for the Gmail provider.
	GmailTokenFile string
}

// StoreBackend identifies the job ledger backend.
type StoreBackend string

// Available job store backends.
const (
	StoreMemory StoreBackend = "memory"
	StoreSQLite StoreBackend = "sqlite"
	StoreRedis  StoreBackend = "redis"
)

// IsValid returns true if the backend is recognised.
func (b StoreBackend) IsValid() bool {
	return b == StoreMemory || b == StoreSQLite || b == StoreRedis
}

// StoreSettings holds job ledger configuration.
type StoreSettings struct {
	// Backend is the ledger implementation.
	Backend StoreBackend

	// Path is the sqlite database directory.
	Path string

	// RedisAddr is the redis server address.
	RedisAddr string

	// RedisTTL expires ledger entries in redis.
	RedisTTL time.Duration
}

// PolicySettings selects the classification policy.
type PolicySettings struct {
	// Name is a built-in policy name.
	Name string

	// File is an optional policy file (TOML or YAML) overriding Name.
	File string

	// Watch reloads File when it changes.
	Watch bool
}

// ServerSettings holds HTTP listener configuration.
type ServerSettings struct {
	// Port is the listen port.
	Port int

	// Mode is the gin mode (debug, release, test).
	Mode string

	// AllowedOrigins are the CORS origins.
	AllowedOrigins []string
}

// TelemetrySettings holds OpenTelemetry configuration.
type TelemetrySettings struct {
	// Enabled turns on OTLP exporters.
	Enabled bool

	// Endpoint is the OTLP gRPC endpoint.
	Endpoint string

	// Insecure disables TLS to the collector.
	Insecure bool

	// SampleRate is the trace sampling ratio.
	SampleRate float64
}

// LogSettings holds logging configuration.
type LogSettings struct {
	// Level is the minimum level (debug, info, warn, error).
	Level string

	// Format is the handler format (text, json).
	Format string
}

// AppSettings holds all application settings.
// Settings are resolved once at start and passed to components as values.
type AppSettings struct {
	Server    ServerSettings
	Oracle    OracleSettings
	Mail      MailSettings
	Store     StoreSettings
	Policy    PolicySettings
	Telemetry TelemetrySettings
	Log       LogSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// The local rule engine is the default oracle; email is disabled.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Server: ServerSettings{
			Port:           3000,
			Mode:           "release",
			AllowedOrigins: []string{"*"},
		},
		Oracle: OracleSettings{
			Provider: OracleProviderRules,
			Timeout:  DefaultOracleTimeout,
		},
		Mail: MailSettings{
			Provider:     MailProviderNone,
			Port:         587,
			DialAttempts: 3,
		},
		Store: StoreSettings{
			Backend:  StoreMemory,
			RedisTTL: 24 * time.Hour,
		},
		Policy: PolicySettings{
			Name: "simple",
		},
		Telemetry: TelemetrySettings{
			SampleRate: 1.0,
		},
		Log: LogSettings{
			Level:  "info",
			Format: "text",
		},
	}
}
