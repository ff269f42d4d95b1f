// Package app wires driven adapters into the services the CLI runs.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/triagem/internal/adapters/driven/ai"
	"github.com/custodia-labs/triagem/internal/adapters/driven/config/file"
	"github.com/custodia-labs/triagem/internal/adapters/driven/extract"
	"github.com/custodia-labs/triagem/internal/adapters/driven/extract/pdf"
	"github.com/custodia-labs/triagem/internal/adapters/driven/extract/plaintext"
	"github.com/custodia-labs/triagem/internal/adapters/driven/mail/gmail"
	"github.com/custodia-labs/triagem/internal/adapters/driven/mail/smtp"
	"github.com/custodia-labs/triagem/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/triagem/internal/adapters/driven/storage/redis"
	"github.com/custodia-labs/triagem/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/triagem/internal/adapters/driven/telemetry"
	"github.com/custodia-labs/triagem/internal/adapters/driving/cli"
	"github.com/custodia-labs/triagem/internal/core/domain"
	"github.com/custodia-labs/triagem/internal/core/ports/driven"
	"github.com/custodia-labs/triagem/internal/core/rules"
	"github.com/custodia-labs/triagem/internal/core/services"
)

// Ensure Runtime implements the interface.
var _ cli.Runtime = (*Runtime)(nil)

// logoFile is the optional logo embedded in HTML emails, read from the config directory.
const logoFile = "logo.png"

// Runtime resolves settings from files and the environment and builds the pipeline.
type Runtime struct {
	version string
	getenv  func(string) string
}

// New creates a runtime reporting the given version to telemetry.
func New(version string) *Runtime {
	return &Runtime{version: version, getenv: os.Getenv}
}

// Settings loads .env files, opens the TOML store and resolves settings.
func (r *Runtime) Settings(configDir string, envFiles []string) (driven.ConfigStore, domain.AppSettings, error) {
	if err := file.LoadDotEnv(envFiles...); err != nil {
		return nil, domain.DefaultAppSettings(), err
	}

	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, domain.DefaultAppSettings(), fmt.Errorf("failed to open config: %w", err)
	}

	settings, err := file.LoadSettings(store, r.getenv)
	if err != nil {
		return store, settings, err
	}
	return store, settings, nil
}

// Policy loads a policy file, or the named built-in policy.
func (r *Runtime) Policy(s domain.PolicySettings) (*domain.Policy, error) {
	if s.File != "" {
		return file.LoadPolicyFile(s.File)
	}
	name := s.Name
	if name == "" {
		name = rules.PolicySimple
	}
	return rules.Builtin(name)
}

// Prompts opens the prompt directory under configDir.
func (r *Runtime) Prompts(configDir string) (driven.PromptStore, error) {
	dir := ""
	if configDir != "" {
		dir = filepath.Join(configDir, "prompts")
	}
	return file.NewPromptStore(dir)
}

// IsSecret reports whether a config key holds a credential.
func (r *Runtime) IsSecret(key string) bool {
	return file.SecretKeys[key]
}

// GmailConsent prepares the Gmail send authorisation.
func (r *Runtime) GmailConsent(clientID, clientSecret, redirectURL, credentialsFile string) (cli.Consent, error) {
	c, err := gmail.NewConsent(gmail.ConsentConfig{
		ClientID:        clientID,
		ClientSecret:    clientSecret,
		RedirectURL:     redirectURL,
		CredentialsFile: credentialsFile,
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Build wires the triage pipeline. Components opened before a failure are closed.
func (r *Runtime) Build(ctx context.Context, s domain.AppSettings, configDir string) (_ *cli.Services, err error) {
	var closers []func(context.Context) error
	closeAll := func(ctx context.Context) error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i](ctx))
		}
		return errors.Join(errs...)
	}
	defer func() {
		if err != nil {
			_ = closeAll(context.Background())
		}
	}()

	tel, err := telemetry.New(ctx, telemetry.ConfigFromSettings(s.Telemetry, r.version))
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	closers = append(closers, tel.Shutdown)

	policies, err := r.policySource(ctx, s.Policy)
	if err != nil {
		return nil, fmt.Errorf("policy: %w", err)
	}
	if w, ok := policies.(*file.PolicyWatcher); ok {
		closers = append(closers, closeFunc(w.Close))
	}

	prompts, err := r.Prompts(configDir)
	if err != nil {
		return nil, fmt.Errorf("prompts: %w", err)
	}

	jobs, err := openJobStore(ctx, s.Store)
	if err != nil {
		return nil, fmt.Errorf("job store: %w", err)
	}
	closers = append(closers, closeFunc(jobs.Close))

	var mailer driven.Mailer
	if m, err := openMailer(ctx, s.Mail); err != nil {
		return nil, fmt.Errorf("mailer: %w", err)
	} else if m != nil {
		mailer = telemetry.WrapMailer(m, tel, string(s.Mail.Provider))
		closers = append(closers, closeFunc(mailer.Close))
	}

	oracle, err := ai.CreateAndValidateOracle(&s.Oracle, policies)
	if err != nil {
		return nil, fmt.Errorf("oracle: %w", err)
	}
	wrapped := telemetry.WrapOracle(oracle, tel)
	closers = append(closers, closeFunc(wrapped.Close))

	dispatcher := services.NewDispatchService(jobs, mailer, services.DispatchConfig{
		From:    s.Mail.From,
		Logo:    loadLogo(configDir),
		Prompts: prompts,
	})
	triage := services.NewTriageService(wrapped, policies, jobs, dispatcher, services.TriageConfig{
		Timeout:    s.Oracle.Timeout,
		CrossCheck: s.Oracle.CrossCheck,
		Prompts:    prompts,
	})

	svc := &cli.Services{
		Triage:     triage,
		Extractor:  extract.NewRegistry(pdf.New(), plaintext.New()),
		Middleware: []gin.HandlerFunc{telemetry.GinMiddleware(tel)},
		Close:      closeAll,
	}
	if ledger, ok := jobs.(driven.JobLedger); ok {
		svc.Jobs = ledger
	}

	slog.DebugContext(ctx, "triage pipeline ready",
		"oracle", oracle.Name(),
		"policy", policies.Current().Name,
		"store", s.Store.Backend,
		"mail", s.Mail.Provider,
	)
	return svc, nil
}

// policySource returns a watcher for a watched policy file, or a fixed policy.
func (r *Runtime) policySource(ctx context.Context, s domain.PolicySettings) (driven.PolicySource, error) {
	if s.File != "" && s.Watch {
		w, err := file.NewPolicyWatcher(s.File)
		if err != nil {
			return nil, err
		}
		if err := w.Start(ctx); err != nil {
			_ = w.Close()
			return nil, err
		}
		return w, nil
	}

	policy, err := r.Policy(s)
	if err != nil {
		return nil, err
	}
	return rules.StaticPolicy{Policy: policy}, nil
}

func openJobStore(ctx context.Context, s domain.StoreSettings) (driven.JobStore, error) {
	switch s.Backend {
	case domain.StoreMemory, "":
		return memory.NewJobStore(), nil
	case domain.StoreSQLite:
		return sqlite.NewStore(s.Path)
	case domain.StoreRedis:
		opts := redis.Options{Address: s.RedisAddr, TTL: s.RedisTTL}
		if strings.HasPrefix(s.RedisAddr, "redis://") || strings.HasPrefix(s.RedisAddr, "rediss://") {
			opts = redis.Options{URL: s.RedisAddr, TTL: s.RedisTTL}
		}
		return redis.NewJobStore(ctx, opts)
	default:
		return nil, fmt.Errorf("%w: store backend %q", domain.ErrUnsupportedType, s.Backend)
	}
}

// openMailer returns nil when email delivery is disabled.
func openMailer(ctx context.Context, s domain.MailSettings) (driven.Mailer, error) {
	switch s.Provider {
	case domain.MailProviderNone, "":
		return nil, nil
	case domain.MailProviderSMTP:
		return smtp.NewSender(smtp.Config{
			Host:         s.Host,
			Port:         s.Port,
			Username:     s.Username,
			Password:     s.Password,
			TLS:          s.TLS,
			DialAttempts: s.DialAttempts,
		})
	case domain.MailProviderGmail:
		ts, err := gmail.TokenSourceFromFile(ctx, s.GmailTokenFile)
		if err != nil {
			return nil, err
		}
		return gmail.NewSender(ctx, ts)
	default:
		return nil, fmt.Errorf("%w: mail provider %q", domain.ErrUnsupportedType, s.Provider)
	}
}

// loadLogo reads the inline email logo. A missing file disables the logo.
func loadLogo(configDir string) *domain.InlineAsset {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		configDir = filepath.Join(home, ".triagem")
	}
	data, err := os.ReadFile(filepath.Join(configDir, logoFile))
	if err != nil {
		return nil
	}
	return &domain.InlineAsset{
		ContentID: services.LogoContentID,
		Filename:  logoFile,
		MIMEType:  "image/png",
		Content:   data,
	}
}

func closeFunc(fn func() error) func(context.Context) error {
	return func(context.Context) error { return fn() }
}
