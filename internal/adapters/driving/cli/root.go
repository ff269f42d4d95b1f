// Package cli provides the triagem command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/triagem/internal/core/domain"
	"github.com/custodia-labs/triagem/internal/core/ports/driven"
	"github.com/custodia-labs/triagem/internal/core/ports/driving"
	"github.com/custodia-labs/triagem/internal/logger"
)

// version is set at build time.
var version = "dev"

var (
	configDir string
	envFiles  []string
	verbose   bool
)

// Runtime resolves settings and wires the services commands run against.
type Runtime interface {
	// Settings opens the config store and resolves settings.
	// The store is returned even when the settings are invalid so they can be fixed.
	Settings(configDir string, envFiles []string) (driven.ConfigStore, domain.AppSettings, error)

	// Policy loads the policy named by the settings without building the pipeline.
	Policy(settings domain.PolicySettings) (*domain.Policy, error)

	// Prompts opens the prompt store.
	Prompts(configDir string) (driven.PromptStore, error)

	// IsSecret reports whether a config key holds a credential.
	IsSecret(key string) bool

	// Build wires the triage pipeline for the given settings.
	Build(ctx context.Context, settings domain.AppSettings, configDir string) (*Services, error)

	// GmailConsent prepares the browser authorisation that lets triagem send as a Gmail account.
	GmailConsent(clientID, clientSecret, redirectURL, credentialsFile string) (Consent, error)
}

// Consent completes a browser authorisation for a mail provider.
type Consent interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) error
	CredentialsFile() string
}

// Services are the wired components a command runs against.
type Services struct {
	Triage     driving.TriageService
	Extractor  driven.TextExtractor
	Jobs       driven.JobLedger
	Middleware []gin.HandlerFunc
	Close      func(context.Context) error
}

var (
	appRuntime  Runtime
	configStore driven.ConfigStore
	appSettings domain.AppSettings

	// Service globals. Tests replace them with mocks.
	triageService driving.TriageService
	extractor     driven.TextExtractor
	jobLedger     driven.JobLedger
	middleware    []gin.HandlerFunc

	buildOnce sync.Once
	buildErr  error
	closeFn   func(context.Context) error
)

var rootCmd = &cobra.Command{
	Use:   "triagem",
	Short: "Triage of court intimations",
	Long: `Triagem classifies Brazilian court intimations, suggests the procedural
action with its deadline, and replies over HTTP or by email.

Run 'triagem serve' to start the HTTP intake, or 'triagem classify' to
classify a single document from the terminal.`,
	SilenceUsage:      true,
	PersistentPreRunE: initRuntime,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.triagem)")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load (default .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// SetRuntime sets the runtime used to resolve settings and build services.
func SetRuntime(r Runtime) {
	appRuntime = r
}

// SetVersion sets the version reported by 'triagem version'.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command and releases built services.
func Execute() error {
	err := rootCmd.Execute()
	if closeFn != nil {
		if cerr := closeFn(context.Background()); cerr != nil {
			slog.Warn("failed to release services", "error", cerr)
		}
	}
	return err
}

// initRuntime resolves settings before any command runs.
func initRuntime(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if appRuntime == nil || cmd == versionCmd {
		return nil
	}

	store, settings, err := appRuntime.Settings(configDir, envFiles)
	if store != nil {
		configStore = store
	}
	if err != nil {
		// config commands must still run to repair invalid settings
		if !isConfigCommand(cmd) {
			return err
		}
		logger.Warn("settings are invalid: %v", err)
	}
	appSettings = settings

	level := logger.ParseLevel(settings.Log.Level)
	if verbose {
		level = slog.LevelDebug
	}
	logger.Init(settings.Log.Format, level, os.Stderr)
	return nil
}

func isConfigCommand(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c == configCmd {
			return true
		}
	}
	return false
}

// ensureServices builds the pipeline once, unless services were set directly.
func ensureServices(ctx context.Context) error {
	if triageService != nil {
		return nil
	}
	if appRuntime == nil {
		return errors.New("triage service not configured")
	}

	buildOnce.Do(func() {
		var svc *Services
		svc, buildErr = appRuntime.Build(ctx, appSettings, configDir)
		if buildErr != nil {
			buildErr = fmt.Errorf("failed to start triage pipeline: %w", buildErr)
			return
		}
		triageService = svc.Triage
		extractor = svc.Extractor
		jobLedger = svc.Jobs
		middleware = svc.Middleware
		closeFn = svc.Close
	})
	return buildErr
}
