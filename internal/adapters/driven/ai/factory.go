// Package ai provides factory functions for creating the configured oracle.
package ai

import (
	"context"
	"fmt"
	"time"

	anthropicllm "github.com/custodia-labs/triagem/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/triagem/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/triagem/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/triagem/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/triagem/internal/adapters/driven/oracle"
	"github.com/custodia-labs/triagem/internal/core/domain"
	"github.com/custodia-labs/triagem/internal/core/ports/driven"
	"github.com/custodia-labs/triagem/internal/core/rules"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// fixHint tells the operator how to repair a broken oracle configuration.
const fixHint = "Run 'triagem config set oracle.provider <name>' to fix"

// CreateAndValidateOracle creates the configured oracle and validates connectivity.
// The local rule engine needs no validation.
func CreateAndValidateOracle(settings *domain.OracleSettings, policies driven.PolicySource) (driven.Oracle, error) {
	o, err := CreateOracle(settings, policies)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrOracleUnavailable, err, fixHint)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := o.Ping(ctx); err != nil {
		o.Close()
		return nil, fmt.Errorf("%w: %s unreachable (%w). %s", domain.ErrOracleUnavailable, o.Name(), err, fixHint)
	}
	return o, nil
}

// CreateOracle creates the oracle for the configured provider.
// Language-model oracles are rate limited when RequestsPerMinute is set.
func CreateOracle(settings *domain.OracleSettings, policies driven.PolicySource) (driven.Oracle, error) {
	if settings == nil || settings.Provider == "" || settings.Provider == domain.OracleProviderRules {
		return rules.NewLocalOracle(policies), nil
	}
	if !settings.Provider.IsValid() {
		return nil, fmt.Errorf("unsupported oracle provider: %s", settings.Provider)
	}
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%s requires an API key", settings.Provider)
	}

	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, err
	}

	llmOracle := oracle.NewLLMOracle(settings.Provider.String(), svc, oracle.Options{})
	if settings.RequestsPerMinute <= 0 {
		return llmOracle, nil
	}
	return oracle.NewRateLimited(llmOracle, oracle.RateLimitConfig{
		RequestsPerMinute: settings.RequestsPerMinute,
	}), nil
}

// ValidateOracleConfig creates the oracle and pings it, then releases it.
// Used by the CLI to check credentials when they are set.
func ValidateOracleConfig(settings *domain.OracleSettings) error {
	o, err := CreateOracle(settings, rules.StaticPolicy{Policy: rules.Simple()})
	if err != nil {
		return err
	}
	defer o.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return o.Ping(ctx)
}

// CreateLLMService creates the language model client for the configured provider.
func CreateLLMService(settings *domain.OracleSettings) (driven.LLMService, error) {
	switch settings.Provider {
	case domain.OracleProviderOllama:
		return ollamallm.NewLLMService(ollamallm.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout,
		}), nil

	case domain.OracleProviderOpenAI:
		return openaillm.NewLLMService(openaillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout,
		})

	case domain.OracleProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout,
		})

	case domain.OracleProviderGemini:
		return geminillm.NewLLMService(geminillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout,
		})

	default:
		return nil, fmt.Errorf("unsupported oracle provider: %s", settings.Provider)
	}
}
