package oracle

import (
	"context"
	"fmt"

	"github.com/custodia-labs/triagem/internal/core/domain"
	"github.com/custodia-labs/triagem/internal/core/ports/driven"
)

// Ensure LLMOracle implements the interface.
var _ driven.Oracle = (*LLMOracle)(nil)

// Default generation options. Verdicts are short and should be stable.
const (
	DefaultMaxTokens   = 512
	DefaultTemperature = 0.1

	documentPrompt = "Analise o documento PDF anexo."
)

// Options tunes generation for the oracle.
type Options struct {
	MaxTokens   int
	Temperature float64
}

// LLMOracle adapts a driven.LLMService to the driven.Oracle port.
type LLMOracle struct {
	name string
	llm  driven.LLMService
	opts driven.ChatOptions
}

// NewLLMOracle creates an oracle named after its provider.
func NewLLMOracle(name string, llm driven.LLMService, opts Options) *LLMOracle {
	if opts.MaxTokens == 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.Temperature == 0 {
		opts.Temperature = DefaultTemperature
	}
	return &LLMOracle{
		name: name,
		llm:  llm,
		opts: driven.ChatOptions{MaxTokens: opts.MaxTokens, Temperature: opts.Temperature},
	}
}

// Invoke asks the model for a verdict.
// Text is preferred; raw PDF bytes are sent only when no text was extracted.
func (o *LLMOracle) Invoke(ctx context.Context, req domain.OracleRequest) (string, error) {
	system := driven.ChatMessage{Role: "system", Content: req.Instruction}

	if !req.Document.IsEmpty() {
		messages := []driven.ChatMessage{system, {Role: "user", Content: req.Document.Text}}
		out, err := o.llm.Chat(ctx, messages, o.opts)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %w", domain.ErrOracleUnavailable, o.name, err)
		}
		return out, nil
	}

	docLLM, ok := o.llm.(driven.DocumentLLM)
	if !ok || len(req.PDF) == 0 {
		return "", fmt.Errorf("%w: %s needs extracted text", domain.ErrExtractorUnavailable, o.name)
	}
	messages := []driven.ChatMessage{system, {Role: "user", Content: documentPrompt}}
	out, err := docLLM.ChatWithDocument(ctx, messages, domain.MIMETypePDF, req.PDF, o.opts)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrOracleUnavailable, o.name, err)
	}
	return out, nil
}

// Name returns the provider name.
func (o *LLMOracle) Name() string {
	return o.name
}

// AcceptsPDF reports whether the model can read PDF bytes directly.
func (o *LLMOracle) AcceptsPDF() bool {
	_, ok := o.llm.(driven.DocumentLLM)
	return ok
}

// Model returns the underlying model name.
func (o *LLMOracle) Model() string {
	return o.llm.ModelName()
}

// Ping checks the provider is reachable.
func (o *LLMOracle) Ping(ctx context.Context) error {
	return o.llm.Ping(ctx)
}

// Close releases the underlying service.
func (o *LLMOracle) Close() error {
	return o.llm.Close()
}
