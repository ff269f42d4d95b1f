// Package pdf extracts text from PDF files using the pdftotext tool from poppler.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/custodia-labs/triagem/internal/core/domain"
	"github.com/custodia-labs/triagem/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

const toolName = "pdftotext"

// ErrPDFToolNotFound is returned when pdftotext is not installed.
// It wraps domain.ErrExtractorUnavailable so callers can fall back to raw bytes.
var ErrPDFToolNotFound = fmt.Errorf("%w: pdftotext not found in PATH", domain.ErrExtractorUnavailable)

// CommandRunner runs an external command and returns its standard output.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands with os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, ErrPDFToolNotFound
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}

// Extractor extracts text from PDF documents.
type Extractor struct {
	runner CommandRunner
}

// New creates a PDF extractor that shells out to pdftotext.
func New() *Extractor {
	return &Extractor{runner: execRunner{}}
}

// NewWithRunner creates a PDF extractor with a custom command runner.
func NewWithRunner(runner CommandRunner) *Extractor {
	return &Extractor{runner: runner}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{domain.MIMETypePDF}
}

// Extract writes the upload to a temporary file and reads its text layer.
// A PDF without a text layer (a scan) yields an empty document, not an error.
func (e *Extractor) Extract(ctx context.Context, raw *domain.RawDocument) (domain.Document, error) {
	if raw == nil || len(raw.Content) == 0 {
		return domain.Document{}, fmt.Errorf("%w: empty pdf", domain.ErrInvalidInput)
	}
	if !bytes.HasPrefix(raw.Content, []byte("%PDF")) {
		return domain.Document{}, fmt.Errorf("%w: not a pdf file", domain.ErrUnsupportedMediaType)
	}

	tmp, err := os.CreateTemp("", "triagem-*.pdf")
	if err != nil {
		return domain.Document{}, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw.Content); err != nil {
		tmp.Close()
		return domain.Document{}, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return domain.Document{}, fmt.Errorf("close temp file: %w", err)
	}

	out, err := e.runner.Run(ctx, toolName, "-layout", "-enc", "UTF-8", tmp.Name(), "-")
	if err != nil {
		if errors.Is(err, domain.ErrExtractorUnavailable) {
			return domain.Document{}, err
		}
		return domain.Document{}, fmt.Errorf("pdftotext failed: %w", err)
	}

	doc := domain.NewTextDocument(cleanText(string(out)), raw.Name)
	doc.SizeBytes = raw.Size()
	return doc, nil
}

// cleanText drops form feeds and trailing spaces left by the layout mode.
func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\f", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// CheckAvailable reports whether pdftotext is installed.
func CheckAvailable() error {
	if _, err := exec.LookPath(toolName); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions returns platform-specific installation instructions.
func InstallInstructions() string {
	return `pdftotext is required to read PDF text. Install poppler:
  macOS:         brew install poppler
  Ubuntu/Debian: sudo apt install poppler-utils
  Fedora:        sudo dnf install poppler-utils
  Windows:       choco install poppler

Without it, PDFs are sent as bytes to oracles that read them (gemini, anthropic).`
}
