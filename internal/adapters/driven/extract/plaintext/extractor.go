// Package plaintext reads intimations that arrive as text.
package plaintext

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/custodia-labs/triagem/internal/core/domain"
	"github.com/custodia-labs/triagem/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor handles plain text documents.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{"text/plain", "text/markdown", "text/csv"}
}

// Extract decodes the content as UTF-8.
// Court systems still export Latin-1, so invalid UTF-8 is decoded as Windows-1252.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawDocument) (domain.Document, error) {
	if raw == nil {
		return domain.Document{}, domain.ErrInvalidInput
	}

	content := raw.Content
	if !utf8.Valid(content) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(content)
		if err != nil {
			return domain.Document{}, fmt.Errorf("%w: undecodable text: %w", domain.ErrInvalidInput, err)
		}
		content = decoded
	}

	text := strings.TrimPrefix(string(content), "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")

	doc := domain.NewTextDocument(text, raw.Name)
	doc.SizeBytes = raw.Size()
	return doc, nil
}
