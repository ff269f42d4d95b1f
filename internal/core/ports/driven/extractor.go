package driven

import (
	"context"

	"github.com/custodia-labs/triagem/internal/core/domain"
)

// TextExtractor turns an upload into document text.
// Each extractor handles specific MIME types (e.g., PDF, plain text).
type TextExtractor interface {
	// SupportedMIMETypes returns the MIME types this extractor handles.
	SupportedMIMETypes() []string

	// Extract returns the document text of the upload.
	// Returns domain.ErrExtractorUnavailable if the backing tool is missing.
	Extract(ctx context.Context, raw *domain.RawDocument) (domain.Document, error)
}
