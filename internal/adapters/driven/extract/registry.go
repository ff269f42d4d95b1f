package extract

import (
	"context"
	"fmt"
	"mime"
	"sort"

	"github.com/custodia-labs/triagem/internal/core/domain"
	"github.com/custodia-labs/triagem/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.TextExtractor = (*Registry)(nil)

// Registry dispatches extraction to the extractor registered for a MIME type.
// Later registrations win.
type Registry struct {
	byType map[string]driven.TextExtractor
}

// NewRegistry creates a registry holding the given extractors.
func NewRegistry(extractors ...driven.TextExtractor) *Registry {
	r := &Registry{byType: make(map[string]driven.TextExtractor)}
	for _, e := range extractors {
		r.Register(e)
	}
	return r
}

// Register adds an extractor for all its supported MIME types.
func (r *Registry) Register(e driven.TextExtractor) {
	for _, t := range e.SupportedMIMETypes() {
		r.byType[t] = e
	}
}

// SupportedMIMETypes returns every registered MIME type, sorted.
func (r *Registry) SupportedMIMETypes() []string {
	types := make([]string, 0, len(r.byType))
	for t := range r.byType {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Extract extracts text using the extractor for the document's MIME type.
// Parameters such as charset are ignored when matching.
func (r *Registry) Extract(ctx context.Context, raw *domain.RawDocument) (domain.Document, error) {
	if raw == nil {
		return domain.Document{}, domain.ErrInvalidInput
	}
	mediaType := raw.MIMEType
	if parsed, _, err := mime.ParseMediaType(raw.MIMEType); err == nil {
		mediaType = parsed
	}
	e, ok := r.byType[mediaType]
	if !ok {
		return domain.Document{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedMediaType, raw.MIMEType)
	}
	return e.Extract(ctx, raw)
}
