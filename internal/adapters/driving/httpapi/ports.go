package httpapi

import (
	"github.com/custodia-labs/triagem/internal/core/ports/driven"
	"github.com/custodia-labs/triagem/internal/core/ports/driving"
)

// Ports aggregates the ports required by the HTTP server.
type Ports struct {
	// Triage classifies and dispatches uploads.
	Triage driving.TriageService

	// Extractor turns PDF uploads into text. When nil, the raw PDF is
	// forwarded to the oracle.
	Extractor driven.TextExtractor
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Triage == nil {
		return ErrMissingTriageService
	}
	return nil
}
