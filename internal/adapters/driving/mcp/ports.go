package mcp

import (
	"github.com/custodia-labs/triagem/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Triage classifies intimations and dispatches verdicts.
	Triage driving.TriageService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Triage == nil {
		return ErrMissingTriageService
	}
	return nil
}
