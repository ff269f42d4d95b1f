// Package mcp provides an MCP (Model Context Protocol) server adapter for triagem.
// It lets AI assistants classify intimations and email the analysis.
package mcp

import "errors"

// ErrMissingTriageService is returned when the triage service is not provided.
var ErrMissingTriageService = errors.New("mcp: triage service is required")
