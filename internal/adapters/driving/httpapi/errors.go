// Package httpapi provides the HTTP intake adapter for triagem.
// It accepts intimation uploads and replies with the analysis or sends it by email.
package httpapi

import "errors"

// ErrMissingTriageService is returned when the triage service is not provided.
var ErrMissingTriageService = errors.New("httpapi: triage service is required")
