package domain

import (
	"fmt"
	"time"
)

// OracleRequest is the payload handed to a classification oracle.
type OracleRequest struct {
	// Instruction is the compiled policy instruction (system prompt).
	Instruction string

	// Document is the intimation text. May be empty when PDF is set.
	Document Document

	// PDF is the raw upload, forwarded inline to oracles that accept it.
	PDF []byte

	// Policy is the policy fixed for the job. Oracles that classify locally
	// use it instead of reading their policy source again.
	Policy *Policy
}

// TriageRequest is one request to classify a document and dispatch the verdict.
type TriageRequest struct {
	// Document is the extracted document.
	Document Document

	// PDF is the raw upload, if text extraction was not possible.
	PDF []byte

	// Channel is the delivery channel.
	Channel Channel

	// Destination is the email address, required for ChannelEmail.
	Destination string

	// Subject is the email subject.
	Subject string

	// PublishedAt is the publication date used to compute due dates.
	PublishedAt *time.Time
}

// Validate checks the cheap preconditions of a request.
func (r *TriageRequest) Validate() error {
	if !r.Channel.IsValid() {
		return fmt.Errorf("%w: unknown channel %q", ErrInvalidInput, r.Channel)
	}
	if r.Channel == ChannelEmail && r.Destination == "" {
		return ErrMissingDestination
	}
	if r.Document.IsEmpty() && len(r.PDF) == 0 {
		return fmt.Errorf("%w: document has no text", ErrInvalidInput)
	}
	if len(r.PDF) > MaxUploadBytes || r.Document.SizeBytes > MaxUploadBytes {
		return ErrDocumentTooLarge
	}
	return nil
}

// TriageOutcome is the result of a triage request.
type TriageOutcome struct {
	// JobID identifies the job.
	JobID string `json:"job_id"`

	// State is the final job state.
	State JobState `json:"state"`

	// Result is the classification result.
	Result *ClassificationResult `json:"result,omitempty"`

	// Receipt is the delivery receipt.
	Receipt *DeliveryReceipt `json:"receipt,omitempty"`
}
