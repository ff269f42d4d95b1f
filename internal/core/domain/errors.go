package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	// It is the caller-error class and always maps to a 4xx-equivalent.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown oracle, mailer or extractor type.
	ErrUnsupportedType = errors.New("unsupported type")

	// Intake Errors.

	// ErrMissingDestination indicates an email job has no destination address.
	// It is raised before any oracle call is made.
	ErrMissingDestination = errors.New("missing destination")

	// ErrDocumentTooLarge indicates an upload exceeded the intake size limit.
	ErrDocumentTooLarge = errors.New("document too large")

	// ErrUnsupportedMediaType indicates an upload that is not a PDF.
	ErrUnsupportedMediaType = errors.New("unsupported media type")

	// ErrExtractorUnavailable indicates no text extractor is installed for the upload.
	ErrExtractorUnavailable = errors.New("text extractor unavailable")

	// Oracle Errors.

	// ErrOracleUnavailable indicates a transport failure or timeout calling the oracle.
	ErrOracleUnavailable = errors.New("oracle unavailable")

	// ErrOracleMalformedResponse indicates the oracle answered without extractable text.
	ErrOracleMalformedResponse = errors.New("oracle returned a malformed response")

	// ErrFormatViolation indicates oracle output that breaks the policy's output contract.
	ErrFormatViolation = errors.New("format violation")

	// ErrInvalidPolicy indicates a classification policy that breaks its invariants.
	ErrInvalidPolicy = errors.New("invalid classification policy")

	// Dispatch Errors.

	// ErrDeliveryFailed indicates the notification transport rejected or failed a send.
	ErrDeliveryFailed = errors.New("delivery failed")

	// ErrJobTerminal indicates a transition was attempted out of a terminal job state.
	ErrJobTerminal = errors.New("job already in terminal state")

	// ErrInvalidTransition indicates a job state change the state machine does not allow.
	ErrInvalidTransition = errors.New("invalid job state transition")
)

// ErrorKind is the stable, user-visible name of an error class.
// Boundaries (HTTP, MCP, CLI) report it next to a human-readable detail.
type ErrorKind string

// Error kinds reported at the boundary.
const (
	KindValidation         ErrorKind = "ValidationError"
	KindMissingDestination ErrorKind = "MissingDestination"
	KindOracleUnavailable  ErrorKind = "OracleUnavailable"
	KindOracleMalformed    ErrorKind = "OracleMalformedResponse"
	KindFormatViolation    ErrorKind = "FormatViolation"
	KindDeliveryFailed     ErrorKind = "DeliveryFailed"
	KindInternal           ErrorKind = "Internal"
)

// KindOf classifies err into its stable kind.
// Unknown errors are reported as KindInternal.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingDestination):
		return KindMissingDestination
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrDocumentTooLarge),
		errors.Is(err, ErrUnsupportedMediaType):
		return KindValidation
	case errors.Is(err, ErrOracleUnavailable):
		return KindOracleUnavailable
	case errors.Is(err, ErrOracleMalformedResponse):
		return KindOracleMalformed
	case errors.Is(err, ErrFormatViolation):
		return KindFormatViolation
	case errors.Is(err, ErrDeliveryFailed):
		return KindDeliveryFailed
	default:
		return KindInternal
	}
}

// IsCallerError reports whether err is the caller's fault (4xx-equivalent).
func IsCallerError(err error) bool {
	switch KindOf(err) {
	case KindValidation, KindMissingDestination:
		return true
	default:
		return false
	}
}
