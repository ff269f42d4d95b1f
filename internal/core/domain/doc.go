// Package domain defines the core business entities for triagem.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: The text of a court intimation after intake
//   - Policy: An ordered set of classification rules and output constraints
//   - ClassificationResult: The verdict derived for one document
//   - NotificationJob: One triage request travelling through dispatch
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
