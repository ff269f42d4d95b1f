// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Oracle: Produces a verdict for a document under a compiled instruction
//   - PolicySource: Supplies the current classification policy
//   - JobStore: Job ledger (identity, state and channel only)
//   - TextExtractor: Turns uploads into document text
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - Mailer: Email transport. Without it, the email channel fails with DeliveryFailed.
//   - LLMService: Language model backing an LLM oracle.
//   - PromptStore: User-editable instruction preamble. Without it, the built-in preamble is used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
