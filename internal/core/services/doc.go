// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// A triage job flows Created -> Classifying -> Classified -> Dispatching ->
// Delivered, or ends early in ClassificationFailed or DeliveryFailed.
// Services hold no state shared between jobs beyond the ports they call.
package services
