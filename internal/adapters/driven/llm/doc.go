// Package llm holds what the provider adapters under it share:
// the API error type and Retry-After parsing.
package llm
