// Package oracle adapts language models to the driven.Oracle port.
//
// LLMOracle sends the compiled instruction as the system prompt and the
// intimation as the user turn. RateLimited spaces calls to stay inside
// provider quotas and honours Retry-After after a 429.
package oracle
