// Package rules is the deterministic triage rule engine.
//
// It classifies intimation text against a domain.Policy, compiles the policy
// into the instruction handed to an external oracle, and validates oracle
// verdicts against the policy's output contract. Everything here is a pure
// function of (text, policy) apart from the compiled expression cache.
//
// # Tiers
//
// Rules are evaluated in ascending priority and the first match wins:
//
//  0. guard: text without notification structure is NotAnIntimation
//  1. merit judgments and interlocutory rulings
//  2. monocratic and collegiate decisions (collegiate policy only)
//  3. procedural manifestation
//  4. fallback, with the general statutory deadline
package rules
