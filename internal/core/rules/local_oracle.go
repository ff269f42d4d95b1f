package rules

import (
	"context"
	"fmt"

	"github.com/custodia-labs/triagem/internal/core/domain"
	"github.com/custodia-labs/triagem/internal/core/ports/driven"
)

// Ensure LocalOracle implements the interface.
var _ driven.Oracle = (*LocalOracle)(nil)

// LocalOracle is a deterministic oracle backed by the rule engine.
// It renders the canonical verdict so the oracle path and the verdict
// validator run exactly as they do with an external model.
type LocalOracle struct {
	policies driven.PolicySource
}

// NewLocalOracle creates a rule-engine oracle reading policies from source.
func NewLocalOracle(source driven.PolicySource) *LocalOracle {
	return &LocalOracle{policies: source}
}

// Invoke classifies the document locally and returns the rendered verdict.
// The instruction is ignored; the request's policy is the instruction,
// and the source is read only when the request carries none.
func (o *LocalOracle) Invoke(ctx context.Context, req domain.OracleRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if req.Document.IsEmpty() {
		return "", fmt.Errorf("%w: rule engine needs document text", domain.ErrOracleMalformedResponse)
	}
	policy := req.Policy
	if policy == nil {
		policy = o.policies.Current()
	}
	res, err := Classify(req.Document, policy)
	if err != nil {
		return "", err
	}
	return res.Verdict, nil
}

// Name returns the oracle name.
func (o *LocalOracle) Name() string {
	return string(domain.OracleProviderRules)
}

// AcceptsPDF returns false; the rule engine only reads text.
func (o *LocalOracle) AcceptsPDF() bool {
	return false
}

// Ping always succeeds.
func (o *LocalOracle) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op.
func (o *LocalOracle) Close() error {
	return nil
}

// StaticPolicy is a PolicySource that always returns the same policy.
type StaticPolicy struct {
	Policy *domain.Policy
}

// Current returns the policy.
func (s StaticPolicy) Current() *domain.Policy {
	return s.Policy
}
