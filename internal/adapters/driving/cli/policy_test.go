package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/triagem/internal/core/domain"
	"github.com/custodia-labs/triagem/internal/core/ports/driven"
	"github.com/custodia-labs/triagem/internal/core/rules"
)

func TestPolicyList(t *testing.T) {
	resetGlobals(t)
	appRuntime = nil

	out, err := executeCommand(t, "", "policy", "list")
	require.NoError(t, err)
	requireContainsAll(t, out, rules.PolicySimple, rules.PolicyRisk, rules.PolicyCollegiate)
}

func TestPolicyShow_Builtin(t *testing.T) {
	resetGlobals(t)
	appRuntime = nil
	triageService = nil

	out, err := executeCommand(t, "", "policy", "show", rules.PolicySimple)
	require.NoError(t, err)
	requireContainsAll(t, out,
		"Policy simple",
		"Variant: simple",
		"Words: 15-30",
		"Guard: enabled",
		"[1] "+rules.ClassMerit,
		"Apelação: 15 dias úteis",
		"Trigger: always",
	)
}

func TestPolicyShow_ConfiguredFromService(t *testing.T) {
	resetGlobals(t)
	appRuntime = nil
	triageService = &mockTriageService{policy: rules.Collegiate()}

	out, err := executeCommand(t, "", "policy", "show")
	require.NoError(t, err)
	requireContainsAll(t, out, "Policy collegiate", rules.ClassMonocratic)
}

func TestPolicyShow_FileWithoutRuntime(t *testing.T) {
	resetGlobals(t)
	appRuntime = nil

	_, err := executeCommand(t, "", "policy", "show", "custom.toml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "policy loader not configured")
}

func TestPolicyShow_ThroughRuntime(t *testing.T) {
	resetGlobals(t)
	custom := rules.Simple()
	custom.Name = "escritorio"
	rt := &mockRuntime{policies: map[string]*domain.Policy{"custom.yaml": custom}}
	appRuntime = rt

	out, err := executeCommand(t, "", "policy", "show", "custom.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "Policy escritorio")
}

func TestPolicyValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		resetGlobals(t)
		appRuntime = &mockRuntime{policies: map[string]*domain.Policy{"ok.toml": rules.Simple()}}

		out, err := executeCommand(t, "", "policy", "validate", "ok.toml")
		require.NoError(t, err)
		requireContainsAll(t, out, "valid:", "simple", "(4 rules)")
	})

	t.Run("invalid", func(t *testing.T) {
		resetGlobals(t)
		appRuntime = &mockRuntime{policyErr: errors.Join(domain.ErrInvalidPolicy, errors.New("rule merit: empty action"))}

		out, err := executeCommand(t, "", "policy", "validate", "bad.toml")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidPolicy)
		assert.Contains(t, out, "invalid:")
	})

	t.Run("no loader", func(t *testing.T) {
		resetGlobals(t)
		appRuntime = nil

		_, err := executeCommand(t, "", "policy", "validate", "ok.toml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "policy loader not configured")
	})
}

func TestPolicyInstruction(t *testing.T) {
	t.Run("from running service", func(t *testing.T) {
		resetGlobals(t)
		appRuntime = nil
		triageService = &mockTriageService{instruction: "compiled instruction"}

		out, err := executeCommand(t, "", "policy", "instruction")
		require.NoError(t, err)
		assert.Equal(t, "compiled instruction\n", out)
	})

	t.Run("stored preamble", func(t *testing.T) {
		resetGlobals(t)
		triageService = nil
		appRuntime = &mockRuntime{
			policies: map[string]*domain.Policy{rules.PolicySimple: rules.Simple()},
			prompts:  &mockPrompts{prompts: map[string]string{driven.PromptTriagePreamble: "Preâmbulo do escritório."}},
		}

		out, err := executeCommand(t, "", "policy", "instruction", rules.PolicySimple)
		require.NoError(t, err)
		assert.Contains(t, out, "Preâmbulo do escritório.")
		assert.Contains(t, out, rules.ClassInformative)
		assert.NotContains(t, out, rules.DefaultPreamble)
	})

	t.Run("default preamble", func(t *testing.T) {
		resetGlobals(t)
		triageService = nil
		appRuntime = &mockRuntime{
			policies: map[string]*domain.Policy{rules.PolicySimple: rules.Simple()},
			prompts:  &mockPrompts{},
		}

		out, err := executeCommand(t, "", "policy", "instruction", rules.PolicySimple)
		require.NoError(t, err)
		assert.Contains(t, out, rules.DefaultPreamble)
	})
}

func TestIsPolicyFile(t *testing.T) {
	tests := []struct {
		arg  string
		want bool
	}{
		{arg: "simple", want: false},
		{arg: "policy.toml", want: true},
		{arg: "policy.YAML", want: true},
		{arg: "dir/policy.yml", want: true},
		{arg: "policy.json", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			assert.Equal(t, tt.want, isPolicyFile(tt.arg))
		})
	}
}

func TestDescribePredicate(t *testing.T) {
	tests := []struct {
		name string
		pred domain.TextPredicate
		want string
	}{
		{name: "always", pred: domain.Always(), want: "always"},
		{name: "phrases", pred: domain.Phrases("julgo procedente", "extingo"), want: `contains "julgo procedente", "extingo"`},
		{name: "structural", pred: domain.Structural(domain.MarkerCollegiate), want: "decision is collegiate"},
		{name: "expr", pred: domain.TextPredicate{Kind: domain.PredicateExpr, Expr: "words > 10"}, want: "expr words > 10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describePredicate(tt.pred))
		})
	}
}
