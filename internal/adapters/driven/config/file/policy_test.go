package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/triagem/internal/core/domain"
	"github.com/custodia-labs/triagem/internal/core/rules"
)

const tomlPolicy = `
name = "escritorio"
description = "Política do escritório"
variant = "simple"
excluded = ["STF"]
fallback_deadline_days = 5

[guard]
enabled = true

[calendar]
extra_holidays = ["2025-11-20"]

[[rules]]
id = "merit"
tier = "merit"
priority = 10
classification = "Sentença"
action = "Embargos de Declaração (5 dias) e Apelação (15 dias)."
  [rules.predicate]
  kind = "phrases"
  phrases = ["julgo procedente", "julgo improcedente"]
  [[rules.deadlines]]
  name = "Embargos de Declaração"
  days = 5
  [[rules.deadlines]]
  name = "Apelação"
  days = 15

[[rules]]
id = "long"
tier = "manifestation"
priority = 20
classification = "Texto Longo"
action = "Manifestar-se no prazo de 15 dias."
  [rules.predicate]
  kind = "expr"
  expr = "words > 500"

[[rules]]
id = "informative"
tier = "fallback"
priority = 100
classification = "Publicação Informativa"
action = "Ciência. Prazo geral de 5 dias."
explicit_deadline = true
  [rules.predicate]
  kind = "always"
`

const yamlPolicy = `
name: risco-escritorio
extends: risk
description: Risco com percentuais do escritório
rules:
  - id: merit
    tier: merit
    priority: 10
    classification: Sentença
    action: Embargos de Declaração (5 dias) e Apelação (15 dias).
    predicate:
      kind: phrases
      phrases: [procedente]
    deadlines:
      - {name: Embargos de Declaração, days: 5}
      - {name: Apelação, days: 15}
    risk: {file_risk: 20, skip_risk: 80}
  - id: informative
    tier: fallback
    priority: 100
    classification: Publicação Informativa
    action: Ciência.
    predicate: {kind: always}
`

func TestParsePolicy_TOML(t *testing.T) {
	p, err := ParsePolicy([]byte(tomlPolicy), PolicyFormatTOML)
	require.NoError(t, err)

	assert.Equal(t, "escritorio", p.Name)
	assert.Equal(t, domain.VariantSimple, p.Variant)
	assert.Equal(t, []string{"STF"}, p.Excluded)
	assert.True(t, p.Guard.Enabled)
	assert.Equal(t, rules.DefaultGuardMarkers, p.Guard.Markers)
	assert.Equal(t, []string{"2025-11-20"}, p.Calendar.ExtraHolidays)
	require.Len(t, p.Rules, 3)

	merit := p.Rules[0]
	assert.Equal(t, domain.TierMerit, merit.Tier)
	assert.Equal(t, domain.PredicatePhrases, merit.Predicate.Kind)
	assert.Len(t, merit.Deadlines, 2)
	assert.Equal(t, domain.DeadlineStartNextBusinessDay, merit.DeadlineStart)

	assert.Equal(t, domain.PredicateExpr, p.Rules[1].Predicate.Kind)
	assert.Equal(t, domain.DeadlineStartNone, p.Rules[1].DeadlineStart)

	fb := p.Fallback()
	require.NotNil(t, fb)
	assert.True(t, fb.ExplicitDeadline)

	// The parsed policy drives the rule engine
	res, err := rules.Classify(domain.NewTextDocument("Intimação. O juiz julgo procedente o pedido.", "a"), p)
	require.NoError(t, err)
	assert.Equal(t, "Sentença", res.Classification)
}

func TestParsePolicy_YAMLExtendsBuiltin(t *testing.T) {
	p, err := ParsePolicy([]byte(yamlPolicy), PolicyFormatYAML)
	require.NoError(t, err)

	assert.Equal(t, "risco-escritorio", p.Name)
	assert.Equal(t, domain.VariantRisk, p.Variant)
	assert.True(t, p.HTMLEmail)
	assert.Equal(t, rules.Risk().Excluded, p.Excluded)
	require.Len(t, p.Rules, 2)
	require.NotNil(t, p.Rules[0].Risk)
	assert.Equal(t, 20, p.Rules[0].Risk.FileRisk)
}

func TestParsePolicy_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format PolicyFormat
	}{
		{"malformed toml", "name = [", PolicyFormatTOML},
		{"unknown field", "name = \"x\"\ncolour = \"red\"", PolicyFormatTOML},
		{"malformed yaml", "name: [", PolicyFormatYAML},
		{"no rules", "name: x", PolicyFormatYAML},
		{"unknown builtin", "extends: nope", PolicyFormatYAML},
		{"unknown tier", "name: x\nrules:\n  - {id: a, tier: whatever}", PolicyFormatYAML},
		{"no fallback", `
name: x
rules:
  - id: a
    tier: merit
    priority: 1
    classification: A
    action: B
    predicate: {kind: phrases, phrases: [julgo]}
`, PolicyFormatYAML},
		{"bad expr", `
name: x
rules:
  - id: a
    tier: merit
    priority: 1
    classification: A
    action: B
    predicate: {kind: expr, expr: "words >"}
  - {id: b, tier: fallback, priority: 2, classification: C, action: D, predicate: {kind: always}}
`, PolicyFormatYAML},
		{"unknown format", "name: x", PolicyFormat("json")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePolicy([]byte(tt.data), tt.format)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidPolicy)
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    PolicyFormat
		wantErr bool
	}{
		{"policy.toml", PolicyFormatTOML, false},
		{"policy.yaml", PolicyFormatYAML, false},
		{"/etc/triagem/POLICY.YML", PolicyFormatYAML, false},
		{"policy.json", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidPolicy)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadPolicyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.toml")
	require.NoError(t, os.WriteFile(path, []byte(tomlPolicy), 0600))

	p, err := LoadPolicyFile(path)
	require.NoError(t, err)
	assert.Equal(t, "escritorio", p.Name)

	_, err = LoadPolicyFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
