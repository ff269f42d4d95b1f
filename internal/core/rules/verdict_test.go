package rules

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/triagem/internal/core/domain"
)

func TestRenderVerdict(t *testing.T) {
	res := &domain.ClassificationResult{
		Classification:  ClassMerit,
		SuggestedAction: actionMerit,
	}

	got := RenderVerdict(res, Simple())
	want := "- Classificação: Sentença de Mérito (Primeiro Grau)\n" +
		"- Ação sugerida: Decisão cabível: Embargos de Declaração em 5 dias úteis OU Apelação em 15 dias úteis."
	assert.Equal(t, want, got)
	assert.Equal(t, 23, WordCount(got))
}

func TestParseVerdict_AcceptsLocalVerdicts(t *testing.T) {
	texts := []string{
		"o juiz julgo parcialmente procedente o pedido",
		"fica a parte intimada para manifestação sobre o laudo",
		"publicação de mero expediente",
		"indefiro a gratuidade; intime-se",
		"Lista de compras",
		"Publicação: prazo de 10 (dez) dias para emenda",
	}

	for _, policy := range []*domain.Policy{Simple(), Risk(), Collegiate()} {
		for _, text := range texts {
			t.Run(policy.Name+"/"+text, func(t *testing.T) {
				local, err := Classify(doc(text), policy)
				require.NoError(t, err)

				parsed, err := ParseVerdict(local.Verdict, policy)
				require.NoError(t, err)

				assert.Equal(t, local.Classification, parsed.Classification)
				assert.Equal(t, local.SuggestedAction, parsed.SuggestedAction)
				assert.Equal(t, local.DeadlineDays, parsed.DeadlineDays)
				assert.Equal(t, local.Deadlines, parsed.Deadlines)
				assert.Equal(t, local.Risk, parsed.Risk)
				assert.Equal(t, local.NotAnIntimation, parsed.NotAnIntimation)
				assert.Equal(t, local.WordCount, parsed.WordCount)
			})
		}
	}
}

func TestParseVerdict_OriginalFormat(t *testing.T) {
	raw := "**- Classificação da Decisão:** Sentença de Mérito (Primeiro Grau)\n\n" +
		"**- Ação/Recurso Sugerido:** Decisão cabível: Embargos de Declaração em 5 dias úteis OU Apelação em 15 dias úteis.\n"

	res, err := ParseVerdict(raw, Simple())
	require.NoError(t, err)

	assert.Equal(t, ClassMerit, res.Classification)
	assert.Equal(t, actionMerit, res.SuggestedAction)
	assert.Equal(t, domain.IntPtr(5), res.DeadlineDays)
	require.Len(t, res.Deadlines, 2)
	assert.Equal(t, "Apelação", res.Deadlines[1].Name)
}

func TestParseVerdict_Violations(t *testing.T) {
	tests := []struct {
		name   string
		policy *domain.Policy
		raw    string
		detail string
	}{
		{
			name:   "empty",
			policy: Simple(),
			raw:    "   ",
			detail: "got 0 line",
		},
		{
			name:   "single line",
			policy: Simple(),
			raw:    "Sentença de Mérito (Primeiro Grau): Apelação em 15 dias úteis",
			detail: "got 1 line",
		},
		{
			name:   "unknown classification",
			policy: Simple(),
			raw:    "- Classificação: Despacho Saneador\n- Ação sugerida: " + actionInformative,
			detail: "unknown classification",
		},
		{
			name:   "appellate classification under first-instance policy",
			policy: Simple(),
			raw:    "- Classificação: Acórdão\n- Ação sugerida: " + actionCollegiate,
			detail: "unknown classification",
		},
		{
			name:   "excluded court named",
			policy: Simple(),
			raw: "- Classificação: Sentença de Mérito (Primeiro Grau)\n" +
				"- Ação sugerida: Embargos de Declaração em 5 dias úteis OU recurso ao STJ em 15 dias úteis.",
			detail: "outside the scope",
		},
		{
			name:   "too few words",
			policy: Simple(),
			raw:    "- Classificação: Publicação Informativa\n- Ação sugerida: Prazo de 5 dias.",
			detail: "words",
		},
		{
			name:   "too many words",
			policy: Simple(),
			raw: "- Classificação: Publicação Informativa\n- Ação sugerida: " +
				strings.Repeat("aguardar ", 30) + "5 dias úteis.",
			detail: "words",
		},
		{
			name:   "extra line",
			policy: Simple(),
			raw: "- Classificação: Sentença de Mérito (Primeiro Grau)\n- Ação sugerida: " + actionMerit +
				"\n- Observação: nenhuma",
			detail: "expected 2 lines",
		},
		{
			name:   "missing appeal deadline",
			policy: Simple(),
			raw: "- Classificação: Sentença de Mérito (Primeiro Grau)\n" +
				"- Ação sugerida: Decisão cabível: Embargos de Declaração em 5 dias úteis OU Apelação no prazo legal.",
			detail: "15-day deadline",
		},
		{
			name:   "fallback without deadline",
			policy: Simple(),
			raw:    "- Classificação: Publicação Informativa\n- Ação sugerida: " + actionInformative,
			detail: "states no deadline",
		},
		{
			name:   "risk block missing",
			policy: Risk(),
			raw:    "- Classificação: Sentença de Mérito (Primeiro Grau)\n- Ação sugerida: " + actionMerit,
			detail: "expected 3 lines",
		},
		{
			name:   "risk block without percentages",
			policy: Risk(),
			raw: "- Classificação: Sentença de Mérito (Primeiro Grau)\n- Ação sugerida: " + actionMerit +
				"\n- Avaliação de risco: baixo",
			detail: "two percentages",
		},
		{
			name:   "risk percentage out of range",
			policy: Risk(),
			raw: "- Classificação: Sentença de Mérito (Primeiro Grau)\n- Ação sugerida: " + actionMerit +
				"\n- Avaliação de risco: Interpor recurso: 130% de risco; Não interpor: 20% de risco.",
			detail: "within [0, 100]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseVerdict(tt.raw, tt.policy)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrFormatViolation)
			assert.Contains(t, err.Error(), tt.detail)
		})
	}
}

func TestParseVerdict_RiskVariantSkipsWordBound(t *testing.T) {
	raw := "- Classificação: Sentença de Mérito (Primeiro Grau)\n" +
		"- Ação sugerida: " + actionMerit + " " + strings.Repeat("Avaliar custas. ", 10) + "\n" +
		"- Avaliação de risco: Interpor recurso: 25% de risco; Não interpor: 75% de risco."

	res, err := ParseVerdict(raw, Risk())
	require.NoError(t, err)
	assert.Greater(t, res.WordCount, domain.DefaultMaxWords)
	require.NotNil(t, res.Risk)
	assert.Equal(t, 25, res.Risk.FileRisk)
	assert.Equal(t, 75, res.Risk.SkipRisk)
}
