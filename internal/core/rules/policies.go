package rules

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/triagem/internal/core/domain"
)

// Built-in policy names.
const (
	PolicySimple     = "simple"
	PolicyRisk       = "risk"
	PolicyCollegiate = "collegiate"
)

// Classifications used by the built-in policies.
const (
	ClassMerit         = "Sentença de Mérito (Primeiro Grau)"
	ClassInterlocutory = "Decisão Interlocutória"
	ClassMonocratic    = "Decisão Monocrática"
	ClassCollegiate    = "Acórdão"
	ClassManifestation = "Diligência/Manifestação Necessária"
	ClassInformative   = "Publicação Informativa"
)

// Actions used by the built-in policies.
const (
	actionMerit         = "Decisão cabível: Embargos de Declaração em 5 dias úteis OU Apelação em 15 dias úteis."
	actionInterlocutory = "Decisão cabível: Embargos de Declaração em 5 dias úteis OU Agravo de Instrumento em 15 dias úteis."
	actionMonocratic    = "Recurso cabível: Embargos de Declaração em 5 dias úteis OU Agravo Interno em 15 dias úteis."
	actionCollegiate    = "Recurso cabível: Embargos de Declaração em 5 dias úteis OU Recurso Especial em 15 dias úteis."
	actionManifestation = "Necessária manifestação processual da parte sobre o teor da publicação. Nenhum recurso imediato cabível."
	actionInformative   = "Aguardar andamento ou cumprimento de rotina. Nenhuma ação recursal ou manifestação urgente requerida."

	// ActionNotAnIntimation is the action reported by the guard tier.
	ActionNotAnIntimation = "Nenhuma ação processual. O documento enviado não apresenta estrutura de intimação judicial."
)

const (
	recourseEmbargos = "Embargos de Declaração"
	preambleFirst    = "Você é um Analista Jurídico de Triagem especializado em decisões de Primeiro Grau. " +
		"Sua única função é analisar o texto completo da intimação judicial fornecida abaixo e classificá-lo, " +
		"indicando a ação processual imediata (recurso ou manifestação) e os prazos estritos. " +
		"O tom deve ser objetivo e técnico."
	preambleCollegiate = "Você é um Analista Jurídico de Triagem especializado em decisões de primeiro e segundo grau. " +
		"Sua única função é analisar o texto completo da intimação judicial fornecida abaixo e classificá-lo, " +
		"indicando a ação processual imediata (recurso ou manifestação) e os prazos estritos. " +
		"O tom deve ser objetivo e técnico."
)

// DefaultPreamble is the instruction preamble of first-instance policies.
const DefaultPreamble = preambleFirst

// firstInstanceExclusions name courts outside first-instance scope.
var firstInstanceExclusions = []string{
	"STJ", "STF", "TST", "Superior Tribunal", "Supremo Tribunal", "Tribunal Superior",
	"Segundo Grau", "Acórdão", "Recurso Especial", "Recurso Extraordinário",
}

var builtins = map[string]func() *domain.Policy{
	PolicySimple:     Simple,
	PolicyRisk:       Risk,
	PolicyCollegiate: Collegiate,
}

// Builtin returns a fresh copy of the named built-in policy.
func Builtin(name string) (*domain.Policy, error) {
	fn, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown policy %q", domain.ErrNotFound, name)
	}
	return fn(), nil
}

// BuiltinNames returns the names of the built-in policies.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func meritRule(priority int) domain.Rule {
	return domain.Rule{
		ID:       "merit",
		Tier:     domain.TierMerit,
		Priority: priority,
		Predicate: domain.Phrases(
			"julgo parcialmente", "procedente", "parcialmente improcedente", "julgo improcedente",
		),
		Classification: ClassMerit,
		Action:         actionMerit,
		Deadlines: []domain.DeadlineRule{
			{Name: recourseEmbargos, Days: 5},
			{Name: "Apelação", Days: 15},
		},
		DeadlineStart: domain.DeadlineStartNextBusinessDay,
	}
}

func interlocutoryRule(priority int) domain.Rule {
	return domain.Rule{
		ID:             "interlocutory",
		Tier:           domain.TierMerit,
		Priority:       priority,
		Predicate:      domain.Phrases("indefiro", "homologo", "rejeito"),
		Classification: ClassInterlocutory,
		Action:         actionInterlocutory,
		Deadlines: []domain.DeadlineRule{
			{Name: recourseEmbargos, Days: 5},
			{Name: "Agravo de Instrumento", Days: 15},
		},
		DeadlineStart: domain.DeadlineStartNextBusinessDay,
	}
}

func manifestationRule(priority int) domain.Rule {
	return domain.Rule{
		ID:             "manifestation",
		Tier:           domain.TierManifestation,
		Priority:       priority,
		Predicate:      domain.Phrases("manif"),
		Classification: ClassManifestation,
		Action:         actionManifestation,
		DeadlineStart:  domain.DeadlineStartNone,
	}
}

func fallbackRule(priority int) domain.Rule {
	return domain.Rule{
		ID:               "informative",
		Tier:             domain.TierFallback,
		Priority:         priority,
		Predicate:        domain.Always(),
		Classification:   ClassInformative,
		Action:           actionInformative,
		DeadlineStart:    domain.DeadlineStartNextBusinessDay,
		ExplicitDeadline: true,
	}
}

func guard() domain.GuardSpec {
	markers := make([]string, len(DefaultGuardMarkers))
	copy(markers, DefaultGuardMarkers)
	return domain.GuardSpec{Enabled: true, Markers: markers}
}

// Simple is the default first-instance policy: two lines, 15-30 words.
// It carries no preamble of its own, so the stored prompt or DefaultPreamble applies.
func Simple() *domain.Policy {
	return &domain.Policy{
		Name:        PolicySimple,
		Description: "Primeiro grau: sentença, interlocutória, manifestação e publicação informativa",
		Variant:     domain.VariantSimple,
		Rules: []domain.Rule{
			meritRule(10),
			interlocutoryRule(20),
			manifestationRule(30),
			fallbackRule(100),
		},
		Guard:                guard(),
		Format:               domain.OutputFormat{MinWords: domain.DefaultMinWords, MaxWords: domain.DefaultMaxWords},
		Excluded:             append([]string(nil), firstInstanceExclusions...),
		FallbackDeadlineDays: domain.DefaultFallbackDeadlineDays,
	}
}

// Risk is the first-instance policy with a risk assessment block and HTML email.
func Risk() *domain.Policy {
	p := Simple()
	p.Name = PolicyRisk
	p.Description = "Primeiro grau com avaliação percentual de risco recursal"
	p.Variant = domain.VariantRisk
	p.HTMLEmail = true
	for i := range p.Rules {
		switch p.Rules[i].ID {
		case "merit":
			p.Rules[i].Risk = &domain.RiskAssessment{FileRisk: 30, SkipRisk: 70}
		case "interlocutory":
			p.Rules[i].Risk = &domain.RiskAssessment{FileRisk: 40, SkipRisk: 60}
		}
	}
	return p
}

// Collegiate extends the simple policy with monocratic and collegiate decisions.
// Appellate scope is allowed.
func Collegiate() *domain.Policy {
	p := Simple()
	p.Name = PolicyCollegiate
	p.Description = "Primeiro e segundo grau: inclui decisões monocráticas e acórdãos"
	p.Preamble = preambleCollegiate
	p.Excluded = []string{"STF", "Supremo Tribunal", "Recurso Extraordinário"}
	p.Rules = []domain.Rule{
		meritRule(10),
		interlocutoryRule(20),
		{
			ID:             "monocratic",
			Tier:           domain.TierOrigin,
			Priority:       30,
			Predicate:      domain.Structural(domain.MarkerMonocratic),
			Classification: ClassMonocratic,
			Action:         actionMonocratic,
			Deadlines: []domain.DeadlineRule{
				{Name: recourseEmbargos, Days: 5},
				{Name: "Agravo Interno", Days: 15},
			},
			DeadlineStart: domain.DeadlineStartNextBusinessDay,
		},
		{
			ID:             "collegiate",
			Tier:           domain.TierOrigin,
			Priority:       40,
			Predicate:      domain.Structural(domain.MarkerCollegiate),
			Classification: ClassCollegiate,
			Action:         actionCollegiate,
			Deadlines: []domain.DeadlineRule{
				{Name: recourseEmbargos, Days: 5},
				{Name: "Recurso Especial", Days: 15},
			},
			DeadlineStart: domain.DeadlineStartNextBusinessDay,
		},
		manifestationRule(50),
		fallbackRule(100),
	}
	return p
}
