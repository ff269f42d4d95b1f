package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/custodia-labs/triagem/internal/core/domain"
)

// Verdict line labels.
const (
	labelClassification = "Classificação"
	labelAction         = "Ação sugerida"
	labelRisk           = "Avaliação de risco"
)

var (
	daysPattern    = regexp.MustCompile(`(\d{1,3})\s*(?:\([a-z\s-]+\)\s*)?dias`)
	percentPattern = regexp.MustCompile(`(\d{1,3})\s*%`)
)

// RenderVerdict renders the canonical verdict text of a result.
//
//	- Classificação: <classification>
//	- Ação sugerida: <action>
//	- Avaliação de risco: ... (risk variant with an appeal path only)
func RenderVerdict(res *domain.ClassificationResult, policy *domain.Policy) string {
	lines := []string{
		fmt.Sprintf("- %s: %s", labelClassification, res.Classification),
		fmt.Sprintf("- %s: %s", labelAction, res.SuggestedAction),
	}
	if res.Risk != nil && policy != nil && policy.Variant == domain.VariantRisk {
		lines = append(lines, fmt.Sprintf("- %s: %s", labelRisk, riskText(res.Risk)))
	}
	return strings.Join(lines, "\n")
}

func riskText(r *domain.RiskAssessment) string {
	return fmt.Sprintf("Interpor recurso: %d%% de risco; Não interpor: %d%% de risco.", r.FileRisk, r.SkipRisk)
}

// ParseVerdict validates raw oracle output against the policy's output contract
// and returns the structured result. Any breach is a domain.ErrFormatViolation:
// the oracle is trusted for its classification, never for its format.
func ParseVerdict(raw string, policy *domain.Policy) (*domain.ClassificationResult, error) {
	if policy == nil {
		return nil, fmt.Errorf("%w: nil policy", domain.ErrInvalidPolicy)
	}
	lines := verdictLines(raw)
	if len(lines) < 2 {
		return nil, violation("expected classification and action lines, got %d line(s)", len(lines))
	}

	class := stripLabel(lines[0], "classificacao")
	rule, guard := matchClassification(class, policy)
	if rule == nil && !guard {
		return nil, violation("unknown classification %q", class)
	}

	expected := 2
	if rule != nil && policy.Variant == domain.VariantRisk && rule.HasAppealPath() {
		expected = 3
	}
	if len(lines) != expected {
		return nil, violation("expected %d lines, got %d", expected, len(lines))
	}

	verdict := strings.Join(lines, "\n")
	folded := Fold(verdict)
	for _, term := range policy.Excluded {
		if containsTerm(folded, term) {
			return nil, violation("verdict names %q, outside the scope of policy %q", term, policy.Name)
		}
	}

	wc := WordCount(verdict)
	if policy.Variant == domain.VariantSimple {
		minWords, maxWords := policy.WordBounds()
		if wc < minWords || wc > maxWords {
			return nil, violation("verdict has %d words, want between %d and %d", wc, minWords, maxWords)
		}
	}

	res := &domain.ClassificationResult{
		SuggestedAction: stripLabel(lines[1], "acao"),
		WordCount:       wc,
		Verdict:         verdict,
	}
	if guard {
		res.Classification = domain.NotAnIntimationClassification
		res.Tier = domain.TierGuard
		res.RuleID = "guard"
		res.NotAnIntimation = true
		return res, nil
	}
	res.Classification = rule.Classification
	res.Tier = rule.Tier
	res.RuleID = rule.ID

	if err := parseDeadlines(res, *rule, policy); err != nil {
		return nil, err
	}
	if expected == 3 {
		risk, err := parseRisk(lines[2])
		if err != nil {
			return nil, err
		}
		res.Risk = risk
	}
	return res, nil
}

// parseDeadlines checks that the action states the rule's deadlines.
// The fallback rule may state any deadline; it is taken from the verdict.
func parseDeadlines(res *domain.ClassificationResult, rule domain.Rule, policy *domain.Policy) error {
	if !rule.IsFallback() {
		stated := statedDays(Fold(res.SuggestedAction))
		for _, d := range rule.Deadlines {
			if !stated[d.Days] {
				return violation("action omits the %d-day deadline for %s", d.Days, d.Name)
			}
		}
		setDeadlines(res, rule.Deadlines)
		return nil
	}

	foldedAction := Fold(res.SuggestedAction)
	days := firstStatedDays(foldedAction)
	if days == 0 {
		if policy.FallbackDeadlineDays > 0 && !rule.DeriveFromProceduralCode {
			return violation("fallback action states no deadline")
		}
		return nil
	}
	name := deadlineExplicit
	if days == policy.FallbackDeadlineDays && !strings.Contains(foldedAction, Fold(deadlineExplicit)) {
		name = deadlineGeneral
	}
	setDeadlines(res, []domain.DeadlineRule{{Name: name, Days: days}})
	return nil
}

func parseRisk(line string) (*domain.RiskAssessment, error) {
	m := percentPattern.FindAllStringSubmatch(line, -1)
	if len(m) != 2 {
		return nil, violation("risk line needs two percentages, got %d", len(m))
	}
	file, _ := strconv.Atoi(m[0][1])
	skip, _ := strconv.Atoi(m[1][1])
	if !validPercent(file) || !validPercent(skip) {
		return nil, violation("risk percentages must be within [0, 100]")
	}
	return &domain.RiskAssessment{FileRisk: file, SkipRisk: skip}, nil
}

func statedDays(folded string) map[int]bool {
	out := make(map[int]bool)
	for _, m := range daysPattern.FindAllStringSubmatch(folded, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil {
			out[n] = true
		}
	}
	return out
}

func firstStatedDays(folded string) int {
	m := daysPattern.FindStringSubmatch(folded)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// verdictLines splits raw output into non-empty lines without bullets or emphasis.
func verdictLines(raw string) []string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.ReplaceAll(line, "**", "")
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*•")
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// stripLabel drops a leading "Label:" when the folded line starts with prefix.
func stripLabel(line, prefix string) string {
	if strings.HasPrefix(Fold(line), prefix) {
		if i := strings.Index(line, ":"); i >= 0 {
			return strings.TrimSpace(line[i+1:])
		}
	}
	return strings.TrimSpace(line)
}

// matchClassification finds the rule assigning class.
// The second return value reports the guard classification.
func matchClassification(class string, policy *domain.Policy) (*domain.Rule, bool) {
	folded := strings.Trim(Fold(class), ` .'"`)
	if policy.Guard.Enabled && folded == Fold(domain.NotAnIntimationClassification) {
		return nil, true
	}
	for i := range policy.Rules {
		if Fold(policy.Rules[i].Classification) == folded {
			return &policy.Rules[i], false
		}
	}
	for i := range policy.Rules {
		if strings.HasPrefix(folded, Fold(policy.Rules[i].Classification)) {
			return &policy.Rules[i], false
		}
	}
	return nil, false
}

func violation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrFormatViolation, fmt.Sprintf(format, args...))
}
