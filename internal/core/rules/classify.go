package rules

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/custodia-labs/triagem/internal/core/domain"
)

// Fallback deadline names.
const (
	deadlineGeneral  = "Prazo geral"
	deadlineExplicit = "Prazo indicado"
)

// explicitDeadlinePattern finds a deadline stated in folded document text,
// e.g. "no prazo de 10 (dez) dias" or "prazo comum de 15 dias".
var explicitDeadlinePattern = regexp.MustCompile(`prazo(?:\s+\w+)?\s+de\s+(\d{1,3})\s*(?:\([a-z\s-]+\)\s*)?dias`)

// Classify runs the policy against a document and returns the first matching rule's result.
// It is a pure function of (doc, policy): the same input always yields the same result.
func Classify(doc domain.Document, policy *domain.Policy) (*domain.ClassificationResult, error) {
	if policy == nil {
		return nil, fmt.Errorf("%w: nil policy", domain.ErrInvalidPolicy)
	}
	d := newDocument(doc)

	if policy.Guard.Enabled && !hasStructure(policy, d) {
		return notAnIntimation(policy), nil
	}

	for _, r := range policy.OrderedRules() {
		ok, err := matches(r.Predicate, d)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.ID, err)
		}
		if ok {
			return resultFor(r, policy, d), nil
		}
	}
	return nil, fmt.Errorf("%w: policy %q has no matching fallback", domain.ErrInvalidPolicy, policy.Name)
}

func notAnIntimation(policy *domain.Policy) *domain.ClassificationResult {
	res := &domain.ClassificationResult{
		Classification:  domain.NotAnIntimationClassification,
		SuggestedAction: ActionNotAnIntimation,
		Tier:            domain.TierGuard,
		RuleID:          "guard",
		NotAnIntimation: true,
	}
	res.Verdict = RenderVerdict(res, policy)
	res.WordCount = WordCount(res.Verdict)
	return res
}

func resultFor(r domain.Rule, policy *domain.Policy, d document) *domain.ClassificationResult {
	res := &domain.ClassificationResult{
		Classification:  r.Classification,
		SuggestedAction: r.Action,
		Tier:            r.Tier,
		RuleID:          r.ID,
	}

	deadlines := r.Deadlines
	if r.IsFallback() {
		days, explicit := 0, false
		if r.ExplicitDeadline {
			days, explicit = explicitDeadline(d.folded)
		}
		if !explicit {
			days = policy.FallbackDeadlineDays
		}
		if days > 0 {
			name := deadlineGeneral
			if explicit {
				name = deadlineExplicit
			}
			deadlines = []domain.DeadlineRule{{Name: name, Days: days}}
			res.SuggestedAction = fmt.Sprintf("%s %s de %d dias úteis.", r.Action, name, days)
		}
	}
	setDeadlines(res, deadlines)

	if policy.Variant == domain.VariantRisk && r.HasAppealPath() && r.Risk != nil {
		risk := *r.Risk
		res.Risk = &risk
	}

	res.Verdict = RenderVerdict(res, policy)
	res.WordCount = WordCount(res.Verdict)
	return res
}

func setDeadlines(res *domain.ClassificationResult, rules []domain.DeadlineRule) {
	if len(rules) == 0 {
		return
	}
	res.Deadlines = make([]domain.Deadline, len(rules))
	shortest := rules[0].Days
	for i, dl := range rules {
		res.Deadlines[i] = domain.Deadline{Name: dl.Name, Days: dl.Days}
		if dl.Days < shortest {
			shortest = dl.Days
		}
	}
	res.DeadlineDays = domain.IntPtr(shortest)
}

// explicitDeadline returns the first deadline stated in folded text.
func explicitDeadline(folded string) (int, bool) {
	m := explicitDeadlinePattern.FindStringSubmatch(folded)
	if m == nil {
		return 0, false
	}
	days, err := strconv.Atoi(m[1])
	if err != nil || days <= 0 {
		return 0, false
	}
	return days, true
}
