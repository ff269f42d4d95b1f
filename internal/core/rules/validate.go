package rules

import (
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/triagem/internal/core/domain"
)

// Validate checks the invariants of a policy:
//   - rule IDs and priorities are unique
//   - exactly one fallback rule exists, with the lowest priority
//   - the fallback carries a default deadline unless it derives one from the procedural code
//   - predicates, deadlines and risk blocks are well formed
func Validate(p *domain.Policy) error {
	if p == nil {
		return fmt.Errorf("%w: nil policy", domain.ErrInvalidPolicy)
	}
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{domain.ErrInvalidPolicy}, args...)...))
	}

	if p.Name == "" {
		fail("policy has no name")
	}
	if !p.Variant.IsValid() {
		fail("unknown variant %q", p.Variant)
	}
	if len(p.Rules) == 0 {
		fail("policy %q has no rules", p.Name)
		return errors.Join(errs...)
	}

	minWords, maxWords := p.WordBounds()
	if minWords > maxWords {
		fail("word bounds [%d, %d] are inverted", minWords, maxWords)
	}

	ids := make(map[string]bool)
	priorities := make(map[int]string)
	classes := make(map[string]bool)
	var fallbacks []domain.Rule
	maxPriority := p.Rules[0].Priority
	for _, r := range p.Rules {
		if r.ID == "" {
			fail("rule %q has no id", r.Classification)
		} else if ids[r.ID] {
			fail("duplicate rule id %q", r.ID)
		}
		ids[r.ID] = true

		if other, ok := priorities[r.Priority]; ok {
			fail("rules %q and %q share priority %d", other, r.ID, r.Priority)
		}
		priorities[r.Priority] = r.ID
		if r.Priority > maxPriority {
			maxPriority = r.Priority
		}

		if r.Classification == "" || r.Action == "" {
			fail("rule %q needs a classification and an action", r.ID)
		}
		if classes[Fold(r.Classification)] {
			fail("classification %q is assigned by more than one rule", r.Classification)
		}
		classes[Fold(r.Classification)] = true

		if err := validatePredicate(r); err != nil {
			errs = append(errs, err)
		}
		for _, d := range r.Deadlines {
			if d.Days <= 0 || d.Name == "" {
				fail("rule %q has an invalid deadline %+v", r.ID, d)
			}
		}
		if p.Variant == domain.VariantRisk && r.HasAppealPath() {
			if r.Risk == nil {
				fail("rule %q has an appeal path but no risk assessment", r.ID)
			} else if !validPercent(r.Risk.FileRisk) || !validPercent(r.Risk.SkipRisk) {
				fail("rule %q has risk percentages outside [0, 100]", r.ID)
			}
		}
		if r.IsFallback() {
			fallbacks = append(fallbacks, r)
		}
	}

	switch len(fallbacks) {
	case 0:
		fail("policy %q has no fallback rule", p.Name)
	case 1:
		fb := fallbacks[0]
		if fb.Priority != maxPriority {
			fail("fallback rule %q must have the lowest priority", fb.ID)
		}
		if p.FallbackDeadlineDays <= 0 && !fb.DeriveFromProceduralCode {
			fail("fallback rule %q needs a default deadline or an explicit derive-from-procedural-code instruction", fb.ID)
		}
	default:
		fail("policy %q has %d fallback rules", p.Name, len(fallbacks))
	}

	for _, h := range p.Calendar.ExtraHolidays {
		if _, err := time.Parse(dateLayout, h); err != nil {
			fail("extra holiday %q is not YYYY-MM-DD", h)
		}
	}

	return errors.Join(errs...)
}

func validatePredicate(r domain.Rule) error {
	p := r.Predicate
	switch p.Kind {
	case domain.PredicateAlways:
		return nil
	case domain.PredicatePhrases:
		if len(p.Phrases) == 0 {
			return fmt.Errorf("%w: rule %q has no trigger phrases", domain.ErrInvalidPolicy, r.ID)
		}
		for _, ph := range p.Phrases {
			if Fold(ph) == "" {
				return fmt.Errorf("%w: rule %q has a blank trigger phrase", domain.ErrInvalidPolicy, r.ID)
			}
		}
		return nil
	case domain.PredicateStructural:
		if _, ok := structuralMarkers[p.Marker]; !ok {
			return fmt.Errorf("%w: rule %q has unknown structural marker %q", domain.ErrInvalidPolicy, r.ID, p.Marker)
		}
		return nil
	case domain.PredicateExpr:
		if err := CompileExpr(p.Expr); err != nil {
			return fmt.Errorf("%w: rule %q: %w", domain.ErrInvalidPolicy, r.ID, err)
		}
		return nil
	default:
		return fmt.Errorf("%w: rule %q has unknown predicate kind %q", domain.ErrInvalidPolicy, r.ID, p.Kind)
	}
}

func validPercent(v int) bool {
	return v >= 0 && v <= 100
}
