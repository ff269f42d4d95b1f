package domain

import "sort"

// Tier is one priority level of the rule set.
// Lower tiers are evaluated first; the first matching rule wins.
type Tier int

// Built-in tiers.
const (
	// TierGuard rejects text without any notification structure.
	TierGuard Tier = iota

	// TierMerit covers merit judgments and interlocutory rulings.
	TierMerit

	// TierOrigin covers monocratic and collegiate decisions.
	TierOrigin

	// TierManifestation covers intimations asking for a party submission.
	TierManifestation

	// TierFallback covers everything else.
	TierFallback
)

// String returns the tier name.
func (t Tier) String() string {
	switch t {
	case TierGuard:
		return "guard"
	case TierMerit:
		return "merit"
	case TierOrigin:
		return "origin"
	case TierManifestation:
		return "manifestation"
	case TierFallback:
		return "fallback"
	default:
		return unknownDescription
	}
}

// ParseTier converts a tier name back to a Tier.
func ParseTier(s string) (Tier, bool) {
	for t := TierGuard; t <= TierFallback; t++ {
		if t.String() == s {
			return t, true
		}
	}
	return 0, false
}

// DeadlineStart defines where deadline counting begins.
type DeadlineStart string

// Deadline start modes.
const (
	// DeadlineStartNextBusinessDay counts from the first business day after publication.
	DeadlineStartNextBusinessDay DeadlineStart = "next_business_day"

	// DeadlineStartNone means the rule carries no counted deadline.
	DeadlineStartNone DeadlineStart = "none"
)

// PredicateKind identifies how a TextPredicate is evaluated.
type PredicateKind string

// Predicate kinds.
const (
	// PredicatePhrases matches when the text contains any of the phrases.
	PredicatePhrases PredicateKind = "phrases"

	// PredicateStructural matches on markers of the deciding body.
	PredicateStructural PredicateKind = "structural"

	// PredicateAlways always matches. Reserved for the fallback rule.
	PredicateAlways PredicateKind = "always"

	// PredicateExpr matches when a boolean expression over the text holds.
	PredicateExpr PredicateKind = "expr"
)

// StructuralMarker names the deciding body a structural predicate looks for.
type StructuralMarker string

// Structural markers.
const (
	// MarkerMonocratic is a decision issued by a single reporting judge.
	MarkerMonocratic StructuralMarker = "monocratic"

	// MarkerCollegiate is a decision issued by a panel.
	MarkerCollegiate StructuralMarker = "collegiate"
)

// TextPredicate is the trigger condition of a rule.
// Matching is case and diacritic insensitive.
type TextPredicate struct {
	// Kind selects the evaluation strategy.
	Kind PredicateKind

	// Phrases are the trigger phrases for PredicatePhrases.
	Phrases []string

	// Marker is the deciding body for PredicateStructural.
	Marker StructuralMarker

	// Expr is the boolean expression for PredicateExpr.
	// Available variables: text (folded), words (int), source (string).
	Expr string
}

// Always returns the always-true predicate.
func Always() TextPredicate {
	return TextPredicate{Kind: PredicateAlways}
}

// Phrases returns a phrase-membership predicate.
func Phrases(phrases ...string) TextPredicate {
	return TextPredicate{Kind: PredicatePhrases, Phrases: phrases}
}

// Structural returns a structural predicate.
func Structural(marker StructuralMarker) TextPredicate {
	return TextPredicate{Kind: PredicateStructural, Marker: marker}
}

// DeadlineRule is one recourse path with its deadline in business days.
type DeadlineRule struct {
	// Name is the recourse (e.g., "Embargos de Declaração").
	Name string

	// Days is the deadline in business days.
	Days int
}

// RiskAssessment holds the percentage risk of filing versus not filing a recourse.
type RiskAssessment struct {
	// FileRisk is the risk of filing the recourse, in percent.
	FileRisk int `json:"file_risk"`

	// SkipRisk is the risk of not filing it, in percent.
	SkipRisk int `json:"skip_risk"`
}

// Rule is one entry of a classification policy.
type Rule struct {
	// ID is a stable identifier for the rule.
	ID string

	// Tier is the priority level this rule belongs to.
	Tier Tier

	// Priority orders rules; lower values are evaluated first.
	Priority int

	// Predicate is the trigger condition.
	Predicate TextPredicate

	// Classification is the category assigned on match.
	Classification string

	// Action is the recommended action text, including deadlines.
	Action string

	// Deadlines lists the recourse paths, shortest first.
	Deadlines []DeadlineRule

	// DeadlineStart defines where deadline counting begins.
	DeadlineStart DeadlineStart

	// Risk is the risk block rendered by the risk variant.
	Risk *RiskAssessment

	// ExplicitDeadline lets the rule take a deadline stated in the document.
	ExplicitDeadline bool

	// DeriveFromProceduralCode allows a fallback without a default deadline.
	DeriveFromProceduralCode bool
}

// IsFallback reports whether the rule is the always-true fallback.
func (r Rule) IsFallback() bool {
	return r.Predicate.Kind == PredicateAlways
}

// HasAppealPath reports whether the rule offers a recourse beyond clarification.
func (r Rule) HasAppealPath() bool {
	return len(r.Deadlines) >= 2
}

// Variant selects the output format of a policy.
type Variant string

// Policy variants.
const (
	// VariantSimple produces two structural lines within a word bound.
	VariantSimple Variant = "simple"

	// VariantRisk adds a risk assessment line when an appeal path exists.
	VariantRisk Variant = "risk"
)

// IsValid returns true if the variant is recognised.
func (v Variant) IsValid() bool {
	return v == VariantSimple || v == VariantRisk
}

// OutputFormat bounds the verdict produced for a policy.
type OutputFormat struct {
	// MinWords is the lower word bound of the simple format.
	MinWords int

	// MaxWords is the upper word bound of the simple format.
	MaxWords int
}

// Default word bounds of the simple format.
const (
	DefaultMinWords = 15
	DefaultMaxWords = 30
)

// GuardSpec configures the non-document guard.
type GuardSpec struct {
	// Enabled turns the guard on.
	Enabled bool

	// Markers are words that indicate notification structure. They match
	// whole words; a trailing "*" matches words starting with the stem.
	Markers []string
}

// CalendarSpec configures business-day counting.
type CalendarSpec struct {
	// ExtraHolidays are additional non-business days (YYYY-MM-DD).
	ExtraHolidays []string

	// Recess suspends counting from 20 December to 20 January.
	Recess bool
}

// DefaultFallbackDeadlineDays is the general statutory default (CPC art. 218 §3).
const DefaultFallbackDeadlineDays = 5

// Policy is a classification policy: ordered rules plus output constraints.
// Variants are policy values, not separate pipelines.
type Policy struct {
	// Name identifies the policy (e.g., "simple").
	Name string

	// Description is a human-readable summary.
	Description string

	// Preamble overrides the stored instruction preamble when set.
	Preamble string

	// Variant selects the output format.
	Variant Variant

	// Rules is the rule set. Evaluation order is by Priority.
	Rules []Rule

	// Guard configures the non-document guard.
	Guard GuardSpec

	// Format bounds the verdict.
	Format OutputFormat

	// Excluded are terms naming courts outside the policy's scope.
	Excluded []string

	// FallbackDeadlineDays is the default deadline of the fallback tier.
	FallbackDeadlineDays int

	// Calendar configures business-day counting.
	Calendar CalendarSpec

	// HTMLEmail renders email notifications with an HTML alternative.
	HTMLEmail bool
}

// OrderedRules returns a copy of the rules sorted by ascending priority.
func (p *Policy) OrderedRules() []Rule {
	rules := make([]Rule, len(p.Rules))
	copy(rules, p.Rules)
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority < rules[j].Priority
	})
	return rules
}

// Fallback returns the fallback rule, or nil if none exists.
func (p *Policy) Fallback() *Rule {
	for i := range p.Rules {
		if p.Rules[i].IsFallback() {
			return &p.Rules[i]
		}
	}
	return nil
}

// RuleFor returns the rule assigning the given classification.
func (p *Policy) RuleFor(classification string) (*Rule, bool) {
	for i := range p.Rules {
		if p.Rules[i].Classification == classification {
			return &p.Rules[i], true
		}
	}
	return nil, false
}

// WordBounds returns the effective word bounds, applying defaults.
func (p *Policy) WordBounds() (minWords, maxWords int) {
	minWords, maxWords = p.Format.MinWords, p.Format.MaxWords
	if minWords <= 0 {
		minWords = DefaultMinWords
	}
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}
	return minWords, maxWords
}
