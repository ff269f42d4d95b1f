package domain

import "time"

// NotAnIntimationClassification is the classification reported by the guard tier.
const NotAnIntimationClassification = "Documento Não Reconhecido como Intimação"

// Deadline is a resolved recourse deadline.
type Deadline struct {
	// Name is the recourse (e.g., "Apelação").
	Name string `json:"name"`

	// Days is the deadline in business days.
	Days int `json:"days"`

	// Start is the first counted business day, if a publication date was given.
	Start *time.Time `json:"start,omitempty"`

	// DueDate is the last business day of the deadline, if a publication date was given.
	DueDate *time.Time `json:"due_date,omitempty"`
}

// ClassificationResult is the verdict derived for one document.
// It is produced by classification and consumed once by dispatch.
type ClassificationResult struct {
	// Classification is the procedural category.
	Classification string `json:"classification"`

	// SuggestedAction is the recommended action, including deadlines.
	SuggestedAction string `json:"suggested_action"`

	// DeadlineDays is the shortest deadline in business days, or nil if none.
	DeadlineDays *int `json:"deadline_days"`

	// Deadlines lists every recourse path with its deadline.
	Deadlines []Deadline `json:"deadlines,omitempty"`

	// WordCount is the number of words in the rendered verdict.
	WordCount int `json:"word_count"`

	// Verdict is the rendered verdict text.
	Verdict string `json:"verdict"`

	// Tier is the tier of the matching rule.
	Tier Tier `json:"-"`

	// RuleID identifies the matching rule.
	RuleID string `json:"rule_id,omitempty"`

	// Risk is the risk assessment, set only by the risk variant.
	Risk *RiskAssessment `json:"risk,omitempty"`

	// NotAnIntimation marks a document without notification structure.
	// It is an outcome, not an error.
	NotAnIntimation bool `json:"not_an_intimation"`
}

// HasDeadline reports whether the result carries a counted deadline.
func (r *ClassificationResult) HasDeadline() bool {
	return r != nil && r.DeadlineDays != nil
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
