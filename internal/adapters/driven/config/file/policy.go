package file

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/triagem/internal/core/domain"
	"github.com/custodia-labs/triagem/internal/core/rules"
)

// PolicyFormat is the encoding of a policy file.
type PolicyFormat string

// Supported policy file formats.
const (
	PolicyFormatTOML PolicyFormat = "toml"
	PolicyFormatYAML PolicyFormat = "yaml"
)

// FormatFromPath infers the policy format from the file extension.
func FormatFromPath(path string) (PolicyFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return PolicyFormatTOML, nil
	case ".yaml", ".yml":
		return PolicyFormatYAML, nil
	default:
		return "", fmt.Errorf("%w: unsupported policy file extension %q", domain.ErrInvalidPolicy, filepath.Ext(path))
	}
}

// policyFile is the on-disk shape of a policy.
type policyFile struct {
	Name                 string        `toml:"name" yaml:"name"`
	Extends              string        `toml:"extends" yaml:"extends"`
	Description          string        `toml:"description" yaml:"description"`
	Preamble             string        `toml:"preamble" yaml:"preamble"`
	Variant              string        `toml:"variant" yaml:"variant"`
	HTMLEmail            *bool         `toml:"html_email" yaml:"html_email"`
	Excluded             []string      `toml:"excluded" yaml:"excluded"`
	FallbackDeadlineDays *int          `toml:"fallback_deadline_days" yaml:"fallback_deadline_days"`
	Format               *formatFile   `toml:"format" yaml:"format"`
	Guard                *guardFile    `toml:"guard" yaml:"guard"`
	Calendar             *calendarFile `toml:"calendar" yaml:"calendar"`
	Rules                []ruleFile    `toml:"rules" yaml:"rules"`
}

type formatFile struct {
	MinWords int `toml:"min_words" yaml:"min_words"`
	MaxWords int `toml:"max_words" yaml:"max_words"`
}

type guardFile struct {
	Enabled bool     `toml:"enabled" yaml:"enabled"`
	Markers []string `toml:"markers" yaml:"markers"`
}

type calendarFile struct {
	ExtraHolidays []string `toml:"extra_holidays" yaml:"extra_holidays"`
	Recess        bool     `toml:"recess" yaml:"recess"`
}

type ruleFile struct {
	ID                       string         `toml:"id" yaml:"id"`
	Tier                     string         `toml:"tier" yaml:"tier"`
	Priority                 int            `toml:"priority" yaml:"priority"`
	Classification           string         `toml:"classification" yaml:"classification"`
	Action                   string         `toml:"action" yaml:"action"`
	DeadlineStart            string         `toml:"deadline_start" yaml:"deadline_start"`
	ExplicitDeadline         bool           `toml:"explicit_deadline" yaml:"explicit_deadline"`
	DeriveFromProceduralCode bool           `toml:"derive_from_procedural_code" yaml:"derive_from_procedural_code"`
	Predicate                predicateFile  `toml:"predicate" yaml:"predicate"`
	Deadlines                []deadlineFile `toml:"deadlines" yaml:"deadlines"`
	Risk                     *riskFile      `toml:"risk" yaml:"risk"`
}

type predicateFile struct {
	Kind    string   `toml:"kind" yaml:"kind"`
	Phrases []string `toml:"phrases" yaml:"phrases"`
	Marker  string   `toml:"marker" yaml:"marker"`
	Expr    string   `toml:"expr" yaml:"expr"`
}

type deadlineFile struct {
	Name string `toml:"name" yaml:"name"`
	Days int    `toml:"days" yaml:"days"`
}

type riskFile struct {
	FileRisk int `toml:"file_risk" yaml:"file_risk"`
	SkipRisk int `toml:"skip_risk" yaml:"skip_risk"`
}

// LoadPolicyFile reads and validates a policy file.
func LoadPolicyFile(path string) (*domain.Policy, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	return ParsePolicy(data, format)
}

// ParsePolicy decodes and validates a policy.
// A policy that extends a built-in starts from it; listed rules then replace
// the built-in rule set.
func ParsePolicy(data []byte, format PolicyFormat) (*domain.Policy, error) {
	var pf policyFile
	switch format {
	case PolicyFormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&pf); err != nil {
			return nil, fmt.Errorf("%w: decode toml: %w", domain.ErrInvalidPolicy, err)
		}
	case PolicyFormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&pf); err != nil {
			return nil, fmt.Errorf("%w: decode yaml: %w", domain.ErrInvalidPolicy, err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown format %q", domain.ErrInvalidPolicy, format)
	}

	policy, err := pf.toDomain()
	if err != nil {
		return nil, err
	}
	if err := rules.Validate(policy); err != nil {
		return nil, err
	}
	return policy, nil
}

func (pf *policyFile) toDomain() (*domain.Policy, error) {
	p := &domain.Policy{
		Variant:              domain.VariantSimple,
		FallbackDeadlineDays: domain.DefaultFallbackDeadlineDays,
	}
	if pf.Extends != "" {
		base, err := rules.Builtin(pf.Extends)
		if err != nil {
			return nil, fmt.Errorf("%w: extends: %w", domain.ErrInvalidPolicy, err)
		}
		p = base
	}

	if pf.Name != "" {
		p.Name = pf.Name
	}
	if pf.Description != "" {
		p.Description = pf.Description
	}
	if pf.Preamble != "" {
		p.Preamble = strings.TrimSpace(pf.Preamble)
	}
	if pf.Variant != "" {
		p.Variant = domain.Variant(pf.Variant)
	}
	if pf.HTMLEmail != nil {
		p.HTMLEmail = *pf.HTMLEmail
	}
	if pf.Excluded != nil {
		p.Excluded = pf.Excluded
	}
	if pf.FallbackDeadlineDays != nil {
		p.FallbackDeadlineDays = *pf.FallbackDeadlineDays
	}
	if pf.Format != nil {
		p.Format = domain.OutputFormat{MinWords: pf.Format.MinWords, MaxWords: pf.Format.MaxWords}
	}
	if pf.Guard != nil {
		p.Guard = domain.GuardSpec{Enabled: pf.Guard.Enabled, Markers: pf.Guard.Markers}
		if p.Guard.Enabled && len(p.Guard.Markers) == 0 {
			p.Guard.Markers = append([]string(nil), rules.DefaultGuardMarkers...)
		}
	}
	if pf.Calendar != nil {
		p.Calendar = domain.CalendarSpec{ExtraHolidays: pf.Calendar.ExtraHolidays, Recess: pf.Calendar.Recess}
	}

	if len(pf.Rules) > 0 {
		p.Rules = make([]domain.Rule, 0, len(pf.Rules))
		for _, rf := range pf.Rules {
			r, err := rf.toDomain()
			if err != nil {
				return nil, err
			}
			p.Rules = append(p.Rules, r)
		}
	}
	return p, nil
}

func (rf ruleFile) toDomain() (domain.Rule, error) {
	tier, ok := domain.ParseTier(rf.Tier)
	if !ok {
		return domain.Rule{}, fmt.Errorf("%w: rule %q has unknown tier %q", domain.ErrInvalidPolicy, rf.ID, rf.Tier)
	}

	start := domain.DeadlineStart(rf.DeadlineStart)
	if start == "" {
		start = domain.DeadlineStartNextBusinessDay
		if len(rf.Deadlines) == 0 && !rf.ExplicitDeadline {
			start = domain.DeadlineStartNone
		}
	}

	r := domain.Rule{
		ID:             rf.ID,
		Tier:           tier,
		Priority:       rf.Priority,
		Classification: rf.Classification,
		Action:         strings.TrimSpace(rf.Action),
		DeadlineStart:  start,
		Predicate: domain.TextPredicate{
			Kind:    domain.PredicateKind(rf.Predicate.Kind),
			Phrases: rf.Predicate.Phrases,
			Marker:  domain.StructuralMarker(rf.Predicate.Marker),
			Expr:    rf.Predicate.Expr,
		},
		ExplicitDeadline:         rf.ExplicitDeadline,
		DeriveFromProceduralCode: rf.DeriveFromProceduralCode,
	}
	for _, d := range rf.Deadlines {
		r.Deadlines = append(r.Deadlines, domain.DeadlineRule{Name: d.Name, Days: d.Days})
	}
	if rf.Risk != nil {
		r.Risk = &domain.RiskAssessment{FileRisk: rf.Risk.FileRisk, SkipRisk: rf.Risk.SkipRisk}
	}
	return r, nil
}
