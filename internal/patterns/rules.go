// Package patterns implements the confidence-tiered pattern extractor.
// Rules live in an embedded YAML table (rules.yaml): each field has ordered
// HIGH/MEDIUM/LOW pattern tiers plus an EXCLUDE family matched first.
// Extraction follows a strict fallback chain, not a union: a tier is only
// consulted when every higher tier produced nothing.
package patterns

import (
	_ "embed"
	"regexp"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/bazarlab/adextract/internal/model"
)

//go:embed rules.yaml
var rulesYAML []byte

// ExcludeMode selects how an exclusion match disqualifies candidates.
type ExcludeMode string

const (
	// ExcludeByPosition blacklists the start offset of the excluded span.
	ExcludeByPosition ExcludeMode = "position"
	// ExcludeByValue blacklists the matched string wherever it reappears.
	ExcludeByValue ExcludeMode = "value"
)

// rule is one compiled pattern. Capture group 1 is the candidate span
// (whole match when absent), group 2 the numeric part. notAfter, when set,
// disqualifies a match if it matches the text right after the span.
type rule struct {
	id       string
	re       *regexp.Regexp
	notAfter *regexp.Regexp
}

type fieldRules struct {
	excludeMode ExcludeMode
	exclude     []rule
	tiers       map[model.Tier][]rule
}

type ruleSpec struct {
	ID       string `yaml:"id"`
	Pattern  string `yaml:"pattern"`
	NotAfter string `yaml:"not_after"`
}

type fieldSpec struct {
	ExcludeMode string     `yaml:"exclude_mode"`
	Exclude     []ruleSpec `yaml:"exclude"`
	High        []ruleSpec `yaml:"high"`
	Medium      []ruleSpec `yaml:"medium"`
	Low         []ruleSpec `yaml:"low"`
}

func compileRules(specs []ruleSpec) ([]rule, error) {
	rules := make([]rule, 0, len(specs))
	for _, s := range specs {
		re, err := regexp.Compile(s.Pattern)
		if err != nil {
			return nil, eris.Wrapf(err, "patterns: compile rule %s", s.ID)
		}
		r := rule{id: s.ID, re: re}
		if s.NotAfter != "" {
			na, err := regexp.Compile(s.NotAfter)
			if err != nil {
				return nil, eris.Wrapf(err, "patterns: compile not_after of rule %s", s.ID)
			}
			r.notAfter = na
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func loadRules(raw []byte) (map[model.Field]fieldRules, error) {
	var doc map[string]fieldSpec
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, eris.Wrap(err, "patterns: parse rules.yaml")
	}

	out := make(map[model.Field]fieldRules, len(doc))
	for name, spec := range doc {
		field := model.Field(name)
		fr := fieldRules{
			excludeMode: ExcludeMode(spec.ExcludeMode),
			tiers:       make(map[model.Tier][]rule, 3),
		}
		if fr.excludeMode == "" {
			fr.excludeMode = ExcludeByPosition
		}

		var err error
		if fr.exclude, err = compileRules(spec.Exclude); err != nil {
			return nil, err
		}
		if fr.tiers[model.TierHigh], err = compileRules(spec.High); err != nil {
			return nil, err
		}
		if fr.tiers[model.TierMedium], err = compileRules(spec.Medium); err != nil {
			return nil, err
		}
		if fr.tiers[model.TierLow], err = compileRules(spec.Low); err != nil {
			return nil, err
		}
		out[field] = fr
	}

	for _, f := range model.AllFields() {
		if _, ok := out[f]; !ok {
			return nil, eris.Errorf("patterns: rules.yaml has no rules for field %s", f)
		}
	}
	return out, nil
}
