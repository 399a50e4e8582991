// Package resolve reconciles the two extraction sources into one trusted
// value per field. The resolver is a terminal state machine: every input
// combination, including both sources absent, produces a well-formed
// FieldResolution and nothing in this path ever returns an error for
// malformed text.
package resolve

import (
	"github.com/bazarlab/adextract/internal/model"
	"github.com/bazarlab/adextract/internal/normalize"
)

// Resolution confidence scores by case.
const (
	confAgreed         = 0.95
	confBothAbsent     = 0.0
	confMinorBoth      = 0.90
	confOnlyML         = 0.75
	confOnlyRegex      = 0.80
	confMajorPreferred = 0.70
	confMajorFallback  = 0.60
	confManual         = 1.0
)

// Policy selects which source wins a disagreement, per field. Preferring
// the learned model suits fields where it is empirically more robust to
// rare formats (mileage); preferring the pattern extractor is the
// conservative choice against model hallucination (power).
type Policy struct {
	PreferML map[model.Field]bool
}

// DefaultPolicy returns the production preferences.
func DefaultPolicy() Policy {
	return Policy{PreferML: map[model.Field]bool{
		model.FieldMileage: true,
		model.FieldYear:    false,
		model.FieldPower:   false,
		model.FieldFuel:    true,
	}}
}

// Resolver produces FieldResolutions from raw source values.
type Resolver struct {
	policy Policy
}

// New creates a Resolver with the given disagreement policy.
func New(policy Policy) *Resolver {
	return &Resolver{policy: policy}
}

// Resolve reconciles the two raw values for one field. A non-nil
// manualOverride always wins and bypasses classification.
func (r *Resolver) Resolve(field model.Field, mlRaw, regexRaw, manualOverride *string) model.FieldResolution {
	res := model.FieldResolution{
		Field:           field,
		MLRaw:           mlRaw,
		RegexRaw:        regexRaw,
		NormalizedML:    normalize.Value(mlRaw, field),
		NormalizedRegex: normalize.Value(regexRaw, field),
	}

	if manualOverride != nil {
		res.Disagreement = model.DisagreementNone
		res.ResolvedValue = manualOverride
		res.Method = model.MethodManual
		res.Confidence = confManual
		return res
	}

	res.Disagreement = classify(res.NormalizedML, res.NormalizedRegex)

	switch res.Disagreement {
	case model.DisagreementNone:
		if res.NormalizedML != nil {
			// Both agree; either raw form is equivalent, keep the ML one.
			res.ResolvedValue = mlRaw
			res.Method = model.MethodAutoNormalized
			res.Confidence = confAgreed
		} else {
			res.ResolvedValue = nil
			res.Method = model.MethodAutoNormalized
			res.Confidence = confBothAbsent
		}

	case model.DisagreementMinorFormatting:
		switch {
		case res.NormalizedML != nil && res.NormalizedRegex != nil:
			if r.policy.PreferML[field] {
				res.ResolvedValue = mlRaw
			} else {
				res.ResolvedValue = regexRaw
			}
			res.Method = model.MethodAutoNormalized
			res.Confidence = confMinorBoth
		case res.NormalizedML != nil:
			res.ResolvedValue = mlRaw
			res.Method = model.MethodMLPreferred
			res.Confidence = confOnlyML
		default:
			res.ResolvedValue = regexRaw
			res.Method = model.MethodRegexPreferred
			res.Confidence = confOnlyRegex
		}

	case model.DisagreementMajor:
		preferML := r.policy.PreferML[field]
		switch {
		case preferML && res.NormalizedML != nil:
			res.ResolvedValue = mlRaw
			res.Method = model.MethodMLPreferred
			res.Confidence = confMajorPreferred
		case !preferML && res.NormalizedRegex != nil:
			res.ResolvedValue = regexRaw
			res.Method = model.MethodRegexPreferred
			res.Confidence = confMajorPreferred
		case res.NormalizedML != nil:
			// Preferred source absent, fall back to the other.
			res.ResolvedValue = mlRaw
			res.Method = model.MethodMLPreferred
			res.Confidence = confMajorFallback
		default:
			res.ResolvedValue = regexRaw
			res.Method = model.MethodRegexPreferred
			res.Confidence = confMajorFallback
		}
	}

	return res
}

// classify relates the two normalized values: NONE when equal or both
// absent, MINOR_FORMATTING when the numeric magnitude matches or exactly
// one source is present, MAJOR when the magnitudes differ.
func classify(nml, nregex *string) model.DisagreementType {
	if nml == nil && nregex == nil {
		return model.DisagreementNone
	}
	if nml != nil && nregex != nil {
		if *nml == *nregex {
			return model.DisagreementNone
		}
		mlNum := normalize.Numeric(nml)
		regexNum := normalize.Numeric(nregex)
		if mlNum != nil && regexNum != nil && *mlNum == *regexNum {
			return model.DisagreementMinorFormatting
		}
		return model.DisagreementMajor
	}
	return model.DisagreementMinorFormatting
}
