package resolve

import "github.com/bazarlab/adextract/internal/model"

// Compare aggregates the per-field resolutions of one listing. A field
// counts as agreeing unless its classification is MAJOR: minor formatting
// differences and one-sided extractions are treated as agreement at the
// listing level.
func Compare(resolutions []model.FieldResolution) model.ListingComparison {
	var cmp model.ListingComparison

	agreeing := 0
	for _, res := range resolutions {
		switch {
		case res.Disagreement == model.DisagreementMajor:
			cmp.Disagreements = append(cmp.Disagreements, res.Field)
		case res.NormalizedML == nil && res.NormalizedRegex == nil:
			cmp.BothEmpty = append(cmp.BothEmpty, res.Field)
		case res.NormalizedML != nil && res.NormalizedRegex == nil:
			cmp.MLOnly = append(cmp.MLOnly, res.Field)
		case res.NormalizedML == nil && res.NormalizedRegex != nil:
			cmp.RegexOnly = append(cmp.RegexOnly, res.Field)
		default:
			cmp.Agreements = append(cmp.Agreements, res.Field)
		}
		if res.Disagreement != model.DisagreementMajor {
			agreeing++
		}
	}

	switch {
	case agreeing == len(resolutions):
		cmp.AgreementLevel = model.AgreementFull
	case agreeing >= 2:
		cmp.AgreementLevel = model.AgreementPartial
	default:
		cmp.AgreementLevel = model.AgreementNone
	}

	return cmp
}

// Assess derives the listing-wide confidence from the agreement level and
// the per-field resolutions. The categorical label follows the agreement
// level and is downgraded one step when any field resolved as MAJOR; the
// numeric score is the minimum per-field resolution confidence.
func Assess(cmp model.ListingComparison, resolutions []model.FieldResolution) (model.ConfidenceLabel, float64) {
	var label model.ConfidenceLabel
	switch cmp.AgreementLevel {
	case model.AgreementFull:
		label = model.ConfidenceHigh
	case model.AgreementPartial:
		label = model.ConfidenceMedium
	default:
		label = model.ConfidenceLow
	}

	score := 1.0
	hasMajor := false
	for _, res := range resolutions {
		if res.Confidence < score {
			score = res.Confidence
		}
		if res.Disagreement == model.DisagreementMajor {
			hasMajor = true
		}
	}
	if len(resolutions) == 0 {
		score = 0.0
	}
	if hasMajor {
		label = label.Downgrade()
	}

	return label, score
}
