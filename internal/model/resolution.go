package model

// DisagreementType classifies how the two sources' normalized values relate.
type DisagreementType string

const (
	// DisagreementNone means both canonical forms are equal, or both absent.
	DisagreementNone DisagreementType = "NONE"
	// DisagreementMinorFormatting means same numeric magnitude but different
	// formatting or units, or exactly one source present.
	DisagreementMinorFormatting DisagreementType = "MINOR_FORMATTING"
	// DisagreementMajor means numerically different values, both present.
	DisagreementMajor DisagreementType = "MAJOR"
)

// ResolutionMethod records which source (or manual input) supplied the
// final value.
type ResolutionMethod string

const (
	MethodAutoNormalized ResolutionMethod = "AUTO_NORMALIZED"
	MethodManual         ResolutionMethod = "MANUAL"
	MethodMLPreferred    ResolutionMethod = "ML_PREFERRED"
	MethodRegexPreferred ResolutionMethod = "REGEX_PREFERRED"
)

// FieldResolution is the complete per-field resolution result. Raw values
// are never modified; normalized forms exist only for comparison. Immutable
// once produced.
type FieldResolution struct {
	Field           Field            `json:"field"`
	MLRaw           *string          `json:"ml_raw"`
	RegexRaw        *string          `json:"regex_raw"`
	NormalizedML    *string          `json:"normalized_ml"`
	NormalizedRegex *string          `json:"normalized_regex"`
	Disagreement    DisagreementType `json:"disagreement_type"`
	ResolvedValue   *string          `json:"resolved_value"`
	Method          ResolutionMethod `json:"resolution_method"`
	Confidence      float64          `json:"confidence"`
}

// AgreementLevel is the listing-wide agreement summary.
type AgreementLevel string

const (
	AgreementFull    AgreementLevel = "full"
	AgreementPartial AgreementLevel = "partial"
	AgreementNone    AgreementLevel = "none"
)

// ConfidenceLabel is the categorical confidence of a resolved listing.
type ConfidenceLabel string

const (
	ConfidenceHigh   ConfidenceLabel = "high"
	ConfidenceMedium ConfidenceLabel = "medium"
	ConfidenceLow    ConfidenceLabel = "low"
)

// Downgrade returns the label one step lower (high → medium → low).
func (c ConfidenceLabel) Downgrade() ConfidenceLabel {
	switch c {
	case ConfidenceHigh:
		return ConfidenceMedium
	case ConfidenceMedium:
		return ConfidenceLow
	default:
		return ConfidenceLow
	}
}

// ListingComparison aggregates the four field resolutions of one listing.
type ListingComparison struct {
	Agreements     []Field        `json:"agreements"`
	Disagreements  []Field        `json:"disagreements"`
	MLOnly         []Field        `json:"ml_only"`
	RegexOnly      []Field        `json:"regex_only"`
	BothEmpty      []Field        `json:"both_empty"`
	AgreementLevel AgreementLevel `json:"agreement_level"`
}
