package model

import "strings"

// Field identifies one of the structured fields extracted from listing text.
type Field string

const (
	FieldMileage Field = "mileage"
	FieldYear    Field = "year"
	FieldPower   Field = "power"
	FieldFuel    Field = "fuel"
)

// AllFields returns the extracted fields in canonical order.
func AllFields() []Field {
	return []Field{FieldMileage, FieldYear, FieldPower, FieldFuel}
}

// Label returns the entity label used in training examples (e.g. MILEAGE).
func (f Field) Label() string {
	return strings.ToUpper(string(f))
}

// Tier is the confidence tier of a pattern rule or candidate.
type Tier int

const (
	TierLow Tier = iota + 1
	TierMedium
	TierHigh
)

// String implements fmt.Stringer.
func (t Tier) String() string {
	switch t {
	case TierHigh:
		return "high"
	case TierMedium:
		return "medium"
	case TierLow:
		return "low"
	default:
		return "unknown"
	}
}

// Candidate is a single pattern-extractor match before selection. Text is
// the verbatim matched substring; later layers depend on raw-text fidelity
// for training-data reconstruction.
type Candidate struct {
	Text   string
	Value  any
	Start  int
	End    int
	Tier   Tier
	RuleID string
}

// RawFields holds the verbatim string one source extractor found for each
// field, or nil for absence. Raw values are never mutated.
type RawFields struct {
	Mileage *string `json:"mileage"`
	Year    *string `json:"year"`
	Power   *string `json:"power"`
	Fuel    *string `json:"fuel"`
}

// Get returns the raw value for the given field.
func (r RawFields) Get(f Field) *string {
	switch f {
	case FieldMileage:
		return r.Mileage
	case FieldYear:
		return r.Year
	case FieldPower:
		return r.Power
	case FieldFuel:
		return r.Fuel
	default:
		return nil
	}
}

// Set stores the raw value for the given field.
func (r *RawFields) Set(f Field, v *string) {
	switch f {
	case FieldMileage:
		r.Mileage = v
	case FieldYear:
		r.Year = v
	case FieldPower:
		r.Power = v
	case FieldFuel:
		r.Fuel = v
	}
}

// Empty reports whether no field has a value.
func (r RawFields) Empty() bool {
	return r.Mileage == nil && r.Year == nil && r.Power == nil && r.Fuel == nil
}
