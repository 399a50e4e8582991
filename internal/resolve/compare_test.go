package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bazarlab/adextract/internal/model"
)

func TestCompare_FullAgreement(t *testing.T) {
	r := New(DefaultPolicy())

	resolutions := []model.FieldResolution{
		r.Resolve(model.FieldMileage, str("150000 km"), str("150 000 km"), nil),
		r.Resolve(model.FieldYear, str("2015"), str("2015"), nil),
		r.Resolve(model.FieldPower, str("110 kW"), str("110 kW"), nil),
		r.Resolve(model.FieldFuel, str("diesel"), str("diesel"), nil),
	}

	cmp := Compare(resolutions)
	assert.Equal(t, model.AgreementFull, cmp.AgreementLevel)
	assert.Len(t, cmp.Agreements, 4)
	assert.Empty(t, cmp.Disagreements)

	label, score := Assess(cmp, resolutions)
	assert.Equal(t, model.ConfidenceHigh, label)
	assert.Equal(t, 0.95, score)
}

func TestCompare_OneSidedAndEmptyStillAgree(t *testing.T) {
	r := New(DefaultPolicy())

	resolutions := []model.FieldResolution{
		r.Resolve(model.FieldMileage, str("150000 km"), nil, nil),
		r.Resolve(model.FieldYear, nil, str("2015"), nil),
		r.Resolve(model.FieldPower, nil, nil, nil),
		r.Resolve(model.FieldFuel, str("diesel"), str("diesel"), nil),
	}

	cmp := Compare(resolutions)
	assert.Equal(t, model.AgreementFull, cmp.AgreementLevel)
	assert.Equal(t, []model.Field{model.FieldMileage}, cmp.MLOnly)
	assert.Equal(t, []model.Field{model.FieldYear}, cmp.RegexOnly)
	assert.Equal(t, []model.Field{model.FieldPower}, cmp.BothEmpty)
	assert.Equal(t, []model.Field{model.FieldFuel}, cmp.Agreements)

	label, score := Assess(cmp, resolutions)
	assert.Equal(t, model.ConfidenceHigh, label)
	// Both-empty power drags the minimum to zero.
	assert.Equal(t, 0.0, score)
}

func TestCompare_MajorDowngradesLabel(t *testing.T) {
	r := New(DefaultPolicy())

	resolutions := []model.FieldResolution{
		r.Resolve(model.FieldMileage, str("150000 km"), str("90000 km"), nil),
		r.Resolve(model.FieldYear, str("2015"), str("2015"), nil),
		r.Resolve(model.FieldPower, str("110 kW"), str("110 kW"), nil),
		r.Resolve(model.FieldFuel, str("diesel"), str("diesel"), nil),
	}

	cmp := Compare(resolutions)
	assert.Equal(t, model.AgreementPartial, cmp.AgreementLevel)
	assert.Equal(t, []model.Field{model.FieldMileage}, cmp.Disagreements)

	label, score := Assess(cmp, resolutions)
	assert.Equal(t, model.ConfidenceLow, label)
	assert.Equal(t, 0.70, score)
}

func TestCompare_MostlyDisagreeing(t *testing.T) {
	r := New(DefaultPolicy())

	resolutions := []model.FieldResolution{
		r.Resolve(model.FieldMileage, str("150000 km"), str("90000 km"), nil),
		r.Resolve(model.FieldYear, str("2015"), str("2008"), nil),
		r.Resolve(model.FieldPower, str("151 kW"), str("110 kW"), nil),
		r.Resolve(model.FieldFuel, str("diesel"), str("benzín"), nil),
	}

	cmp := Compare(resolutions)
	assert.Equal(t, model.AgreementNone, cmp.AgreementLevel)
	assert.Len(t, cmp.Disagreements, 4)

	label, _ := Assess(cmp, resolutions)
	assert.Equal(t, model.ConfidenceLow, label)
}

func TestAssess_NoResolutions(t *testing.T) {
	cmp := Compare(nil)
	assert.Equal(t, model.AgreementFull, cmp.AgreementLevel)

	_, score := Assess(cmp, nil)
	assert.Equal(t, 0.0, score)
}
