// Package normalize derives canonical comparison forms from raw extracted
// field values. The canonical form is used only for equality checks; the
// human-facing and training-facing value always stays the original raw
// string. Absence and unparsable input are indistinguishable downstream:
// every function returns nil instead of an error.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/bazarlab/adextract/internal/model"
)

var (
	digitGapRe = regexp.MustCompile(`(\d)[\s._]+(\d)`)
	numUnitRe  = regexp.MustCompile(`^(\d+)\s*([\p{L}]+)`)
	yearRe     = regexp.MustCompile(`(\d{4})`)
	digitRunRe = regexp.MustCompile(`\d+`)
)

// mileageUnits maps accepted distance unit spellings to canonical tokens.
var mileageUnits = map[string]string{
	"km":         "km",
	"kilometer":  "km",
	"kilometers": "km",
	"kilometre":  "km",
	"kilometres": "km",
	"mi":         "mi",
	"mile":       "mi",
	"miles":      "mi",
}

// powerUnits maps accepted power unit spellings (diacritics folded) to
// canonical tokens. kW and PS are incompatible measurement systems and are
// never converted into each other.
var powerUnits = map[string]string{
	"kw":   "kw",
	"ps":   "ps",
	"hp":   "ps",
	"koni": "ps",
	"kone": "ps",
	"kon":  "ps",
}

// fuelTokens maps fuel nouns, adjective inflections and synonyms
// (diacritics folded) to a single canonical token.
var fuelTokens = map[string]string{
	"diesel":         "diesel",
	"dieselovy":      "diesel",
	"turbodiesel":    "diesel",
	"nafta":          "diesel",
	"naftovy":        "diesel",
	"naftak":         "diesel",
	"motorova nafta": "diesel",
	"dyzl":           "diesel",
	"tdi":            "diesel",
	"td":             "diesel",
	"benzin":         "benzin",
	"benzinovy":      "benzin",
	"gas":            "benzin",
	"gasoline":       "benzin",
	"tsi":            "benzin",
	"lpg":            "lpg",
	"plyn":           "lpg",
	"cng":            "cng",
	"elektro":        "elektro",
	"electric":       "elektro",
	"elektrina":      "elektro",
	"ev":             "elektro",
	"hybrid":         "hybrid",
}

var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// fold lowercases s and strips combining diacritics (benzín → benzin).
func fold(s string) string {
	out, _, err := transform.String(diacriticStripper, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

// collapseDigitGaps removes separators between digit groups
// ("90 000" → "90000", "200.000" → "200000").
func collapseDigitGaps(s string) string {
	for {
		next := digitGapRe.ReplaceAllString(s, "$1$2")
		if next == s {
			return s
		}
		s = next
	}
}

// Value canonicalizes a raw field string into its comparable form, or nil
// when the input is absent or has no recognizable shape for the field.
func Value(raw *string, field model.Field) *string {
	if raw == nil {
		return nil
	}
	s := strings.TrimSpace(strings.ToLower(*raw))
	if s == "" {
		return nil
	}

	switch field {
	case model.FieldMileage:
		return mileageValue(s)
	case model.FieldPower:
		return numberWithUnit(s, powerUnits)
	case model.FieldYear:
		if m := yearRe.FindString(collapseDigitGaps(s)); m != "" {
			return &m
		}
		return nil
	case model.FieldFuel:
		return fuelValue(s)
	default:
		return nil
	}
}

// numberWithUnit extracts the leading digit run and a recognized unit token
// and renders them as "{number}{unit}". Requires both parts.
func numberWithUnit(s string, units map[string]string) *string {
	m := numUnitRe.FindStringSubmatch(collapseDigitGaps(s))
	if m == nil {
		return nil
	}
	unit, ok := units[fold(m[2])]
	if !ok {
		return nil
	}
	out := fmt.Sprintf("%s%s", m[1], unit)
	return &out
}

// mileageAbbrevs are the thousand-multiplier suffixes a mileage mention
// may carry instead of a unit.
var mileageAbbrevs = map[string]bool{
	"tis":   true,
	"tisic": true,
	"t":     true,
	"k":     true,
	"xxx":   true,
}

// mileageValue canonicalizes mileage mentions, including the abbreviated
// forms ("85 tis km", "150k", "22xxx") and bare digit runs ("150 000"),
// all rendered in kilometers. Miles keep their own unit.
func mileageValue(s string) *string {
	if v := numberWithUnit(s, mileageUnits); v != nil {
		return v
	}
	// A number followed by a word that is neither a unit nor a thousand
	// abbreviation is not a mileage.
	if m := numUnitRe.FindStringSubmatch(collapseDigitGaps(s)); m != nil && !mileageAbbrevs[fold(m[2])] {
		return nil
	}
	km := Kilometers(s, s)
	if km <= 0 {
		return nil
	}
	out := strconv.Itoa(km) + "km"
	return &out
}

func fuelValue(s string) *string {
	folded := strings.TrimSpace(fold(s))
	if folded == "" {
		return nil
	}
	if canonical, ok := fuelTokens[folded]; ok {
		return &canonical
	}
	// Unknown fuel spellings pass through folded so that two sources using
	// the same unknown word still compare equal.
	return &folded
}

// Numeric extracts the leading integer from a raw value, collapsing digit
// separators first. Returns nil when no digits are present.
func Numeric(raw *string) *int {
	if raw == nil {
		return nil
	}
	m := digitRunRe.FindString(collapseDigitGaps(*raw))
	if m == "" {
		return nil
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return nil
	}
	return &n
}
