package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	tisSuffixRe   = regexp.MustCompile(`^\d+(?:[.,]\d+)?\s*tis(?:íc)?\.?\s*(?:km)?$`)
	kSuffixRe     = regexp.MustCompile(`^\d+(?:[.,]\d+)?\s*k\s*(?:km)?$`)
	tSuffixRe     = regexp.MustCompile(`^\d+(?:[.,]\d+)?\s*t\.?\s*(?:km)?$`)
	xxxSuffixRe   = regexp.MustCompile(`^\d+\s*xxx\s*(?:km)?$`)
	thousandSepRe = regexp.MustCompile(`^(\d{1,3})[.,](\d{3})(?:[.,](\d{3}))?`)
	decimalRe     = regexp.MustCompile(`^(\d+)[.,](\d{1,2})`)
	digitsRe      = regexp.MustCompile(`\d+`)
)

// Kilometers converts a mileage mention into kilometers. numberStr is the
// numeric part of the mention, fullText the whole span. The ×1000 decision
// is made from fullText before the number is parsed, so a thousands
// separator ("200.000") is never confused with a decimal abbreviation
// ("1.5tis"). Returns 0 when no number is present.
func Kilometers(numberStr, fullText string) int {
	lower := strings.ToLower(strings.TrimSpace(fullText))

	hasTis := tisSuffixRe.MatchString(lower)
	hasK := kSuffixRe.MatchString(lower)
	hasT := tSuffixRe.MatchString(lower) &&
		!strings.Contains(lower, "tdi") && !strings.Contains(lower, "tsi")
	hasXXX := xxxSuffixRe.MatchString(lower)
	hasStars := strings.Contains(fullText, "***") || strings.Contains(fullText, "* * *")

	multiply := hasTis || hasK || hasT || hasXXX || hasStars

	// Thousands separator format ("200.000", "200,000").
	if m := thousandSepRe.FindStringSubmatch(numberStr); m != nil && !multiply {
		joined := m[1] + m[2] + m[3]
		n, err := strconv.Atoi(joined)
		if err != nil {
			return 0
		}
		return n
	}

	// Decimal with a thousands indicator ("1.5tis" → 1500).
	if m := decimalRe.FindStringSubmatch(numberStr); m != nil && multiply {
		f, err := strconv.ParseFloat(m[1]+"."+m[2], 64)
		if err != nil {
			return 0
		}
		return int(f * 1000)
	}

	// Plain integer, possibly with separators ("200 000" → 200000).
	joined := strings.Join(digitsRe.FindAllString(numberStr, -1), "")
	if joined == "" {
		return 0
	}
	n, err := strconv.Atoi(joined)
	if err != nil {
		return 0
	}
	if multiply && n < 1000 {
		return n * 1000
	}
	return n
}
