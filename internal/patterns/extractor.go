package patterns

import (
	"regexp"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/bazarlab/adextract/internal/model"
	"github.com/bazarlab/adextract/internal/normalize"
)

// Config bounds the plausibility windows applied to parsed values.
type Config struct {
	YearMin  int
	YearMax  int
	PowerMin int
	PowerMax int
}

// DefaultConfig returns the production windows: model years from 1990
// through next year, engine power 30-500 kW.
func DefaultConfig() Config {
	return Config{
		YearMin:  1990,
		YearMax:  time.Now().Year() + 1,
		PowerMin: 30,
		PowerMax: 500,
	}
}

// Extractor scans listing text for field candidates using the embedded
// tiered rule table. It is stateless and safe for concurrent use.
type Extractor struct {
	rules map[model.Field]fieldRules
	cfg   Config
}

// New compiles the embedded rule table.
func New(cfg Config) (*Extractor, error) {
	rules, err := loadRules(rulesYAML)
	if err != nil {
		return nil, err
	}
	return &Extractor{rules: rules, cfg: cfg}, nil
}

// MustNew is New for callers with a known-good embedded table.
func MustNew(cfg Config) *Extractor {
	e, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return e
}

var nonDigitRe = regexp.MustCompile(`\D`)

// Candidates returns all surviving matches for one field, sorted by start
// offset. Tiers form a strict fallback chain: the first tier with at least
// one surviving match wins and lower tiers are never consulted. Within the
// winning tier, overlapping matches are deduplicated keeping the longest
// match at each start position.
func (e *Extractor) Candidates(text string, field model.Field) []model.Candidate {
	fr, ok := e.rules[field]
	if !ok {
		return nil
	}

	exclPos, exclVal := e.exclusions(text, fr)

	for _, tier := range []model.Tier{model.TierHigh, model.TierMedium, model.TierLow} {
		var found []model.Candidate
		for _, r := range fr.tiers[tier] {
			for _, loc := range r.re.FindAllStringSubmatchIndex(text, -1) {
				c, ok := e.candidate(text, field, tier, r, loc)
				if !ok {
					continue
				}
				if fr.excludeMode == ExcludeByValue && exclVal[c.Text] {
					continue
				}
				if fr.excludeMode == ExcludeByPosition && exclPos[c.Start] {
					continue
				}
				found = append(found, c)
			}
		}
		if len(found) > 0 {
			return dedupeLongest(found)
		}
	}
	return nil
}

// Extract runs all four fields over the text and returns the verbatim
// matched substrings. The earliest surviving candidate of the winning tier
// becomes the field's raw result.
func (e *Extractor) Extract(text string) model.RawFields {
	var raw model.RawFields
	for _, field := range model.AllFields() {
		cands := e.Candidates(text, field)
		if len(cands) == 0 {
			continue
		}
		best := cands[0]
		raw.Set(field, &best.Text)
		zap.L().Debug("patterns: field extracted",
			zap.String("field", string(field)),
			zap.String("text", best.Text),
			zap.String("tier", best.Tier.String()),
			zap.String("rule", best.RuleID),
		)
	}
	return raw
}

// exclusions runs the field's EXCLUDE family and returns the blacklists.
func (e *Extractor) exclusions(text string, fr fieldRules) (map[int]bool, map[string]bool) {
	positions := make(map[int]bool)
	values := make(map[string]bool)
	for _, r := range fr.exclude {
		for _, loc := range r.re.FindAllStringSubmatchIndex(text, -1) {
			start, end := spanOf(loc)
			positions[start] = true
			values[text[start:end]] = true
		}
	}
	return positions, values
}

// candidate builds a Candidate from a submatch location, applying the
// rule's not_after guard and the field's value plausibility window.
func (e *Extractor) candidate(text string, field model.Field, tier model.Tier, r rule, loc []int) (model.Candidate, bool) {
	start, end := spanOf(loc)
	if start < 0 {
		return model.Candidate{}, false
	}
	if r.notAfter != nil && r.notAfter.MatchString(text[end:]) {
		return model.Candidate{}, false
	}

	span := text[start:end]
	numberStr := span
	if len(loc) >= 6 && loc[4] >= 0 {
		numberStr = text[loc[4]:loc[5]]
	}

	var value any
	switch field {
	case model.FieldMileage:
		v := normalize.Kilometers(numberStr, span)
		if v <= 0 {
			return model.Candidate{}, false
		}
		value = v
	case model.FieldYear:
		v, err := strconv.Atoi(span)
		if err != nil || v < e.cfg.YearMin || v > e.cfg.YearMax {
			return model.Candidate{}, false
		}
		value = v
	case model.FieldPower:
		v, err := strconv.Atoi(nonDigitRe.ReplaceAllString(numberStr, ""))
		if err != nil || v < e.cfg.PowerMin || v > e.cfg.PowerMax {
			return model.Candidate{}, false
		}
		value = v
	case model.FieldFuel:
		canonical := normalize.Value(&span, model.FieldFuel)
		if canonical == nil {
			return model.Candidate{}, false
		}
		value = *canonical
	}

	return model.Candidate{
		Text:   span,
		Value:  value,
		Start:  start,
		End:    end,
		Tier:   tier,
		RuleID: r.id,
	}, true
}

// spanOf returns the candidate span of a submatch location: capture group 1
// when present, the whole match otherwise.
func spanOf(loc []int) (int, int) {
	if len(loc) >= 4 && loc[2] >= 0 {
		return loc[2], loc[3]
	}
	return loc[0], loc[1]
}

// dedupeLongest keeps only the longest match at each start position,
// preserving rule priority for equal lengths, and sorts by start offset.
func dedupeLongest(cands []model.Candidate) []model.Candidate {
	byStart := make(map[int]model.Candidate, len(cands))
	for _, c := range cands {
		prev, ok := byStart[c.Start]
		if !ok || c.End-c.Start > prev.End-prev.Start {
			byStart[c.Start] = c
		}
	}
	out := make([]model.Candidate, 0, len(byStart))
	for _, c := range byStart {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}
