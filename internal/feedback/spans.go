package feedback

import (
	"strings"
	"unicode/utf8"

	"github.com/bazarlab/adextract/internal/model"
)

// synthesizeSpans locates each resolved raw value in the listing text and
// returns labeled entity spans. Offsets are rune positions to match the
// character indexing of the training pipeline. Lookup is verbatim first,
// case-insensitive second; values not present in the text are skipped.
func synthesizeSpans(text string, resolutions []model.FieldResolution) []model.Span {
	var spans []model.Span
	for _, res := range resolutions {
		if res.ResolvedValue == nil || *res.ResolvedValue == "" {
			continue
		}
		val := *res.ResolvedValue
		idx := strings.Index(text, val)
		if idx < 0 {
			idx = strings.Index(strings.ToLower(text), strings.ToLower(val))
		}
		if idx < 0 {
			continue
		}
		start := utf8.RuneCountInString(text[:idx])
		spans = append(spans, model.Span{
			Start: start,
			End:   start + utf8.RuneCountInString(val),
			Label: res.Field.Label(),
		})
	}
	return spans
}

// truncate shortens text to at most n runes for review queue entries.
func truncate(text string, n int) string {
	if n <= 0 || utf8.RuneCountInString(text) <= n {
		return text
	}
	return string([]rune(text)[:n])
}
