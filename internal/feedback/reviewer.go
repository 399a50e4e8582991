package feedback

import (
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bazarlab/adextract/internal/model"
)

// Decision is a human adjudication for one disagreeing field.
type Decision struct {
	Choice string `json:"choice"` // ml | regex | neither | custom
	Custom string `json:"custom,omitempty"`
}

// Decision choices.
const (
	ChooseML      = "ml"
	ChooseRegex   = "regex"
	ChooseNeither = "neither"
	ChooseCustom  = "custom"
)

// Reviewer consumes review queue entries: applying decisions turns the
// entry into a manual training example and removes it from the queue.
type Reviewer struct {
	review ReviewQueue
	manual TrainingQueue
}

// NewReviewer wires the reviewer to the review queue and the
// manual-review log.
func NewReviewer(review ReviewQueue, manual TrainingQueue) *Reviewer {
	return &Reviewer{review: review, manual: manual}
}

// Apply resolves one queued listing with per-field decisions. Fields
// without a decision keep their value only when both sources agreed on
// it; still-conflicting undecided fields are dropped from the training
// example.
func (rv *Reviewer) Apply(listingID string, decisions map[model.Field]Decision) error {
	entry, ok := rv.review.Get(listingID)
	if !ok {
		return eris.Errorf("feedback: listing %s not in review queue", listingID)
	}

	var resolutions []model.FieldResolution
	for _, field := range model.AllFields() {
		val, err := chooseValue(entry, field, decisions)
		if err != nil {
			return err
		}
		if val == nil {
			continue
		}
		resolutions = append(resolutions, model.FieldResolution{Field: field, ResolvedValue: val})
	}

	// Logged even with zero entities: the manual log doubles as the record
	// of adjudicated listings, which must never re-enter the review queue.
	spans := synthesizeSpans(entry.Text, resolutions)
	err := rv.manual.Append(model.TrainingEntry{
		Data:       model.TrainingData{Text: entry.Text, Entities: spans},
		ListingID:  listingID,
		Timestamp:  time.Now().UTC(),
		Confidence: "manual",
		Source:     SourceManualReview,
	})
	if err != nil {
		return err
	}

	if err := rv.review.Remove(listingID); err != nil {
		return err
	}
	zap.L().Info("feedback: review applied",
		zap.String("listing_id", listingID),
		zap.Int("entities", len(spans)))
	return nil
}

func chooseValue(entry model.ReviewEntry, field model.Field, decisions map[model.Field]Decision) (*string, error) {
	d, decided := decisions[field]
	if !decided {
		ml := entry.MLResult.Get(field)
		regex := entry.RegexResult.Get(field)
		if ml != nil && regex != nil && *ml == *regex {
			return ml, nil
		}
		if ml != nil && regex == nil {
			return ml, nil
		}
		if regex != nil && ml == nil {
			return regex, nil
		}
		return nil, nil
	}

	switch d.Choice {
	case ChooseML:
		return entry.MLResult.Get(field), nil
	case ChooseRegex:
		return entry.RegexResult.Get(field), nil
	case ChooseNeither:
		return nil, nil
	case ChooseCustom:
		if d.Custom == "" {
			return nil, eris.Errorf("feedback: empty custom value for field %s", field)
		}
		custom := d.Custom
		return &custom, nil
	default:
		return nil, eris.Errorf("feedback: unknown decision %q for field %s", d.Choice, field)
	}
}
