package feedback

import (
	"time"

	"go.uber.org/zap"

	"github.com/bazarlab/adextract/internal/model"
)

// Entry provenance markers carried in the Source field.
const (
	SourceAutoAgreement = "auto_agreement"
	SourceManualReview  = "manual_review"
)

// Router fills the learning queues from processed listings. Full
// agreement becomes a training example, full disagreement becomes a
// review entry, partial agreement is only logged. Routing is idempotent
// per listing: the queues dedupe by listing ID and listings already
// adjudicated never re-enter the review queue.
type Router struct {
	training    TrainingQueue
	manual      TrainingQueue
	review      ReviewQueue
	truncateLen int
}

// NewRouter wires the router to its queues. manual is the manual-review
// log consulted to keep adjudicated listings out of the review queue.
func NewRouter(training, manual TrainingQueue, review ReviewQueue, truncateLen int) *Router {
	return &Router{training: training, manual: manual, review: review, truncateLen: truncateLen}
}

// Route dispatches one processed listing into the queues.
func (r *Router) Route(listing model.Listing, cmp model.ListingComparison, resolutions []model.FieldResolution) error {
	switch cmp.AgreementLevel {
	case model.AgreementFull:
		spans := synthesizeSpans(listing.Text, resolutions)
		if len(spans) == 0 {
			// Nothing located in the text carries no training signal.
			zap.L().Debug("feedback: skipping training entry with no entities",
				zap.String("listing_id", listing.ID))
			return nil
		}
		return r.training.Append(model.TrainingEntry{
			Data:       model.TrainingData{Text: listing.Text, Entities: spans},
			ListingID:  listing.ID,
			Timestamp:  time.Now().UTC(),
			Confidence: "high",
			Source:     SourceAutoAgreement,
		})

	case model.AgreementNone:
		if r.review.Has(listing.ID) || r.manual.Has(listing.ID) {
			return nil
		}
		var ml, regex model.RawFields
		for _, res := range resolutions {
			ml.Set(res.Field, res.MLRaw)
			regex.Set(res.Field, res.RegexRaw)
		}
		return r.review.Append(model.ReviewEntry{
			ListingID:   listing.ID,
			Text:        truncate(listing.Text, r.truncateLen),
			MLResult:    ml,
			RegexResult: regex,
			Comparison:  cmp,
			Timestamp:   time.Now().UTC(),
		})

	default:
		zap.L().Info("feedback: partial agreement, not queued",
			zap.String("listing_id", listing.ID),
			zap.Int("disagreements", len(cmp.Disagreements)))
		return nil
	}
}
