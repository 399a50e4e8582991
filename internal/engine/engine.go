// Package engine orchestrates one full extraction pass: both extractors,
// per-field resolution, listing comparison, queue routing, statistics and
// storage.
package engine

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bazarlab/adextract/internal/feedback"
	"github.com/bazarlab/adextract/internal/model"
	"github.com/bazarlab/adextract/internal/normalize"
	"github.com/bazarlab/adextract/internal/patterns"
	"github.com/bazarlab/adextract/internal/resolve"
	"github.com/bazarlab/adextract/internal/stats"
	"github.com/bazarlab/adextract/internal/store"
)

// ModelExtractor is the learned-model collaborator. Implementations call
// out of process; the engine treats any failure as "model found nothing"
// and keeps going on patterns alone.
type ModelExtractor interface {
	Extract(ctx context.Context, text string) (model.RawFields, error)
}

// Engine processes listings end to end.
type Engine struct {
	regex    *patterns.Extractor
	resolver *resolve.Resolver
	router   *feedback.Router
	tracker  *stats.Tracker
	ml       ModelExtractor
	store    store.Store
}

// Option configures optional collaborators.
type Option func(*Engine)

// WithModel attaches the learned-model extractor. Without it the engine
// runs pattern-only.
func WithModel(m ModelExtractor) Option {
	return func(e *Engine) { e.ml = m }
}

// WithStore attaches persistent record storage.
func WithStore(s store.Store) Option {
	return func(e *Engine) { e.store = s }
}

// New assembles an engine from its required collaborators.
func New(regex *patterns.Extractor, resolver *resolve.Resolver, router *feedback.Router, tracker *stats.Tracker, opts ...Option) *Engine {
	e := &Engine{regex: regex, resolver: resolver, router: router, tracker: tracker}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Process runs one listing through extraction, resolution, routing and
// storage, and returns the resolved record.
func (e *Engine) Process(ctx context.Context, listing model.Listing) (*model.ResolvedRecord, error) {
	regexRaw := e.regex.Extract(listing.Text)
	mlRaw := e.modelFields(ctx, listing.Text)

	resolutions := make([]model.FieldResolution, 0, len(model.AllFields()))
	for _, f := range model.AllFields() {
		resolutions = append(resolutions, e.resolver.Resolve(f, mlRaw.Get(f), regexRaw.Get(f), nil))
	}

	cmp := resolve.Compare(resolutions)
	label, score := resolve.Assess(cmp, resolutions)

	if err := e.router.Route(listing, cmp, resolutions); err != nil {
		return nil, eris.Wrapf(err, "engine: route listing %s", listing.ID)
	}
	e.tracker.Observe(cmp)

	rec := buildRecord(listing.ID, mlRaw, regexRaw, resolutions, cmp, label, score)
	if e.store != nil {
		if err := e.store.UpsertRecord(ctx, rec); err != nil {
			return nil, eris.Wrapf(err, "engine: store record %s", listing.ID)
		}
	}

	zap.L().Debug("engine: listing processed",
		zap.String("listing_id", listing.ID),
		zap.String("agreement_level", string(cmp.AgreementLevel)),
		zap.Float64("score", score),
	)
	return &rec, nil
}

// modelFields calls the learned model, degrading to empty fields on any
// error or panic so one bad model response never sinks the listing.
func (e *Engine) modelFields(ctx context.Context, text string) (raw model.RawFields) {
	if e.ml == nil {
		return raw
	}
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("engine: model extractor panicked", zap.Any("panic", r))
			raw = model.RawFields{}
		}
	}()

	got, err := e.ml.Extract(ctx, text)
	if err != nil {
		zap.L().Warn("engine: model extraction failed, continuing pattern-only", zap.Error(err))
		return model.RawFields{}
	}
	return got
}

func buildRecord(listingID string, mlRaw, regexRaw model.RawFields, resolutions []model.FieldResolution, cmp model.ListingComparison, label model.ConfidenceLabel, score float64) model.ResolvedRecord {
	rec := model.ResolvedRecord{
		ListingID:        listingID,
		Confidence:       label,
		Score:            score,
		AgreementLevel:   cmp.AgreementLevel,
		FlaggedForReview: cmp.AgreementLevel == model.AgreementNone,
		RawML:            mlRaw,
		RawRegex:         regexRaw,
		Resolutions:      resolutions,
		CreatedAt:        time.Now().UTC(),
	}

	for _, res := range resolutions {
		canonical := normalize.Value(res.ResolvedValue, res.Field)
		switch res.Field {
		case model.FieldMileage:
			rec.Mileage = normalize.Numeric(canonical)
		case model.FieldYear:
			rec.Year = normalize.Numeric(canonical)
		case model.FieldPower:
			rec.Power = normalize.Numeric(canonical)
		case model.FieldFuel:
			rec.Fuel = canonical
		}
	}
	return rec
}
