package store

import (
	"context"

	"github.com/bazarlab/adextract/internal/model"
)

// RecordFilter specifies criteria for listing resolved records.
type RecordFilter struct {
	Confidence  model.ConfidenceLabel `json:"confidence,omitempty"`
	FlaggedOnly bool                  `json:"flagged_only,omitempty"`
	Limit       int                   `json:"limit,omitempty"`
	Offset      int                   `json:"offset,omitempty"`
}

// Store defines the persistence interface for resolved listing records.
// Records are keyed by listing ID; re-processing a listing overwrites
// its previous record.
type Store interface {
	UpsertRecord(ctx context.Context, rec model.ResolvedRecord) error
	GetRecord(ctx context.Context, listingID string) (*model.ResolvedRecord, error)
	ListRecords(ctx context.Context, filter RecordFilter) ([]model.ResolvedRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
