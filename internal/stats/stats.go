// Package stats aggregates extraction outcomes across listings. The
// tracker folds immutable per-listing comparisons into running counters
// and persists them as a JSON snapshot.
package stats

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/bazarlab/adextract/internal/model"
)

// FieldCounts tallies agreement outcomes for one field. One-sided and
// both-empty fields count in the listing-level totals only.
type FieldCounts struct {
	Agreements    int `json:"agreements"`
	Disagreements int `json:"disagreements"`
}

// Snapshot is the persisted tracker state.
type Snapshot struct {
	TotalExtractions  int                         `json:"total_extractions"`
	FullAgreements    int                         `json:"full_agreements"`
	PartialAgreements int                         `json:"partial_agreements"`
	Disagreements     int                         `json:"disagreements"`
	MLOnly            int                         `json:"ml_only"`
	RegexOnly         int                         `json:"regex_only"`
	BothEmpty         int                         `json:"both_empty"`
	ByField           map[model.Field]FieldCounts `json:"by_field"`
	UpdatedAt         time.Time                   `json:"updated_at"`
}

// AgreementRate returns the share of observed listings in full agreement,
// in [0, 1].
func (s Snapshot) AgreementRate() float64 {
	if s.TotalExtractions == 0 {
		return 0
	}
	return float64(s.FullAgreements) / float64(s.TotalExtractions)
}

// Tracker accumulates snapshots. Safe for concurrent use.
type Tracker struct {
	mu   sync.Mutex
	snap Snapshot
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{snap: Snapshot{ByField: make(map[model.Field]FieldCounts)}}
}

// Load reads a snapshot file into a tracker. A missing file yields an
// empty tracker.
func Load(path string) (*Tracker, error) {
	t := NewTracker()
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return t, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "stats: read snapshot")
	}
	if err := json.Unmarshal(b, &t.snap); err != nil {
		return nil, eris.Wrapf(err, "stats: parse snapshot %s", path)
	}
	if t.snap.ByField == nil {
		t.snap.ByField = make(map[model.Field]FieldCounts)
	}
	return t, nil
}

// Observe folds one listing comparison into the counters.
func (t *Tracker) Observe(cmp model.ListingComparison) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.snap.TotalExtractions++
	switch cmp.AgreementLevel {
	case model.AgreementFull:
		t.snap.FullAgreements++
	case model.AgreementPartial:
		t.snap.PartialAgreements++
	default:
		t.snap.Disagreements++
	}
	t.snap.MLOnly += len(cmp.MLOnly)
	t.snap.RegexOnly += len(cmp.RegexOnly)
	t.snap.BothEmpty += len(cmp.BothEmpty)

	for _, f := range cmp.Agreements {
		fc := t.snap.ByField[f]
		fc.Agreements++
		t.snap.ByField[f] = fc
	}
	for _, f := range cmp.Disagreements {
		fc := t.snap.ByField[f]
		fc.Disagreements++
		t.snap.ByField[f] = fc
	}
	t.snap.UpdatedAt = time.Now().UTC()
}

// Snapshot returns a copy of the current counters.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := t.snap
	out.ByField = make(map[model.Field]FieldCounts, len(t.snap.ByField))
	for f, c := range t.snap.ByField {
		out.ByField[f] = c
	}
	return out
}

// Save persists the snapshot, replacing the file atomically. An empty
// path means no persistence, matching the in-memory queues.
func (t *Tracker) Save(path string) error {
	if path == "" {
		return nil
	}
	snap := t.Snapshot()
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return eris.Wrap(err, "stats: marshal snapshot")
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return eris.Wrap(err, "stats: write snapshot temp file")
	}
	if err := os.Rename(tmp, path); err != nil {
		return eris.Wrap(err, "stats: replace snapshot file")
	}
	return nil
}
