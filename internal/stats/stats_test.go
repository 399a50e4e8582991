package stats

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazarlab/adextract/internal/model"
)

func TestTracker_Observe(t *testing.T) {
	tr := NewTracker()

	tr.Observe(model.ListingComparison{
		Agreements:     []model.Field{model.FieldMileage, model.FieldYear},
		MLOnly:         []model.Field{model.FieldFuel},
		BothEmpty:      []model.Field{model.FieldPower},
		AgreementLevel: model.AgreementFull,
	})
	tr.Observe(model.ListingComparison{
		Agreements:     []model.Field{model.FieldYear},
		Disagreements:  []model.Field{model.FieldMileage},
		RegexOnly:      []model.Field{model.FieldFuel},
		BothEmpty:      []model.Field{model.FieldPower},
		AgreementLevel: model.AgreementPartial,
	})
	tr.Observe(model.ListingComparison{
		Disagreements:  []model.Field{model.FieldMileage, model.FieldYear, model.FieldPower},
		BothEmpty:      []model.Field{model.FieldFuel},
		AgreementLevel: model.AgreementNone,
	})

	snap := tr.Snapshot()
	assert.Equal(t, 3, snap.TotalExtractions)
	assert.Equal(t, 1, snap.FullAgreements)
	assert.Equal(t, 1, snap.PartialAgreements)
	assert.Equal(t, 1, snap.Disagreements)
	assert.Equal(t, 1, snap.MLOnly)
	assert.Equal(t, 1, snap.RegexOnly)
	assert.Equal(t, 3, snap.BothEmpty)

	assert.Equal(t, FieldCounts{Agreements: 1, Disagreements: 2}, snap.ByField[model.FieldMileage])
	assert.Equal(t, FieldCounts{Agreements: 2, Disagreements: 1}, snap.ByField[model.FieldYear])
	assert.InDelta(t, 1.0/3.0, snap.AgreementRate(), 1e-9)
}

func TestTracker_SnapshotIsDetached(t *testing.T) {
	tr := NewTracker()
	tr.Observe(model.ListingComparison{
		Agreements:     []model.Field{model.FieldMileage},
		AgreementLevel: model.AgreementFull,
	})

	snap := tr.Snapshot()
	snap.ByField[model.FieldMileage] = FieldCounts{Agreements: 99}

	assert.Equal(t, FieldCounts{Agreements: 1}, tr.Snapshot().ByField[model.FieldMileage])
}

func TestTracker_SaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extraction_stats.json")

	tr := NewTracker()
	tr.Observe(model.ListingComparison{
		Agreements:     []model.Field{model.FieldMileage, model.FieldYear, model.FieldPower, model.FieldFuel},
		AgreementLevel: model.AgreementFull,
	})
	require.NoError(t, tr.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, tr.Snapshot(), loaded.Snapshot())

	// Loading continues the counters rather than restarting them.
	loaded.Observe(model.ListingComparison{AgreementLevel: model.AgreementNone})
	assert.Equal(t, 2, loaded.Snapshot().TotalExtractions)
}

func TestSave_EmptyPathIsNoop(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	tr := NewTracker()
	tr.Observe(model.ListingComparison{AgreementLevel: model.AgreementFull})
	require.NoError(t, tr.Save(""))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLoad_MissingFile(t *testing.T) {
	tr, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, 0, tr.Snapshot().TotalExtractions)
}

func TestTracker_ConcurrentObserve(t *testing.T) {
	tr := NewTracker()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Observe(model.ListingComparison{
				Agreements:     []model.Field{model.FieldMileage},
				AgreementLevel: model.AgreementFull,
			})
		}()
	}
	wg.Wait()

	snap := tr.Snapshot()
	assert.Equal(t, 50, snap.TotalExtractions)
	assert.Equal(t, 50, snap.ByField[model.FieldMileage].Agreements)
}
