package feedback

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazarlab/adextract/internal/model"
)

func trainingEntry(id string) model.TrainingEntry {
	return model.TrainingEntry{
		Data:       model.TrainingData{Text: "najeto 150000 km", Entities: []model.Span{{Start: 7, End: 16, Label: "MILEAGE"}}},
		ListingID:  id,
		Timestamp:  time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Confidence: "high",
		Source:     SourceAutoAgreement,
	}
}

func TestTrainingQueue_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "training.json")

	q, err := OpenTrainingQueue(path)
	require.NoError(t, err)
	require.NoError(t, q.Append(trainingEntry("a-1")))
	require.NoError(t, q.Append(trainingEntry("a-2")))

	reopened, err := OpenTrainingQueue(path)
	require.NoError(t, err)
	entries := reopened.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "a-1", entries[0].ListingID)
	assert.Equal(t, entries[0], trainingEntry("a-1"))
	assert.True(t, reopened.Has("a-2"))
}

func TestTrainingQueue_DedupesByListingID(t *testing.T) {
	q, err := OpenTrainingQueue("")
	require.NoError(t, err)

	require.NoError(t, q.Append(trainingEntry("a-1")))
	changed := trainingEntry("a-1")
	changed.Confidence = "manual"
	require.NoError(t, q.Append(changed))

	entries := q.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "high", entries[0].Confidence)
}

func TestTrainingQueue_DedupesOnLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "training.json")
	// A file with the same listing twice, as older runs could produce.
	blob := `[
	  {"data": ["najeto 1 km", {"entities": []}], "listing_id": "a-1", "timestamp": "2026-08-01T12:00:00Z", "confidence": "high", "source": "auto_agreement"},
	  {"data": ["najeto 2 km", {"entities": []}], "listing_id": "a-1", "timestamp": "2026-08-02T12:00:00Z", "confidence": "high", "source": "auto_agreement"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(blob), 0o644))

	q, err := OpenTrainingQueue(path)
	require.NoError(t, err)
	entries := q.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "najeto 1 km", entries[0].Data.Text)
}

func TestTrainingQueue_RejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "training.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := OpenTrainingQueue(path)
	assert.Error(t, err)
}

func TestReviewQueue_Remove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "review.json")
	q, err := OpenReviewQueue(path)
	require.NoError(t, err)

	require.NoError(t, q.Append(model.ReviewEntry{ListingID: "a-1", Text: "first"}))
	require.NoError(t, q.Append(model.ReviewEntry{ListingID: "a-2", Text: "second"}))
	require.NoError(t, q.Remove("a-1"))
	require.NoError(t, q.Remove("missing"))

	reopened, err := OpenReviewQueue(path)
	require.NoError(t, err)
	entries := reopened.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "a-2", entries[0].ListingID)

	got, ok := reopened.Get("a-2")
	require.True(t, ok)
	assert.Equal(t, "second", got.Text)
	_, ok = reopened.Get("a-1")
	assert.False(t, ok)
}

func TestQueue_NoLeftoverTempFile(t *testing.T) {
	dir := t.TempDir()
	q, err := OpenTrainingQueue(filepath.Join(dir, "training.json"))
	require.NoError(t, err)
	require.NoError(t, q.Append(trainingEntry("a-1")))

	_, err = os.Stat(filepath.Join(dir, "training.json.tmp"))
	assert.True(t, os.IsNotExist(err))
}
