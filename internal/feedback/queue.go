// Package feedback implements the continuous-learning loop: append-only
// queues for training examples and human review, the router that fills
// them from processed listings, and the consumer that applies review
// decisions back into training data.
package feedback

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/bazarlab/adextract/internal/model"
)

// TrainingQueue collects synthesized training examples, at most one per
// listing. Appends for an already-queued listing are silently skipped.
type TrainingQueue interface {
	Append(entry model.TrainingEntry) error
	Has(listingID string) bool
	Entries() []model.TrainingEntry
}

// ReviewQueue holds disagreements awaiting human adjudication.
type ReviewQueue interface {
	Append(entry model.ReviewEntry) error
	Has(listingID string) bool
	Get(listingID string) (model.ReviewEntry, bool)
	Entries() []model.ReviewEntry
	Remove(listingID string) error
}

// fileQueue is a listing-keyed append-only queue persisted as a JSON
// array. An empty path keeps the queue in memory only. Every mutation is
// flushed with a write-new-then-rename so a crash never truncates the
// file mid-write.
type fileQueue[T any] struct {
	path string
	idOf func(T) string

	mu      sync.Mutex
	entries []T
	ids     map[string]int
}

func openFileQueue[T any](path string, idOf func(T) string) (*fileQueue[T], error) {
	q := &fileQueue[T]{path: path, idOf: idOf, ids: make(map[string]int)}
	if path == "" {
		return q, nil
	}

	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return q, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "feedback: read queue file")
	}

	var loaded []T
	if err := json.Unmarshal(b, &loaded); err != nil {
		return nil, eris.Wrapf(err, "feedback: parse queue file %s", path)
	}
	// Dedupe on load, first entry per listing wins.
	for _, e := range loaded {
		id := idOf(e)
		if _, ok := q.ids[id]; ok {
			continue
		}
		q.ids[id] = len(q.entries)
		q.entries = append(q.entries, e)
	}
	return q, nil
}

func (q *fileQueue[T]) append(entry T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	id := q.idOf(entry)
	if _, ok := q.ids[id]; ok {
		return nil
	}
	q.ids[id] = len(q.entries)
	q.entries = append(q.entries, entry)
	return q.persistLocked()
}

func (q *fileQueue[T]) has(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.ids[id]
	return ok
}

func (q *fileQueue[T]) get(id string) (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	i, ok := q.ids[id]
	if !ok {
		var zero T
		return zero, false
	}
	return q.entries[i], true
}

func (q *fileQueue[T]) all() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]T, len(q.entries))
	copy(out, q.entries)
	return out
}

func (q *fileQueue[T]) remove(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	i, ok := q.ids[id]
	if !ok {
		return nil
	}
	q.entries = append(q.entries[:i], q.entries[i+1:]...)
	delete(q.ids, id)
	for j := i; j < len(q.entries); j++ {
		q.ids[q.idOf(q.entries[j])] = j
	}
	return q.persistLocked()
}

func (q *fileQueue[T]) persistLocked() error {
	if q.path == "" {
		return nil
	}
	b, err := json.MarshalIndent(q.entries, "", "  ")
	if err != nil {
		return eris.Wrap(err, "feedback: marshal queue")
	}
	tmp := q.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return eris.Wrap(err, "feedback: write queue temp file")
	}
	if err := os.Rename(tmp, q.path); err != nil {
		return eris.Wrap(err, "feedback: replace queue file")
	}
	return nil
}

type trainingQueue struct {
	q *fileQueue[model.TrainingEntry]
}

// OpenTrainingQueue opens (or creates) a JSON-file training queue. An
// empty path gives an in-memory queue, used in tests and dry runs.
func OpenTrainingQueue(path string) (TrainingQueue, error) {
	q, err := openFileQueue(path, func(e model.TrainingEntry) string { return e.ListingID })
	if err != nil {
		return nil, err
	}
	return &trainingQueue{q: q}, nil
}

func (t *trainingQueue) Append(entry model.TrainingEntry) error { return t.q.append(entry) }
func (t *trainingQueue) Has(listingID string) bool              { return t.q.has(listingID) }
func (t *trainingQueue) Entries() []model.TrainingEntry         { return t.q.all() }

type reviewQueue struct {
	q *fileQueue[model.ReviewEntry]
}

// OpenReviewQueue opens (or creates) a JSON-file review queue. An empty
// path gives an in-memory queue.
func OpenReviewQueue(path string) (ReviewQueue, error) {
	q, err := openFileQueue(path, func(e model.ReviewEntry) string { return e.ListingID })
	if err != nil {
		return nil, err
	}
	return &reviewQueue{q: q}, nil
}

func (r *reviewQueue) Append(entry model.ReviewEntry) error { return r.q.append(entry) }
func (r *reviewQueue) Has(listingID string) bool            { return r.q.has(listingID) }
func (r *reviewQueue) Entries() []model.ReviewEntry         { return r.q.all() }
func (r *reviewQueue) Remove(listingID string) error        { return r.q.remove(listingID) }

func (r *reviewQueue) Get(listingID string) (model.ReviewEntry, bool) {
	return r.q.get(listingID)
}
