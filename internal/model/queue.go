package model

import (
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
)

// Span is one labeled entity span inside a training example. It serializes
// as the three-element array [start, end, "LABEL"] expected by the model
// training pipeline.
type Span struct {
	Start int
	End   int
	Label string
}

// MarshalJSON implements json.Marshaler.
func (s Span) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{s.Start, s.End, s.Label})
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Span) UnmarshalJSON(b []byte) error {
	var arr []json.RawMessage
	if err := json.Unmarshal(b, &arr); err != nil {
		return eris.Wrap(err, "model: span array")
	}
	if len(arr) != 3 {
		return eris.Errorf("model: span has %d elements, want 3", len(arr))
	}
	if err := json.Unmarshal(arr[0], &s.Start); err != nil {
		return eris.Wrap(err, "model: span start")
	}
	if err := json.Unmarshal(arr[1], &s.End); err != nil {
		return eris.Wrap(err, "model: span end")
	}
	if err := json.Unmarshal(arr[2], &s.Label); err != nil {
		return eris.Wrap(err, "model: span label")
	}
	return nil
}

// TrainingData is the example body, serialized as the two-element array
// [text, {"entities": [...]}].
type TrainingData struct {
	Text     string
	Entities []Span
}

type trainingEntities struct {
	Entities []Span `json:"entities"`
}

// MarshalJSON implements json.Marshaler.
func (d TrainingData) MarshalJSON() ([]byte, error) {
	ents := d.Entities
	if ents == nil {
		ents = []Span{}
	}
	return json.Marshal([]any{d.Text, trainingEntities{Entities: ents}})
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *TrainingData) UnmarshalJSON(b []byte) error {
	var arr []json.RawMessage
	if err := json.Unmarshal(b, &arr); err != nil {
		return eris.Wrap(err, "model: training data array")
	}
	if len(arr) != 2 {
		return eris.Errorf("model: training data has %d elements, want 2", len(arr))
	}
	if err := json.Unmarshal(arr[0], &d.Text); err != nil {
		return eris.Wrap(err, "model: training data text")
	}
	var ents trainingEntities
	if err := json.Unmarshal(arr[1], &ents); err != nil {
		return eris.Wrap(err, "model: training data entities")
	}
	d.Entities = ents.Entities
	return nil
}

// TrainingEntry is one auto-training queue item: a synthesized training
// example derived from a full-agreement extraction.
type TrainingEntry struct {
	Data       TrainingData `json:"data"`
	ListingID  string       `json:"listing_id"`
	Timestamp  time.Time    `json:"timestamp"`
	Confidence string       `json:"confidence"`
	Source     string       `json:"source"`
}

// ReviewEntry is one review queue item: a disagreement awaiting human
// adjudication. Text is truncated; raw source values are kept verbatim.
type ReviewEntry struct {
	ListingID   string            `json:"listing_id"`
	Text        string            `json:"text"`
	MLResult    RawFields         `json:"ml_result"`
	RegexResult RawFields         `json:"regex_result"`
	Comparison  ListingComparison `json:"comparison"`
	Timestamp   time.Time         `json:"timestamp"`
}
