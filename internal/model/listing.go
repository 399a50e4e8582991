package model

import "time"

// Listing is one classified-ad listing handed to the engine: heading and
// description concatenated, plus a stable identifier used for queue
// deduplication.
type Listing struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// ResolvedRecord is the final output handed to the storage collaborator.
// Typed values are normalized; RawML/RawRegex keep the verbatim source
// strings for audit and retraining.
type ResolvedRecord struct {
	ListingID        string            `json:"listing_id"`
	Mileage          *int              `json:"mileage"`
	Year             *int              `json:"year"`
	Power            *int              `json:"power"`
	Fuel             *string           `json:"fuel"`
	Confidence       ConfidenceLabel   `json:"confidence"`
	Score            float64           `json:"score"`
	AgreementLevel   AgreementLevel    `json:"agreement_level"`
	FlaggedForReview bool              `json:"flagged_for_review"`
	RawML            RawFields         `json:"raw_ml"`
	RawRegex         RawFields         `json:"raw_regex"`
	Resolutions      []FieldResolution `json:"resolutions,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}
