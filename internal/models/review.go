package models

import "time"

// ReviewDecision is one append-only entry in the curation audit log. Rows
// are never updated or deleted; a correction is a newer row for the same
// listing. The listing's cached review fields are derived from the latest
// entry.
type ReviewDecision struct {
	ID        int64  `json:"id" db:"id"`
	ListingID int64  `json:"listing_id" db:"listing_id"`
	Action    string `json:"action" db:"action"` // confirm, reject, skip

	DwellingID      *int64 `json:"dwelling_id,omitempty" db:"dwelling_id"`           // Required for confirm
	RejectionReason string `json:"rejection_reason,omitempty" db:"rejection_reason"` // Required for reject
	Notes           string `json:"notes,omitempty" db:"notes"`

	Reviewer  string    `json:"reviewer" db:"reviewer"` // Opaque identity from the auth layer
	DecidedAt time.Time `json:"decided_at" db:"decided_at"`
}

// DecisionAction constants
const (
	ActionConfirm = "confirm"
	ActionReject  = "reject"
	ActionSkip    = "skip"
)

// RejectionReason constants
const (
	ReasonNotSTR             = "not_str"
	ReasonDuplicate          = "duplicate"
	ReasonWrongLocation      = "wrong_location"
	ReasonNoMatchingDwelling = "no_matching_dwelling"
	ReasonOther              = "other"
)

// ValidRejectionReason reports whether r is in the closed reason set.
func ValidRejectionReason(r string) bool {
	switch r {
	case ReasonNotSTR, ReasonDuplicate, ReasonWrongLocation, ReasonNoMatchingDwelling, ReasonOther:
		return true
	}
	return false
}

// DecisionRequest is the body of PUT /str-review/:id/decision.
// ExpectedVersion is optional optimistic-concurrency protection: when set,
// the decision only applies if the listing's row_version still matches.
type DecisionRequest struct {
	Action          string `json:"action" binding:"required"`
	DwellingID      *int64 `json:"dwelling_id"`
	RejectionReason string `json:"rejection_reason"`
	Notes           string `json:"notes"`
	ExpectedVersion *int64 `json:"expected_version"`
}

// CandidateDwelling is a dwelling on the listing's matched parcel together
// with its live match score. Computed on each detail fetch, never persisted.
type CandidateDwelling struct {
	ID                int64   `json:"id"`
	UnitNumber        *string `json:"unit_number,omitempty"`
	UseType           string  `json:"use_type"`
	Bedrooms          *int    `json:"bedrooms,omitempty"`
	TaxClassification string  `json:"tax_classification,omitempty"`
	HomesteadFiled    bool    `json:"homestead_filed"`

	// Contention: the listing currently confirmed onto this dwelling, if any
	ExistingSTRID   *int64 `json:"existing_str_id,omitempty"`
	ExistingSTRName string `json:"existing_str_name,omitempty"`

	MatchScore float64 `json:"match_score"`
}

// ReviewQueueItem is the flattened listing summary served by the queue and
// decision endpoints. Parcel fields are joined in; no live scoring happens
// at this level.
type ReviewQueueItem struct {
	ID         int64  `json:"id"`
	Platform   string `json:"platform"`
	ListingID  string `json:"listing_id"`
	Name       string `json:"name,omitempty"`
	ListingURL string `json:"listing_url,omitempty"`

	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`

	Bedrooms         *int     `json:"bedrooms,omitempty"`
	MaxGuests        *int     `json:"max_guests,omitempty"`
	PricePerNightUSD *int     `json:"price_per_night_usd,omitempty"`
	TotalReviews     int      `json:"total_reviews"`
	AverageRating    *float64 `json:"average_rating,omitempty"`

	ParcelID        *int64   `json:"parcel_id,omitempty"`
	ParcelSpan      string   `json:"parcel_span,omitempty"`
	ParcelAddress   string   `json:"parcel_address,omitempty"`
	MatchMethod     string   `json:"match_method,omitempty"`
	MatchConfidence *float64 `json:"match_confidence,omitempty"`

	ReviewStatus           string     `json:"review_status"`
	DwellingID             *int64     `json:"dwelling_id,omitempty"` // From the latest confirm
	CandidateDwellingCount int        `json:"candidate_dwelling_count"`
	ReviewedBy             string     `json:"reviewed_by,omitempty"`
	ReviewedAt             *time.Time `json:"reviewed_at,omitempty"`
	RowVersion             int64      `json:"row_version"`
}

// ReviewQueueResponse is the paginated queue payload with per-status counts
// so the review UI can render progress tabs without a second request.
type ReviewQueueResponse struct {
	Items []ReviewQueueItem `json:"items"`
	Total int               `json:"total"` // Total matching the filter, not the page

	UnreviewedCount int `json:"unreviewed_count"`
	ConfirmedCount  int `json:"confirmed_count"`
	RejectedCount   int `json:"rejected_count"`
	SkippedCount    int `json:"skipped_count"`
}

// ReviewDetail is the single-listing payload: the summary, the live-scored
// candidates on its parcel, the parcel boundary for the map, and the
// listing's decision history. History matters because every review state is
// re-enterable; a curator re-opening a skip wants the earlier notes.
type ReviewDetail struct {
	Listing       ReviewQueueItem     `json:"listing"`
	Candidates    []CandidateDwelling `json:"candidates"`
	ParcelGeoJSON *GeoJSONGeometry    `json:"parcel_geojson"` // null when unmatched or no boundary
	History       []ReviewDecision    `json:"history"`
}
