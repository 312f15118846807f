package models

import "time"

// STRListing represents a scraped short-term rental listing. The identity
// key is (platform, listing_id); re-imports update attributes in place.
// The parcel and review fields are materialized caches: the append-only
// review_decisions log is the source of truth and can rebuild them.
type STRListing struct {
	ID        int64  `json:"id" db:"id"`
	Platform  string `json:"platform" db:"platform"`     // airbnb, vrbo, other
	ListingID string `json:"listing_id" db:"listing_id"` // Source-stable identifier
	ListingURL string `json:"listing_url,omitempty" db:"listing_url"`
	Name       string `json:"name,omitempty" db:"name"`

	// Advertised location (approximate, often jittered by the platform)
	Lat float64 `json:"lat" db:"lat"`
	Lng float64 `json:"lng" db:"lng"`

	// Advertised attributes
	Bedrooms         *int     `json:"bedrooms,omitempty" db:"bedrooms"` // NULL when not advertised
	MaxGuests        *int     `json:"max_guests,omitempty" db:"max_guests"`
	PricePerNightUSD *int     `json:"price_per_night_usd,omitempty" db:"price_per_night_usd"` // Whole USD
	TotalReviews     int      `json:"total_reviews" db:"total_reviews"`
	AverageRating    *float64 `json:"average_rating,omitempty" db:"average_rating"`
	IsActive         bool     `json:"is_active" db:"is_active"`

	// Spatial match cache, written by ingestion refresh only
	ParcelID               *int64   `json:"parcel_id,omitempty" db:"parcel_id"`
	MatchMethod            string   `json:"match_method,omitempty" db:"match_method"`
	MatchConfidence        *float64 `json:"match_confidence,omitempty" db:"match_confidence"`
	CandidateDwellingCount int      `json:"candidate_dwelling_count" db:"candidate_dwelling_count"`

	// Review cache, written by the decision engine only. DwellingID is the
	// confirmed dwelling from the latest decision.
	ReviewStatus string     `json:"review_status" db:"review_status"`
	DwellingID   *int64     `json:"dwelling_id,omitempty" db:"dwelling_id"`
	ReviewedBy   string     `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty" db:"reviewed_at"`

	// RowVersion increments on every review-state write; clients may send
	// it back as expected_version to detect concurrent curation.
	RowVersion int64 `json:"row_version" db:"row_version"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Platform constants
const (
	PlatformAirbnb = "airbnb"
	PlatformVrbo   = "vrbo"
	PlatformOther  = "other"
)

// MatchMethod constants
const (
	MatchMethodSpatial  = "spatial"          // Point strictly inside exactly one parcel polygon
	MatchMethodOverlap  = "spatial_overlap"  // Point inside overlapping polygons, smallest wins
	MatchMethodCentroid = "spatial_centroid" // Nearest centroid within the fallback radius
	MatchMethodManual   = "manual"
)

// ReviewStatus constants
const (
	ReviewUnreviewed = "unreviewed"
	ReviewConfirmed  = "confirmed"
	ReviewRejected   = "rejected"
	ReviewSkipped    = "skipped"
)

// ValidReviewStatus reports whether s is a known review status.
func ValidReviewStatus(s string) bool {
	switch s {
	case ReviewUnreviewed, ReviewConfirmed, ReviewRejected, ReviewSkipped:
		return true
	}
	return false
}
