package models

// ReviewStats summarizes curation progress. Computed from the listings
// table on every call; the status counts always sum to TotalListings.
type ReviewStats struct {
	TotalListings   int `json:"total_listings"`
	MatchedToParcel int `json:"matched_to_parcel"`

	Unreviewed int `json:"unreviewed"`
	Confirmed  int `json:"confirmed"`
	Rejected   int `json:"rejected"`
	Skipped    int `json:"skipped"`

	// CompletionPercent is (confirmed+rejected+skipped)/total*100 rounded
	// to 0.1. An empty set counts as fully reviewed (100.0).
	CompletionPercent float64 `json:"completion_percent"`
}

// DashboardStats aggregates entity counts for the public dashboard.
type DashboardStats struct {
	Parcels   ParcelStats   `json:"parcels"`
	Dwellings DwellingStats `json:"dwellings"`
	Listings  ListingStats  `json:"str_listings"`
}

// ParcelStats summarizes the imported grand list.
type ParcelStats struct {
	Total              int   `json:"total"`
	TotalAssessedValue int64 `json:"total_assessed_value"` // Whole USD
}

// DwellingStats summarizes dwelling stock by tax status.
type DwellingStats struct {
	Total                   int     `json:"total"`
	Homestead               int     `json:"homestead"`
	HomesteadPercent        float64 `json:"homestead_percent"`
	NonHomesteadResidential int     `json:"non_homestead_residential"`
	NonHomesteadPercent     float64 `json:"non_homestead_percent"`
}

// ListingStats summarizes the scraped STR inventory. The price aggregates
// cover active listings that advertise a price; both are nil when none do.
type ListingStats struct {
	Total             int      `json:"total"`
	Active            int      `json:"active"`
	LinkedDwellings   int      `json:"linked_dwellings"` // Dwellings with a confirmed listing
	AverageNightlyUSD *float64 `json:"average_nightly_usd,omitempty"`
	MedianNightlyUSD  *float64 `json:"median_nightly_usd,omitempty"`
}
