package models

import "time"

// Dwelling represents a single habitable unit on a parcel. Dwellings are
// imported from the property-data pipeline; the only field this service
// writes is STRListingID, the confirmed listing back-reference.
type Dwelling struct {
	ID       int64 `json:"id" db:"id"`
	ParcelID int64 `json:"parcel_id" db:"parcel_id"`

	// Unit attributes
	UnitNumber *string `json:"unit_number,omitempty" db:"unit_number"` // NULL for single-unit parcels
	Bedrooms   *int    `json:"bedrooms,omitempty" db:"bedrooms"`       // NULL when unknown
	UseType    string  `json:"use_type" db:"use_type"`                 // full_time_residence, short_term_rental, ...

	// Tax attributes
	TaxClassification string `json:"tax_classification,omitempty" db:"tax_classification"` // HOMESTEAD, NHS_RESIDENTIAL, NHS_NONRESIDENTIAL
	HomesteadFiled    bool   `json:"homestead_filed" db:"homestead_filed"`

	// STRListingID is set when a reviewer confirms a listing onto this
	// dwelling. At most one listing holds the link at a time.
	STRListingID *int64 `json:"str_listing_id,omitempty" db:"str_listing_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// UseType constants
const (
	UseFullTimeResidence = "full_time_residence"
	UseShortTermRental   = "short_term_rental"
	UseSecondHome        = "second_home"
	UseVacant            = "vacant"
	UseSeasonal          = "seasonal"
	UseCommercial        = "commercial"
	UseUnknown           = "unknown"
)

// TaxClassification constants
const (
	TaxHomestead         = "HOMESTEAD"
	TaxNHSResidential    = "NHS_RESIDENTIAL"
	TaxNHSNonResidential = "NHS_NONRESIDENTIAL"
)
