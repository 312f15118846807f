package models

import "time"

// Parcel represents a land parcel from the grand list. Parcels are imported
// from the property-data pipeline and treated as read-only here.
type Parcel struct {
	ID   int64  `json:"id" db:"id"`
	Span string `json:"span" db:"span"` // State parcel identifier (SPAN), unique

	// Location
	Address string `json:"address,omitempty" db:"address"`
	Town    string `json:"town,omitempty" db:"town"`
	Lat     float64 `json:"lat" db:"lat"` // Centroid latitude
	Lng     float64 `json:"lng" db:"lng"` // Centroid longitude

	// Assessment
	Acres         float64 `json:"acres,omitempty" db:"acres"`
	AssessedTotal int64   `json:"assessed_total,omitempty" db:"assessed_total"` // Whole USD

	// Geometry is the parcel boundary as a GeoJSON Polygon or MultiPolygon
	// geometry object, stored as JSON text. Empty when only a centroid is known.
	Geometry string `json:"-" db:"geometry"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
