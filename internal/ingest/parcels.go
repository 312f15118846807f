package ingest

import (
	"encoding/json"
	"fmt"

	"github.com/openvalley/strmatch-backend-go/internal/models"
	"github.com/openvalley/strmatch-backend-go/internal/spatial"
)

// ParseParcels decodes a parcel GeoJSON FeatureCollection into parcel rows.
// Property names follow the VT Geodata standardized parcel layer (SPAN,
// E911ADDR, ACRESGL, REAL_FLV) with lowercase fallbacks for re-exports.
// Features with no SPAN, or with nothing locatable, are dropped and counted.
func ParseParcels(data []byte) ([]models.Parcel, int, error) {
	var fc models.GeoJSONFeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, 0, fmt.Errorf("decode parcel collection: %w", err)
	}

	var parcels []models.Parcel
	skipped := 0
	for _, f := range fc.Features {
		p, ok := parseParcelFeature(f)
		if !ok {
			skipped++
			continue
		}
		parcels = append(parcels, p)
	}
	return parcels, skipped, nil
}

func parseParcelFeature(f models.GeoJSONFeature) (models.Parcel, bool) {
	props := f.Properties

	span := str(props, "SPAN", "GLIST_SPAN", "span")
	if span == "" {
		return models.Parcel{}, false
	}

	p := models.Parcel{
		Span:    span,
		Address: str(props, "E911ADDR", "address"),
		Town:    str(props, "TOWN", "TNAME", "town"),
	}
	if acres, ok := num(props, "ACRESGL", "acres"); ok {
		p.Acres = acres
	}
	if value, ok := num(props, "REAL_FLV", "assessed_total"); ok {
		p.AssessedTotal = int64(value)
	}

	if f.Geometry != nil {
		raw, err := json.Marshal(f.Geometry)
		if err == nil {
			if polys, perr := spatial.ParseGeometry(raw); perr == nil && len(polys) > 0 {
				p.Geometry = string(raw)
				c := anchorCentroid(polys)
				p.Lat, p.Lng = c.Lat, c.Lng
			}
		}
	}

	// Centroid-only sources carry coordinates as properties.
	if p.Lat == 0 && p.Lng == 0 {
		if lat, ok := num(props, "lat", "latitude"); ok {
			p.Lat = lat
		}
		if lng, ok := num(props, "lng", "longitude"); ok {
			p.Lng = lng
		}
	}

	if p.Geometry == "" && p.Lat == 0 && p.Lng == 0 {
		return models.Parcel{}, false
	}
	return p, true
}

// anchorCentroid picks the centroid of the largest part, the anchor for
// centroid-distance matching of multi-part parcels.
func anchorCentroid(polys []spatial.Polygon) spatial.Point {
	best := 0
	bestArea := -1.0
	for i, pg := range polys {
		if a := pg.Area(); a > bestArea {
			bestArea = a
			best = i
		}
	}
	return polys[best].Centroid()
}
