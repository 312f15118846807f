package service

import (
	"database/sql"
	"encoding/json"
	"log"

	"github.com/openvalley/strmatch-backend-go/internal/models"
	"github.com/openvalley/strmatch-backend-go/internal/repository"
)

// GeoService serves the map layers: parcel boundaries and dwelling points
// as GeoJSON FeatureCollections.
type GeoService struct {
	parcels   *repository.ParcelRepository
	dwellings *repository.DwellingRepository
}

// NewGeoService creates a new geo service
func NewGeoService(db *sql.DB) *GeoService {
	return &GeoService{
		parcels:   repository.NewParcelRepository(db),
		dwellings: repository.NewDwellingRepository(db),
	}
}

// ParcelsGeoJSON returns every parcel with a boundary as a feature.
func (s *GeoService) ParcelsGeoJSON() (*models.GeoJSONFeatureCollection, error) {
	parcels, err := s.parcels.GetAll()
	if err != nil {
		return nil, err
	}

	fc := models.NewFeatureCollection()
	for i := range parcels {
		p := &parcels[i]
		if p.Geometry == "" {
			continue
		}

		var geom models.GeoJSONGeometry
		if err := json.Unmarshal([]byte(p.Geometry), &geom); err != nil {
			log.Printf("Skipping parcel %d with malformed geometry: %v", p.ID, err)
			continue
		}

		fc.Features = append(fc.Features, models.GeoJSONFeature{
			Type:     "Feature",
			Geometry: &geom,
			Properties: map[string]interface{}{
				"id":             p.ID,
				"span":           p.Span,
				"address":        p.Address,
				"town":           p.Town,
				"acres":          p.Acres,
				"assessed_total": p.AssessedTotal,
			},
		})
	}
	return fc, nil
}

// DwellingsGeoJSON returns dwellings as point features at their parcel
// centroid, carrying the review linkage for map styling.
func (s *GeoService) DwellingsGeoJSON() (*models.GeoJSONFeatureCollection, error) {
	dwellings, err := s.dwellings.GetAll()
	if err != nil {
		return nil, err
	}

	parcels, err := s.parcels.GetAll()
	if err != nil {
		return nil, err
	}
	centroids := make(map[int64][2]float64, len(parcels))
	for i := range parcels {
		centroids[parcels[i].ID] = [2]float64{parcels[i].Lng, parcels[i].Lat}
	}

	fc := models.NewFeatureCollection()
	for i := range dwellings {
		d := &dwellings[i]
		c, ok := centroids[d.ParcelID]
		if !ok || (c[0] == 0 && c[1] == 0) {
			continue
		}

		coords, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}

		props := map[string]interface{}{
			"id":              d.ID,
			"parcel_id":       d.ParcelID,
			"use_type":        d.UseType,
			"homestead_filed": d.HomesteadFiled,
		}
		if d.UnitNumber != nil {
			props["unit_number"] = *d.UnitNumber
		}
		if d.STRListingID != nil {
			props["str_listing_id"] = *d.STRListingID
		}

		fc.Features = append(fc.Features, models.GeoJSONFeature{
			Type:       "Feature",
			Geometry:   &models.GeoJSONGeometry{Type: "Point", Coordinates: coords},
			Properties: props,
		})
	}
	return fc, nil
}
