package service

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/openvalley/strmatch-backend-go/internal/ingest"
	"github.com/openvalley/strmatch-backend-go/internal/match"
	"github.com/openvalley/strmatch-backend-go/internal/models"
	"github.com/openvalley/strmatch-backend-go/internal/repository"
	"github.com/openvalley/strmatch-backend-go/internal/spatial"
)

// ImportSummary counts one import pass.
type ImportSummary struct {
	Created int
	Updated int
	Skipped int
}

// RefreshSummary counts one spatial refresh pass over the listings.
type RefreshSummary struct {
	Matched   int
	Unmatched int
	Manual    int // left untouched
	ByMethod  map[string]int
}

// IngestService loads external data files and maintains the spatial match
// cache. It is driven by the importer CLI, not the HTTP API.
type IngestService struct {
	parcels   *repository.ParcelRepository
	dwellings *repository.DwellingRepository
	listings  *repository.ListingRepository
	radius    float64
}

// NewIngestService creates a new ingest service. radiusMeters bounds the
// centroid fallback during refresh; zero or negative means the default.
func NewIngestService(db *sql.DB, radiusMeters float64) *IngestService {
	return &IngestService{
		parcels:   repository.NewParcelRepository(db),
		dwellings: repository.NewDwellingRepository(db),
		listings:  repository.NewListingRepository(db),
		radius:    radiusMeters,
	}
}

// ImportListings upserts scraped listings from a JSON export. Identity is
// (platform, listing_id); review and match state are never touched here.
func (s *IngestService) ImportListings(path string) (*ImportSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read listings file: %w", err)
	}

	raws, skipped, err := ingest.ParseFile(data)
	if err != nil {
		return nil, err
	}

	summary := &ImportSummary{Skipped: skipped}
	for _, raw := range raws {
		l := &models.STRListing{
			Platform:         raw.Platform,
			ListingID:        raw.ListingID,
			ListingURL:       raw.ListingURL,
			Name:             raw.Name,
			Lat:              raw.Lat,
			Lng:              raw.Lng,
			Bedrooms:         raw.Bedrooms,
			MaxGuests:        raw.MaxGuests,
			PricePerNightUSD: raw.PricePerNightUSD,
			TotalReviews:     raw.TotalReviews,
			AverageRating:    raw.AverageRating,
			IsActive:         true,
		}

		existing, err := s.listings.GetByPlatformID(l.Platform, l.ListingID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			if err := s.listings.Insert(l); err != nil {
				return nil, err
			}
			summary.Created++
		} else {
			l.ID = existing.ID
			if err := s.listings.UpdateAttributes(l); err != nil {
				return nil, err
			}
			summary.Updated++
		}
	}
	return summary, nil
}

// ImportParcels upserts the grand-list parcels from a GeoJSON file.
func (s *IngestService) ImportParcels(path string) (*ImportSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read parcel file: %w", err)
	}

	parcels, skipped, err := ingest.ParseParcels(data)
	if err != nil {
		return nil, err
	}

	summary := &ImportSummary{Skipped: skipped}
	for i := range parcels {
		p := &parcels[i]

		existing, err := s.parcels.GetBySpan(p.Span)
		if err != nil {
			return nil, err
		}
		if err := s.parcels.Upsert(p); err != nil {
			return nil, err
		}
		if existing == nil {
			summary.Created++
		} else {
			summary.Updated++
		}
	}
	return summary, nil
}

// ImportDwellings loads the dwelling hand-off. Rows are keyed by
// (SPAN, unit_number); re-imports update attributes in place and keep any
// confirmed-listing links. Records naming an unknown SPAN are skipped.
func (s *IngestService) ImportDwellings(path string) (*ImportSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dwelling file: %w", err)
	}

	records, skipped, err := ingest.ParseDwellings(data)
	if err != nil {
		return nil, err
	}

	summary := &ImportSummary{Skipped: skipped}
	for _, rec := range records {
		parcel, err := s.parcels.GetBySpan(rec.Span)
		if err != nil {
			return nil, err
		}
		if parcel == nil {
			log.Printf("Skipping dwelling for unknown SPAN %s", rec.Span)
			summary.Skipped++
			continue
		}

		existing, err := s.dwellings.GetByParcelAndUnit(parcel.ID, rec.UnitNumber)
		if err != nil {
			return nil, err
		}

		d := &models.Dwelling{
			ParcelID:          parcel.ID,
			UnitNumber:        rec.UnitNumber,
			Bedrooms:          rec.Bedrooms,
			UseType:           rec.UseType,
			TaxClassification: rec.TaxClassification,
			HomesteadFiled:    rec.HomesteadFiled,
		}
		if existing == nil {
			if err := s.dwellings.Insert(d); err != nil {
				return nil, err
			}
			summary.Created++
		} else {
			d.ID = existing.ID
			if err := s.dwellings.UpdateAttributes(d); err != nil {
				return nil, err
			}
			summary.Updated++
		}
	}
	return summary, nil
}

// RefreshMatches re-runs parcel assignment for every listing against the
// current parcel set. Manual assignments are preserved; review status is
// never touched.
func (s *IngestService) RefreshMatches() (*RefreshSummary, error) {
	idx, err := s.buildIndex()
	if err != nil {
		return nil, err
	}

	listings, err := s.listings.GetAll()
	if err != nil {
		return nil, err
	}

	summary := &RefreshSummary{ByMethod: make(map[string]int)}
	for i := range listings {
		l := &listings[i]
		if l.MatchMethod == models.MatchMethodManual {
			summary.Manual++
			continue
		}

		m, ok := idx.Locate(l.Lat, l.Lng)
		if !ok {
			if err := s.listings.UpdateSpatialMatch(l.ID, nil, "", nil, 0); err != nil {
				return nil, err
			}
			summary.Unmatched++
			continue
		}

		count, err := s.dwellings.CountByParcel(m.ParcelID)
		if err != nil {
			return nil, err
		}
		confidence := m.Confidence
		if err := s.listings.UpdateSpatialMatch(l.ID, &m.ParcelID, m.Method, &confidence, count); err != nil {
			return nil, err
		}
		summary.Matched++
		summary.ByMethod[m.Method]++
	}
	return summary, nil
}

// buildIndex loads every parcel into a spatial index. Parcels whose stored
// geometry no longer parses degrade to centroid-only matching.
func (s *IngestService) buildIndex() (*match.Index, error) {
	parcels, err := s.parcels.GetAll()
	if err != nil {
		return nil, err
	}

	geoms := make([]match.ParcelGeometry, 0, len(parcels))
	for i := range parcels {
		p := &parcels[i]
		g := match.ParcelGeometry{
			ID:       p.ID,
			Centroid: spatial.Point{Lat: p.Lat, Lng: p.Lng},
		}
		if p.Geometry != "" {
			polys, err := spatial.ParseGeometry([]byte(p.Geometry))
			if err != nil {
				log.Printf("Parcel %d geometry unusable, centroid only: %v", p.ID, err)
			} else {
				g.Polygons = polys
			}
		}
		geoms = append(geoms, g)
	}

	return match.NewIndex(geoms, s.radius), nil
}
