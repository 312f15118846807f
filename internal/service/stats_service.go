package service

import (
	"database/sql"

	"github.com/openvalley/strmatch-backend-go/internal/models"
	"github.com/openvalley/strmatch-backend-go/internal/repository"
	"github.com/openvalley/strmatch-backend-go/internal/stats"
)

// StatsService computes progress and inventory aggregates. Everything is
// recomputed from the database on each call so a decision shows up in the
// very next stats read.
type StatsService struct {
	parcels   *repository.ParcelRepository
	dwellings *repository.DwellingRepository
	listings  *repository.ListingRepository
}

// NewStatsService creates a new stats service
func NewStatsService(db *sql.DB) *StatsService {
	return &StatsService{
		parcels:   repository.NewParcelRepository(db),
		dwellings: repository.NewDwellingRepository(db),
		listings:  repository.NewListingRepository(db),
	}
}

// GetReviewStats summarizes curation progress over the whole queue.
func (s *StatsService) GetReviewStats() (*models.ReviewStats, error) {
	counts, err := s.listings.CountByStatus()
	if err != nil {
		return nil, err
	}

	matched, err := s.listings.CountMatched()
	if err != nil {
		return nil, err
	}

	st := &models.ReviewStats{
		MatchedToParcel: matched,
		Unreviewed:      counts[models.ReviewUnreviewed],
		Confirmed:       counts[models.ReviewConfirmed],
		Rejected:        counts[models.ReviewRejected],
		Skipped:         counts[models.ReviewSkipped],
	}
	st.TotalListings = st.Unreviewed + st.Confirmed + st.Rejected + st.Skipped

	// Completion is 100 exactly when nothing is unreviewed; an empty queue
	// counts as done. Rounding must not fake 100 with work remaining.
	if st.Unreviewed == 0 {
		st.CompletionPercent = 100.0
	} else {
		reviewed := st.TotalListings - st.Unreviewed
		pct := stats.RoundTo(stats.Percent(reviewed, st.TotalListings), 1)
		if pct >= 100 {
			pct = 99.9
		}
		st.CompletionPercent = pct
	}

	return st, nil
}

// GetDashboardStats aggregates entity counts for the public dashboard.
func (s *StatsService) GetDashboardStats() (*models.DashboardStats, error) {
	parcelTotal, assessed, err := s.parcels.Stats()
	if err != nil {
		return nil, err
	}

	dwellingTotal, homestead, nhsResidential, err := s.dwellings.Stats()
	if err != nil {
		return nil, err
	}

	counts, err := s.listings.CountByStatus()
	if err != nil {
		return nil, err
	}
	listingTotal := 0
	for _, n := range counts {
		listingTotal += n
	}

	active, err := s.listings.CountActive()
	if err != nil {
		return nil, err
	}

	linked, err := s.dwellings.CountLinked()
	if err != nil {
		return nil, err
	}

	avgPrice, err := s.listings.AvgActivePrice()
	if err != nil {
		return nil, err
	}
	if avgPrice != nil {
		rounded := stats.RoundTo(*avgPrice, 1)
		avgPrice = &rounded
	}

	var medianPrice *float64
	prices, err := s.listings.ActivePrices()
	if err != nil {
		return nil, err
	}
	if len(prices) > 0 {
		m := stats.RoundTo(stats.Median(prices), 1)
		medianPrice = &m
	}

	return &models.DashboardStats{
		Parcels: models.ParcelStats{
			Total:              parcelTotal,
			TotalAssessedValue: assessed,
		},
		Dwellings: models.DwellingStats{
			Total:                   dwellingTotal,
			Homestead:               homestead,
			HomesteadPercent:        stats.RoundTo(stats.Percent(homestead, dwellingTotal), 1),
			NonHomesteadResidential: nhsResidential,
			NonHomesteadPercent:     stats.RoundTo(stats.Percent(nhsResidential, dwellingTotal), 1),
		},
		Listings: models.ListingStats{
			Total:             listingTotal,
			Active:            active,
			LinkedDwellings:   linked,
			AverageNightlyUSD: avgPrice,
			MedianNightlyUSD:  medianPrice,
		},
	}, nil
}
