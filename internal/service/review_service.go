package service

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"github.com/openvalley/strmatch-backend-go/internal/database"
	"github.com/openvalley/strmatch-backend-go/internal/match"
	"github.com/openvalley/strmatch-backend-go/internal/models"
	"github.com/openvalley/strmatch-backend-go/internal/repository"
)

// ReviewService drives the curation workflow: queue reads, live candidate
// scoring, and the decision state machine over the append-only log.
type ReviewService struct {
	db        *sql.DB
	listings  *repository.ListingRepository
	dwellings *repository.DwellingRepository
	parcels   *repository.ParcelRepository
	decisions *repository.DecisionRepository
	weights   match.Weights
}

// NewReviewService creates a new review service
func NewReviewService(db *sql.DB, weights match.Weights) *ReviewService {
	return &ReviewService{
		db:        db,
		listings:  repository.NewListingRepository(db),
		dwellings: repository.NewDwellingRepository(db),
		parcels:   repository.NewParcelRepository(db),
		decisions: repository.NewDecisionRepository(db),
		weights:   weights,
	}
}

// GetQueue retrieves the paginated review queue with per-status counts.
func (s *ReviewService) GetQueue(filter models.QueueFilter) (*models.ReviewQueueResponse, error) {
	filter.Normalize()

	items, total, err := s.listings.List(filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.ReviewQueueItem{}
	}

	counts, err := s.listings.CountByStatus()
	if err != nil {
		return nil, err
	}

	return &models.ReviewQueueResponse{
		Items:           items,
		Total:           total,
		UnreviewedCount: counts[models.ReviewUnreviewed],
		ConfirmedCount:  counts[models.ReviewConfirmed],
		RejectedCount:   counts[models.ReviewRejected],
		SkippedCount:    counts[models.ReviewSkipped],
	}, nil
}

// GetDetail retrieves one listing with live-scored candidates, the parcel
// boundary, and the decision history. This is the only read path that
// scores candidates; the queue serves cached summaries.
func (s *ReviewService) GetDetail(id int64) (*models.ReviewDetail, error) {
	item, err := s.listings.GetQueueItem(id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrListingNotFound
	}

	listing, err := s.listings.GetByID(id)
	if err != nil {
		return nil, err
	}

	detail := &models.ReviewDetail{
		Listing:    *item,
		Candidates: []models.CandidateDwelling{},
		History:    []models.ReviewDecision{},
	}

	if listing.ParcelID != nil {
		dwellings, err := s.dwellings.GetByParcel(*listing.ParcelID)
		if err != nil {
			return nil, err
		}

		names, err := s.contendingNames(listing, dwellings)
		if err != nil {
			return nil, err
		}
		detail.Candidates = match.Candidates(listing, dwellings, names, s.weights)

		parcel, err := s.parcels.GetByID(*listing.ParcelID)
		if err != nil {
			return nil, err
		}
		if parcel != nil && parcel.Geometry != "" {
			var geom models.GeoJSONGeometry
			if err := json.Unmarshal([]byte(parcel.Geometry), &geom); err != nil {
				log.Printf("Skipping malformed geometry for parcel %d: %v", parcel.ID, err)
			} else {
				detail.ParcelGeoJSON = &geom
			}
		}
	}

	history, err := s.decisions.GetByListing(id)
	if err != nil {
		return nil, err
	}
	if history != nil {
		detail.History = history
	}

	return detail, nil
}

// contendingNames maps the other confirmed listings linked to the parcel's
// dwellings to their names, for candidate annotation.
func (s *ReviewService) contendingNames(listing *models.STRListing, dwellings []models.Dwelling) (map[int64]string, error) {
	var ids []int64
	for i := range dwellings {
		if match.Contended(listing, &dwellings[i]) {
			ids = append(ids, *dwellings[i].STRListingID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return s.listings.GetNamesByIDs(ids)
}

// Decide validates and applies one curation action on behalf of reviewer,
// returning the updated listing summary. The decision append and the
// cached-state update commit in a single transaction, so the log and the
// cache never diverge on a failure.
func (s *ReviewService) Decide(listingID int64, req *models.DecisionRequest, reviewer string) (*models.ReviewQueueItem, error) {
	listing, err := s.listings.GetByID(listingID)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, ErrListingNotFound
	}

	decision := &models.ReviewDecision{
		ListingID: listingID,
		Action:    req.Action,
		Notes:     req.Notes,
		Reviewer:  reviewer,
	}
	var status string

	switch req.Action {
	case models.ActionConfirm:
		if listing.ParcelID == nil {
			return nil, ErrUnresolvedParcel
		}
		if req.DwellingID == nil {
			return nil, fmt.Errorf("%w: confirm requires dwelling_id", ErrInvalidCandidate)
		}
		// Re-validate membership server-side; the client's candidate list
		// may be stale.
		dwelling, err := s.dwellings.GetByID(*req.DwellingID)
		if err != nil {
			return nil, err
		}
		if dwelling == nil {
			return nil, ErrDwellingNotFound
		}
		if dwelling.ParcelID != *listing.ParcelID {
			return nil, fmt.Errorf("%w: dwelling %d is on parcel %d, not the listing's parcel %d",
				ErrInvalidCandidate, dwelling.ID, dwelling.ParcelID, *listing.ParcelID)
		}
		decision.DwellingID = req.DwellingID
		status = models.ReviewConfirmed

	case models.ActionReject:
		if req.RejectionReason == "" {
			return nil, ErrMissingReason
		}
		if !models.ValidRejectionReason(req.RejectionReason) {
			return nil, fmt.Errorf("%w: unknown reason %q", ErrMissingReason, req.RejectionReason)
		}
		decision.RejectionReason = req.RejectionReason
		status = models.ReviewRejected

	case models.ActionSkip:
		status = models.ReviewSkipped

	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidAction, req.Action)
	}

	err = database.Transaction(s.db, func(tx *sql.Tx) error {
		// Log first: the cached fields are rebuilt from it on recovery.
		if err := s.decisions.Insert(tx, decision); err != nil {
			return err
		}

		affected, err := s.listings.UpdateReviewState(tx, listingID, status, decision.DwellingID, reviewer, req.ExpectedVersion)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrConcurrentModification
		}

		if req.Action == models.ActionConfirm {
			// A confirm moves this listing's link. If the target dwelling
			// was claimed by a different listing, that listing keeps its
			// confirmed status; the contention penalty surfaces the
			// conflict to future reviewers instead of a silent demotion.
			if err := s.dwellings.ClearSTRLinkForListing(tx, listingID); err != nil {
				return err
			}
			return s.dwellings.SetSTRListing(tx, *decision.DwellingID, &listingID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.listings.GetQueueItem(listingID)
}

// RebuildFromLog discards the cached review state and re-derives it from
// the decision log: each listing's cache comes from its latest decision,
// and dwelling links are replayed from every confirm in order, reproducing
// the state the live path would have left. Returns the number of listings
// with restored state.
func (s *ReviewService) RebuildFromLog() (int, error) {
	entries, err := s.decisions.GetAll()
	if err != nil {
		return 0, err
	}

	latest := make(map[int64]models.ReviewDecision)
	for _, d := range entries {
		latest[d.ListingID] = d
	}

	err = database.Transaction(s.db, func(tx *sql.Tx) error {
		if err := s.listings.ResetAllReviewState(tx); err != nil {
			return err
		}
		if err := s.dwellings.ClearAllSTRLinks(tx); err != nil {
			return err
		}

		for _, d := range entries {
			if latest[d.ListingID].ID != d.ID {
				continue
			}
			status, dwellingID := cachedStateFor(d)
			if err := s.listings.ApplyDecisionState(tx, d.ListingID, status, dwellingID, d.Reviewer, d.DecidedAt); err != nil {
				return err
			}
		}

		// Rejects and skips never touch links on the live path, so only
		// confirms are replayed here.
		for _, d := range entries {
			if d.Action != models.ActionConfirm || d.DwellingID == nil {
				continue
			}
			if err := s.dwellings.ClearSTRLinkForListing(tx, d.ListingID); err != nil {
				return err
			}
			listingID := d.ListingID
			if err := s.dwellings.SetSTRListing(tx, *d.DwellingID, &listingID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(latest), nil
}

func cachedStateFor(d models.ReviewDecision) (status string, dwellingID *int64) {
	switch d.Action {
	case models.ActionConfirm:
		return models.ReviewConfirmed, d.DwellingID
	case models.ActionReject:
		return models.ReviewRejected, nil
	case models.ActionSkip:
		return models.ReviewSkipped, nil
	}
	return models.ReviewUnreviewed, nil
}
