package service

import (
	"database/sql"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/openvalley/strmatch-backend-go/internal/database"
	"github.com/openvalley/strmatch-backend-go/internal/match"
	"github.com/openvalley/strmatch-backend-go/internal/models"
	"github.com/openvalley/strmatch-backend-go/internal/repository"
)

const squareGeoJSON = `{"type":"Polygon","coordinates":[[[-72.501,44.499],[-72.499,44.499],[-72.499,44.501],[-72.501,44.501],[-72.501,44.499]]]}`

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.NewMigrationManager(db).RunMigrations(); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return db
}

func intPtr(v int) *int             { return &v }
func int64Ptr(v int64) *int64       { return &v }
func float64Ptr(v float64) *float64 { return &v }

type fixture struct {
	db        *sql.DB
	parcels   *repository.ParcelRepository
	dwellings *repository.DwellingRepository
	listings  *repository.ListingRepository
	decisions *repository.DecisionRepository
	review    *ReviewService
	stats     *StatsService
}

func newFixture(t *testing.T) *fixture {
	db := newTestDB(t)
	return &fixture{
		db:        db,
		parcels:   repository.NewParcelRepository(db),
		dwellings: repository.NewDwellingRepository(db),
		listings:  repository.NewListingRepository(db),
		decisions: repository.NewDecisionRepository(db),
		review:    NewReviewService(db, match.DefaultWeights()),
		stats:     NewStatsService(db),
	}
}

func (f *fixture) seedParcel(t *testing.T, span, geometry string) *models.Parcel {
	t.Helper()

	p := &models.Parcel{
		Span:          span,
		Address:       "12 Maple Ln",
		Town:          "Greensboro",
		Lat:           44.5,
		Lng:           -72.5,
		Acres:         1.2,
		AssessedTotal: 310000,
		Geometry:      geometry,
	}
	if err := f.parcels.Upsert(p); err != nil {
		t.Fatalf("upsert parcel: %v", err)
	}
	return p
}

func (f *fixture) seedDwelling(t *testing.T, parcelID int64, bedrooms int, useType string) *models.Dwelling {
	t.Helper()

	d := &models.Dwelling{
		ParcelID: parcelID,
		Bedrooms: intPtr(bedrooms),
		UseType:  useType,
	}
	if err := f.dwellings.Insert(d); err != nil {
		t.Fatalf("insert dwelling: %v", err)
	}
	return d
}

// seedListing creates a listing, optionally matched to a parcel with full
// spatial confidence.
func (f *fixture) seedListing(t *testing.T, listingID string, bedrooms int, parcelID *int64) *models.STRListing {
	t.Helper()

	l := &models.STRListing{
		Platform:  models.PlatformAirbnb,
		ListingID: listingID,
		Name:      "Listing " + listingID,
		Lat:       44.5,
		Lng:       -72.5,
		Bedrooms:  intPtr(bedrooms),
		IsActive:  true,
	}
	if err := f.listings.Insert(l); err != nil {
		t.Fatalf("insert listing: %v", err)
	}
	if parcelID != nil {
		if err := f.listings.UpdateSpatialMatch(l.ID, parcelID, models.MatchMethodSpatial, float64Ptr(1.0), 1); err != nil {
			t.Fatalf("match listing: %v", err)
		}
	}
	return l
}

// Full pass through the happy path: a listing strictly inside a parcel with
// one perfectly matching dwelling is scored at 1.0, confirmed, linked, and
// reflected in the stats.
func TestConfirmScenario(t *testing.T) {
	f := newFixture(t)

	p := f.seedParcel(t, "123-038-11290", squareGeoJSON)
	d := f.seedDwelling(t, p.ID, 2, models.UseShortTermRental)
	l := f.seedListing(t, "31415", 2, &p.ID)

	detail, err := f.review.GetDetail(l.ID)
	if err != nil {
		t.Fatalf("GetDetail: %v", err)
	}
	if len(detail.Candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(detail.Candidates))
	}
	if detail.Candidates[0].ID != d.ID {
		t.Errorf("expected candidate %d, got %d", d.ID, detail.Candidates[0].ID)
	}
	if math.Abs(detail.Candidates[0].MatchScore-1.0) > 1e-9 {
		t.Errorf("expected score 1.0 for a perfect match, got %v", detail.Candidates[0].MatchScore)
	}
	if detail.ParcelGeoJSON == nil {
		t.Error("expected parcel geometry in detail")
	} else if detail.ParcelGeoJSON.Type != "Polygon" {
		t.Errorf("expected Polygon geometry, got %q", detail.ParcelGeoJSON.Type)
	}

	item, err := f.review.Decide(l.ID, &models.DecisionRequest{
		Action:     models.ActionConfirm,
		DwellingID: &d.ID,
	}, "casey")
	if err != nil {
		t.Fatalf("Decide confirm: %v", err)
	}
	if item.ReviewStatus != models.ReviewConfirmed {
		t.Errorf("expected confirmed, got %q", item.ReviewStatus)
	}
	if item.DwellingID == nil || *item.DwellingID != d.ID {
		t.Errorf("expected cached dwelling %d, got %v", d.ID, item.DwellingID)
	}
	if item.ReviewedBy != "casey" {
		t.Errorf("expected reviewer casey, got %q", item.ReviewedBy)
	}

	linked, err := f.dwellings.GetByID(d.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if linked.STRListingID == nil || *linked.STRListingID != l.ID {
		t.Fatalf("expected dwelling linked to %d, got %v", l.ID, linked.STRListingID)
	}

	st, err := f.stats.GetReviewStats()
	if err != nil {
		t.Fatalf("GetReviewStats: %v", err)
	}
	if st.Confirmed != 1 || st.Unreviewed != 0 {
		t.Errorf("expected confirmed=1 unreviewed=0, got confirmed=%d unreviewed=%d", st.Confirmed, st.Unreviewed)
	}
	if st.CompletionPercent != 100.0 {
		t.Errorf("expected completion 100.0, got %v", st.CompletionPercent)
	}
}

// A listing with no resolved parcel has no candidates and cannot be
// confirmed; reject and skip remain available.
func TestUnmatchedListingScenario(t *testing.T) {
	f := newFixture(t)

	l := f.seedListing(t, "31415", 2, nil)

	detail, err := f.review.GetDetail(l.ID)
	if err != nil {
		t.Fatalf("GetDetail: %v", err)
	}
	if len(detail.Candidates) != 0 {
		t.Errorf("expected no candidates, got %d", len(detail.Candidates))
	}
	if detail.ParcelGeoJSON != nil {
		t.Error("expected nil parcel geometry for unmatched listing")
	}

	_, err = f.review.Decide(l.ID, &models.DecisionRequest{
		Action:     models.ActionConfirm,
		DwellingID: int64Ptr(1),
	}, "casey")
	if !errors.Is(err, ErrUnresolvedParcel) {
		t.Errorf("expected ErrUnresolvedParcel, got %v", err)
	}

	item, err := f.review.Decide(l.ID, &models.DecisionRequest{
		Action:          models.ActionReject,
		RejectionReason: models.ReasonWrongLocation,
	}, "casey")
	if err != nil {
		t.Fatalf("Decide reject: %v", err)
	}
	if item.ReviewStatus != models.ReviewRejected {
		t.Errorf("expected rejected, got %q", item.ReviewStatus)
	}
}

func TestDecideValidation(t *testing.T) {
	f := newFixture(t)

	p := f.seedParcel(t, "123-038-11290", "")
	other := f.seedParcel(t, "123-038-11291", "")
	f.seedDwelling(t, p.ID, 2, models.UseShortTermRental)
	foreign := f.seedDwelling(t, other.ID, 2, models.UseShortTermRental)
	l := f.seedListing(t, "31415", 2, &p.ID)

	cases := []struct {
		name string
		id   int64
		req  models.DecisionRequest
		want error
	}{
		{"unknown listing", l.ID + 999, models.DecisionRequest{Action: models.ActionSkip}, ErrListingNotFound},
		{"confirm without dwelling", l.ID, models.DecisionRequest{Action: models.ActionConfirm}, ErrInvalidCandidate},
		{"confirm unknown dwelling", l.ID, models.DecisionRequest{Action: models.ActionConfirm, DwellingID: int64Ptr(9999)}, ErrDwellingNotFound},
		{"confirm dwelling on other parcel", l.ID, models.DecisionRequest{Action: models.ActionConfirm, DwellingID: &foreign.ID}, ErrInvalidCandidate},
		{"reject without reason", l.ID, models.DecisionRequest{Action: models.ActionReject}, ErrMissingReason},
		{"reject with unknown reason", l.ID, models.DecisionRequest{Action: models.ActionReject, RejectionReason: "vibes"}, ErrMissingReason},
		{"unknown action", l.ID, models.DecisionRequest{Action: "promote"}, ErrInvalidAction},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.review.Decide(tc.id, &tc.req, "casey")
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}

	// Failed decisions leave no log entries behind.
	count, err := f.decisions.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 0 {
		t.Errorf("expected empty decision log after failed decisions, got %d", count)
	}
}

// Every state is re-enterable; each action lands exactly its own status and
// appends to the log.
func TestStateMachineReEntry(t *testing.T) {
	f := newFixture(t)

	p := f.seedParcel(t, "123-038-11290", "")
	d := f.seedDwelling(t, p.ID, 2, models.UseShortTermRental)
	l := f.seedListing(t, "31415", 2, &p.ID)

	steps := []struct {
		req  models.DecisionRequest
		want string
	}{
		{models.DecisionRequest{Action: models.ActionConfirm, DwellingID: &d.ID}, models.ReviewConfirmed},
		{models.DecisionRequest{Action: models.ActionReject, RejectionReason: models.ReasonNotSTR}, models.ReviewRejected},
		{models.DecisionRequest{Action: models.ActionSkip}, models.ReviewSkipped},
		{models.DecisionRequest{Action: models.ActionConfirm, DwellingID: &d.ID}, models.ReviewConfirmed},
		{models.DecisionRequest{Action: models.ActionConfirm, DwellingID: &d.ID}, models.ReviewConfirmed},
	}

	for i, step := range steps {
		item, err := f.review.Decide(l.ID, &step.req, "casey")
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if item.ReviewStatus != step.want {
			t.Errorf("step %d: expected %q, got %q", i, step.want, item.ReviewStatus)
		}
	}

	count, err := f.decisions.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != len(steps) {
		t.Errorf("expected %d log entries, got %d", len(steps), count)
	}

	detail, err := f.review.GetDetail(l.ID)
	if err != nil {
		t.Fatalf("GetDetail: %v", err)
	}
	if len(detail.History) != len(steps) {
		t.Fatalf("expected %d history entries, got %d", len(steps), len(detail.History))
	}
	if detail.History[0].Action != models.ActionConfirm || detail.History[2].Action != models.ActionSkip {
		t.Error("expected history in applied order")
	}
}

func TestDecideVersionConflict(t *testing.T) {
	f := newFixture(t)

	l := f.seedListing(t, "31415", 2, nil)

	_, err := f.review.Decide(l.ID, &models.DecisionRequest{
		Action:          models.ActionSkip,
		ExpectedVersion: int64Ptr(0),
	}, "casey")
	if err != nil {
		t.Fatalf("Decide with current version: %v", err)
	}

	_, err = f.review.Decide(l.ID, &models.DecisionRequest{
		Action:          models.ActionReject,
		RejectionReason: models.ReasonDuplicate,
		ExpectedVersion: int64Ptr(0),
	}, "robin")
	if !errors.Is(err, ErrConcurrentModification) {
		t.Fatalf("expected ErrConcurrentModification, got %v", err)
	}

	// The conflicting decision rolled back entirely: one log entry, state
	// still from the first decision.
	count, err := f.decisions.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 log entry after conflict, got %d", count)
	}
	got, err := f.listings.GetByID(l.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ReviewStatus != models.ReviewSkipped {
		t.Errorf("expected skipped, got %q", got.ReviewStatus)
	}
}

// Confirming a dwelling already claimed by another listing moves the link;
// the displaced listing keeps its confirmed status and the conflict shows
// up as contention for subsequent reviewers.
func TestConfirmDisplacesExistingLink(t *testing.T) {
	f := newFixture(t)

	p := f.seedParcel(t, "123-038-11290", "")
	d := f.seedDwelling(t, p.ID, 2, models.UseShortTermRental)
	first := f.seedListing(t, "1", 2, &p.ID)
	second := f.seedListing(t, "2", 2, &p.ID)
	third := f.seedListing(t, "3", 2, &p.ID)

	if _, err := f.review.Decide(first.ID, &models.DecisionRequest{Action: models.ActionConfirm, DwellingID: &d.ID}, "casey"); err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	if _, err := f.review.Decide(second.ID, &models.DecisionRequest{Action: models.ActionConfirm, DwellingID: &d.ID}, "robin"); err != nil {
		t.Fatalf("second confirm: %v", err)
	}

	linked, err := f.dwellings.GetByID(d.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if linked.STRListingID == nil || *linked.STRListingID != second.ID {
		t.Fatalf("expected dwelling linked to %d, got %v", second.ID, linked.STRListingID)
	}

	displaced, err := f.listings.GetByID(first.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if displaced.ReviewStatus != models.ReviewConfirmed {
		t.Errorf("displaced listing should stay confirmed, got %q", displaced.ReviewStatus)
	}

	detail, err := f.review.GetDetail(third.ID)
	if err != nil {
		t.Fatalf("GetDetail: %v", err)
	}
	if len(detail.Candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(detail.Candidates))
	}
	c := detail.Candidates[0]
	if c.ExistingSTRID == nil || *c.ExistingSTRID != second.ID {
		t.Errorf("expected contention with %d, got %v", second.ID, c.ExistingSTRID)
	}
	if c.ExistingSTRName != "Listing 2" {
		t.Errorf("expected contending name annotation, got %q", c.ExistingSTRName)
	}
}

// Re-confirming a listing onto a different dwelling moves its link rather
// than leaving it on both dwellings.
func TestConfirmMovesLinkBetweenDwellings(t *testing.T) {
	f := newFixture(t)

	p := f.seedParcel(t, "123-038-11290", "")
	d1 := f.seedDwelling(t, p.ID, 2, models.UseShortTermRental)
	d2 := f.seedDwelling(t, p.ID, 2, models.UseSecondHome)
	l := f.seedListing(t, "31415", 2, &p.ID)

	if _, err := f.review.Decide(l.ID, &models.DecisionRequest{Action: models.ActionConfirm, DwellingID: &d1.ID}, "casey"); err != nil {
		t.Fatalf("confirm d1: %v", err)
	}
	if _, err := f.review.Decide(l.ID, &models.DecisionRequest{Action: models.ActionConfirm, DwellingID: &d2.ID}, "casey"); err != nil {
		t.Fatalf("confirm d2: %v", err)
	}

	old, err := f.dwellings.GetByID(d1.ID)
	if err != nil {
		t.Fatalf("GetByID d1: %v", err)
	}
	if old.STRListingID != nil {
		t.Errorf("expected old dwelling unlinked, got %v", *old.STRListingID)
	}

	current, err := f.dwellings.GetByID(d2.ID)
	if err != nil {
		t.Fatalf("GetByID d2: %v", err)
	}
	if current.STRListingID == nil || *current.STRListingID != l.ID {
		t.Errorf("expected new dwelling linked to %d, got %v", l.ID, current.STRListingID)
	}
}

func TestGetQueue(t *testing.T) {
	f := newFixture(t)

	p := f.seedParcel(t, "123-038-11290", "")
	d := f.seedDwelling(t, p.ID, 2, models.UseShortTermRental)
	l1 := f.seedListing(t, "1", 2, &p.ID)
	f.seedListing(t, "2", 3, nil)

	if _, err := f.review.Decide(l1.ID, &models.DecisionRequest{Action: models.ActionConfirm, DwellingID: &d.ID}, "casey"); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	resp, err := f.review.GetQueue(models.QueueFilter{})
	if err != nil {
		t.Fatalf("GetQueue: %v", err)
	}
	// Default filter shows unreviewed only, counts cover everything.
	if resp.Total != 1 || len(resp.Items) != 1 {
		t.Fatalf("expected 1 unreviewed item, got total=%d len=%d", resp.Total, len(resp.Items))
	}
	if resp.UnreviewedCount != 1 || resp.ConfirmedCount != 1 {
		t.Errorf("expected counts unreviewed=1 confirmed=1, got %d/%d", resp.UnreviewedCount, resp.ConfirmedCount)
	}

	resp, err = f.review.GetQueue(models.QueueFilter{Status: models.ReviewRejected})
	if err != nil {
		t.Fatalf("GetQueue rejected: %v", err)
	}
	if len(resp.Items) != 0 {
		t.Errorf("expected empty item list, got %d", len(resp.Items))
	}
	if resp.Items == nil {
		t.Error("expected non-nil empty items slice")
	}
}

func TestGetDetailNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.review.GetDetail(12345)
	if !errors.Is(err, ErrListingNotFound) {
		t.Errorf("expected ErrListingNotFound, got %v", err)
	}
}

// Wiping the cached state and folding the log back restores exactly what
// the live path produced, including links left behind by later rejects.
func TestRebuildFromLog(t *testing.T) {
	f := newFixture(t)

	p := f.seedParcel(t, "123-038-11290", "")
	d1 := f.seedDwelling(t, p.ID, 2, models.UseShortTermRental)
	d2 := f.seedDwelling(t, p.ID, 3, models.UseSecondHome)
	l1 := f.seedListing(t, "1", 2, &p.ID)
	l2 := f.seedListing(t, "2", 2, &p.ID)
	l3 := f.seedListing(t, "3", 2, &p.ID)

	decide := func(id int64, req models.DecisionRequest, who string) {
		t.Helper()
		if _, err := f.review.Decide(id, &req, who); err != nil {
			t.Fatalf("decide %d: %v", id, err)
		}
	}
	decide(l1.ID, models.DecisionRequest{Action: models.ActionConfirm, DwellingID: &d1.ID}, "casey")
	decide(l2.ID, models.DecisionRequest{Action: models.ActionReject, RejectionReason: models.ReasonDuplicate}, "robin")
	decide(l3.ID, models.DecisionRequest{Action: models.ActionSkip, Notes: "awaiting photos"}, "casey")
	decide(l1.ID, models.DecisionRequest{Action: models.ActionConfirm, DwellingID: &d2.ID}, "casey")

	// Simulate cache corruption; the log must be able to restore it all.
	if _, err := f.db.Exec("UPDATE str_listings SET review_status = 'unreviewed', dwelling_id = NULL, reviewed_by = '', reviewed_at = NULL"); err != nil {
		t.Fatalf("corrupt listings: %v", err)
	}
	if _, err := f.db.Exec("UPDATE dwellings SET str_listing_id = NULL"); err != nil {
		t.Fatalf("corrupt dwellings: %v", err)
	}

	restored, err := f.review.RebuildFromLog()
	if err != nil {
		t.Fatalf("RebuildFromLog: %v", err)
	}
	if restored != 3 {
		t.Errorf("expected 3 listings restored, got %d", restored)
	}

	got1, err := f.listings.GetByID(l1.ID)
	if err != nil {
		t.Fatalf("GetByID l1: %v", err)
	}
	if got1.ReviewStatus != models.ReviewConfirmed {
		t.Errorf("l1: expected confirmed, got %q", got1.ReviewStatus)
	}
	if got1.DwellingID == nil || *got1.DwellingID != d2.ID {
		t.Errorf("l1: expected dwelling %d, got %v", d2.ID, got1.DwellingID)
	}
	if got1.ReviewedBy != "casey" {
		t.Errorf("l1: expected reviewer casey, got %q", got1.ReviewedBy)
	}
	if got1.ReviewedAt == nil {
		t.Error("l1: expected reviewed_at restored")
	}

	got2, err := f.listings.GetByID(l2.ID)
	if err != nil {
		t.Fatalf("GetByID l2: %v", err)
	}
	if got2.ReviewStatus != models.ReviewRejected {
		t.Errorf("l2: expected rejected, got %q", got2.ReviewStatus)
	}

	got3, err := f.listings.GetByID(l3.ID)
	if err != nil {
		t.Fatalf("GetByID l3: %v", err)
	}
	if got3.ReviewStatus != models.ReviewSkipped {
		t.Errorf("l3: expected skipped, got %q", got3.ReviewStatus)
	}

	oldLink, err := f.dwellings.GetByID(d1.ID)
	if err != nil {
		t.Fatalf("GetByID d1: %v", err)
	}
	if oldLink.STRListingID != nil {
		t.Errorf("d1: expected no link after rebuild, got %v", *oldLink.STRListingID)
	}

	newLink, err := f.dwellings.GetByID(d2.ID)
	if err != nil {
		t.Fatalf("GetByID d2: %v", err)
	}
	if newLink.STRListingID == nil || *newLink.STRListingID != l1.ID {
		t.Errorf("d2: expected link to %d, got %v", l1.ID, newLink.STRListingID)
	}
}
