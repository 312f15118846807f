package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/openvalley/strmatch-backend-go/internal/config"
	"github.com/openvalley/strmatch-backend-go/internal/database"
	"github.com/openvalley/strmatch-backend-go/internal/match"
	"github.com/openvalley/strmatch-backend-go/internal/models"
	"github.com/openvalley/strmatch-backend-go/internal/repository"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "test-secret"

type testEnv struct {
	t      *testing.T
	router *gin.Engine
	db     *sql.DB
	token  string

	parcels   *repository.ParcelRepository
	dwellings *repository.DwellingRepository
	listings  *repository.ListingRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.NewMigrationManager(db).RunMigrations(); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	cfg := &config.Config{
		JWTSecret: testSecret,
		Weights:   match.DefaultWeights(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "casey",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	return &testEnv{
		t:         t,
		router:    SetupRouter(cfg, db),
		db:        db,
		token:     token,
		parcels:   repository.NewParcelRepository(db),
		dwellings: repository.NewDwellingRepository(db),
		listings:  repository.NewListingRepository(db),
	}
}

// do performs a request; body (when non-nil) is sent as JSON and authed
// attaches the reviewer token.
func (e *testEnv) do(method, path string, body interface{}, authed bool) *httptest.ResponseRecorder {
	e.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			e.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// decodeData unmarshals the data field of the standard envelope into out.
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()

	var envelope struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, w.Body.String())
	}
	if envelope.Code != 0 {
		t.Fatalf("expected code 0, got %d (%s)", envelope.Code, envelope.Message)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func (e *testEnv) seedMatchedListing(listingID string) (*models.Parcel, *models.Dwelling, *models.STRListing) {
	e.t.Helper()

	p := &models.Parcel{Span: "123-038-" + listingID, Address: "12 Maple Ln", Town: "Greensboro", Lat: 44.5, Lng: -72.5}
	if err := e.parcels.Upsert(p); err != nil {
		e.t.Fatalf("upsert parcel: %v", err)
	}

	bedrooms := 2
	d := &models.Dwelling{ParcelID: p.ID, Bedrooms: &bedrooms, UseType: models.UseShortTermRental}
	if err := e.dwellings.Insert(d); err != nil {
		e.t.Fatalf("insert dwelling: %v", err)
	}

	l := &models.STRListing{
		Platform:  models.PlatformAirbnb,
		ListingID: listingID,
		Name:      "Cozy cabin",
		Lat:       44.5,
		Lng:       -72.5,
		Bedrooms:  &bedrooms,
		IsActive:  true,
	}
	if err := e.listings.Insert(l); err != nil {
		e.t.Fatalf("insert listing: %v", err)
	}
	confidence := 1.0
	if err := e.listings.UpdateSpatialMatch(l.ID, &p.ID, models.MatchMethodSpatial, &confidence, 1); err != nil {
		e.t.Fatalf("match listing: %v", err)
	}
	return p, d, l
}

func TestHealthEndpoint(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(http.MethodGet, "/health", nil, false)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestReviewEndpointsRequireAuth(t *testing.T) {
	e := newTestEnv(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/str-review/queue"},
		{http.MethodGet, "/api/v1/str-review/stats"},
		{http.MethodGet, "/api/v1/str-review/1"},
		{http.MethodPut, "/api/v1/str-review/1/decision"},
	}
	for _, p := range paths {
		w := e.do(p.method, p.path, nil, false)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401, got %d", p.method, p.path, w.Code)
		}
	}
}

func TestQueueEndpoint(t *testing.T) {
	e := newTestEnv(t)
	e.seedMatchedListing("31415")

	w := e.do(http.MethodGet, "/api/v1/str-review/queue?status=unreviewed", nil, true)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp models.ReviewQueueResponse
	decodeData(t, w, &resp)
	if resp.Total != 1 || len(resp.Items) != 1 {
		t.Fatalf("expected 1 queue item, got total=%d len=%d", resp.Total, len(resp.Items))
	}
	if resp.Items[0].ParcelSpan == "" {
		t.Error("expected joined parcel span in queue item")
	}
	if resp.UnreviewedCount != 1 {
		t.Errorf("expected unreviewed count 1, got %d", resp.UnreviewedCount)
	}
}

func TestDetailAndDecisionFlow(t *testing.T) {
	e := newTestEnv(t)
	_, d, l := e.seedMatchedListing("31415")

	idPath := "/api/v1/str-review/" + itoa(l.ID)

	w := e.do(http.MethodGet, idPath, nil, true)
	if w.Code != http.StatusOK {
		t.Fatalf("detail: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var detail models.ReviewDetail
	decodeData(t, w, &detail)
	if len(detail.Candidates) != 1 || detail.Candidates[0].ID != d.ID {
		t.Fatalf("expected candidate %d, got %+v", d.ID, detail.Candidates)
	}

	w = e.do(http.MethodPut, idPath+"/decision", models.DecisionRequest{
		Action:     models.ActionConfirm,
		DwellingID: &d.ID,
	}, true)
	if w.Code != http.StatusOK {
		t.Fatalf("decision: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var item models.ReviewQueueItem
	decodeData(t, w, &item)
	if item.ReviewStatus != models.ReviewConfirmed {
		t.Errorf("expected confirmed, got %q", item.ReviewStatus)
	}
	// Reviewer identity comes from the token subject, not the body.
	if item.ReviewedBy != "casey" {
		t.Errorf("expected reviewer casey, got %q", item.ReviewedBy)
	}

	linked, err := e.dwellings.GetByID(d.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if linked.STRListingID == nil || *linked.STRListingID != l.ID {
		t.Errorf("expected dwelling linked to %d, got %v", l.ID, linked.STRListingID)
	}
}

func TestDecisionErrorStatuses(t *testing.T) {
	e := newTestEnv(t)
	_, _, matched := e.seedMatchedListing("31415")

	unmatched := &models.STRListing{Platform: models.PlatformVrbo, ListingID: "999", Lat: 44.9, Lng: -72.9, IsActive: true}
	if err := e.listings.Insert(unmatched); err != nil {
		t.Fatalf("insert unmatched: %v", err)
	}

	dwellingID := int64(12345)
	cases := []struct {
		name string
		id   int64
		body interface{}
		want int
	}{
		{"unknown listing", 99999, models.DecisionRequest{Action: models.ActionSkip}, http.StatusNotFound},
		{"confirm without parcel", unmatched.ID, models.DecisionRequest{Action: models.ActionConfirm, DwellingID: &dwellingID}, http.StatusUnprocessableEntity},
		{"reject without reason", matched.ID, models.DecisionRequest{Action: models.ActionReject}, http.StatusUnprocessableEntity},
		{"unknown action", matched.ID, models.DecisionRequest{Action: "promote"}, http.StatusBadRequest},
		{"missing action", matched.ID, map[string]interface{}{"notes": "no action"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := e.do(http.MethodPut, "/api/v1/str-review/"+itoa(tc.id)+"/decision", tc.body, true)
			if w.Code != tc.want {
				t.Errorf("expected %d, got %d: %s", tc.want, w.Code, w.Body.String())
			}
		})
	}

	w := e.do(http.MethodPut, "/api/v1/str-review/notanumber/decision", models.DecisionRequest{Action: models.ActionSkip}, true)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for non-numeric id, got %d", w.Code)
	}
}

func TestDecisionVersionConflictStatus(t *testing.T) {
	e := newTestEnv(t)
	_, _, l := e.seedMatchedListing("31415")

	version := int64(0)
	path := "/api/v1/str-review/" + itoa(l.ID) + "/decision"

	w := e.do(http.MethodPut, path, models.DecisionRequest{Action: models.ActionSkip, ExpectedVersion: &version}, true)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = e.do(http.MethodPut, path, models.DecisionRequest{Action: models.ActionSkip, ExpectedVersion: &version}, true)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 on stale version, got %d: %s", w.Code, w.Body.String())
	}
}

func TestPublicEndpoints(t *testing.T) {
	e := newTestEnv(t)
	e.seedMatchedListing("31415")

	w := e.do(http.MethodGet, "/api/v1/stats/dashboard", nil, false)
	if w.Code != http.StatusOK {
		t.Fatalf("dashboard: expected 200, got %d", w.Code)
	}
	var ds models.DashboardStats
	decodeData(t, w, &ds)
	if ds.Parcels.Total != 1 || ds.Listings.Total != 1 {
		t.Errorf("unexpected dashboard counts: %+v", ds)
	}

	// Map layers are bare GeoJSON, not enveloped.
	w = e.do(http.MethodGet, "/api/v1/dwellings/geojson", nil, false)
	if w.Code != http.StatusOK {
		t.Fatalf("dwellings layer: expected 200, got %d", w.Code)
	}
	var fc models.GeoJSONFeatureCollection
	if err := json.Unmarshal(w.Body.Bytes(), &fc); err != nil {
		t.Fatalf("decode feature collection: %v", err)
	}
	if fc.Type != "FeatureCollection" {
		t.Errorf("expected FeatureCollection, got %q", fc.Type)
	}
	if len(fc.Features) != 1 {
		t.Errorf("expected 1 dwelling feature, got %d", len(fc.Features))
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
