package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/openvalley/strmatch-backend-go/internal/models"
)

// ListingRepository handles database operations for STR listings
type ListingRepository struct {
	db *sql.DB
}

// NewListingRepository creates a new listing repository
func NewListingRepository(db *sql.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

const listingColumns = `id, platform, listing_id, listing_url, name, lat, lng,
	bedrooms, max_guests, price_per_night_usd, total_reviews, average_rating, is_active,
	parcel_id, match_method, match_confidence, candidate_dwelling_count,
	review_status, dwelling_id, reviewed_by, reviewed_at, row_version, created_at, updated_at`

func scanListing(scan func(dest ...interface{}) error) (models.STRListing, error) {
	var l models.STRListing
	err := scan(
		&l.ID, &l.Platform, &l.ListingID, &l.ListingURL, &l.Name, &l.Lat, &l.Lng,
		&l.Bedrooms, &l.MaxGuests, &l.PricePerNightUSD, &l.TotalReviews, &l.AverageRating, &l.IsActive,
		&l.ParcelID, &l.MatchMethod, &l.MatchConfidence, &l.CandidateDwellingCount,
		&l.ReviewStatus, &l.DwellingID, &l.ReviewedBy, &l.ReviewedAt, &l.RowVersion, &l.CreatedAt, &l.UpdatedAt,
	)
	return l, err
}

// GetByID retrieves a single listing by ID
func (r *ListingRepository) GetByID(id int64) (*models.STRListing, error) {
	row := r.db.QueryRow(`SELECT `+listingColumns+` FROM str_listings WHERE id = ?`, id)

	l, err := scanListing(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}

	return &l, nil
}

// GetByPlatformID retrieves a listing by its source identity.
func (r *ListingRepository) GetByPlatformID(platform, listingID string) (*models.STRListing, error) {
	row := r.db.QueryRow(
		`SELECT `+listingColumns+` FROM str_listings WHERE platform = ? AND listing_id = ?`,
		platform, listingID,
	)

	l, err := scanListing(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing %s/%s: %w", platform, listingID, err)
	}

	return &l, nil
}

// GetAll retrieves every listing, ordered by ID. Used by the ingestion
// refresh pass.
func (r *ListingRepository) GetAll() ([]models.STRListing, error) {
	rows, err := r.db.Query(`SELECT ` + listingColumns + ` FROM str_listings ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	var listings []models.STRListing
	for rows.Next() {
		l, err := scanListing(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, l)
	}

	return listings, rows.Err()
}

// Insert creates a listing and populates its ID.
func (r *ListingRepository) Insert(l *models.STRListing) error {
	query := `INSERT INTO str_listings (platform, listing_id, listing_url, name, lat, lng,
		bedrooms, max_guests, price_per_night_usd, total_reviews, average_rating, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.Exec(query,
		l.Platform, l.ListingID, l.ListingURL, l.Name, l.Lat, l.Lng,
		l.Bedrooms, l.MaxGuests, l.PricePerNightUSD, l.TotalReviews, l.AverageRating, l.IsActive,
	)
	if err != nil {
		return fmt.Errorf("failed to insert listing %s/%s: %w", l.Platform, l.ListingID, err)
	}

	l.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get listing id: %w", err)
	}
	return nil
}

// UpdateAttributes refreshes the scraped fields of an existing listing.
// Review and parcel-match state are deliberately untouched.
func (r *ListingRepository) UpdateAttributes(l *models.STRListing) error {
	query := `UPDATE str_listings SET listing_url = ?, name = ?, lat = ?, lng = ?,
		bedrooms = ?, max_guests = ?, price_per_night_usd = ?, total_reviews = ?,
		average_rating = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	_, err := r.db.Exec(query,
		l.ListingURL, l.Name, l.Lat, l.Lng,
		l.Bedrooms, l.MaxGuests, l.PricePerNightUSD, l.TotalReviews,
		l.AverageRating, l.IsActive, l.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update listing %d: %w", l.ID, err)
	}
	return nil
}

// UpdateSpatialMatch writes the parcel assignment cache for a listing.
func (r *ListingRepository) UpdateSpatialMatch(id int64, parcelID *int64, method string, confidence *float64, candidateCount int) error {
	query := `UPDATE str_listings SET parcel_id = ?, match_method = ?, match_confidence = ?,
		candidate_dwelling_count = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	_, err := r.db.Exec(query, parcelID, method, confidence, candidateCount, id)
	if err != nil {
		return fmt.Errorf("failed to update spatial match for listing %d: %w", id, err)
	}
	return nil
}

// UpdateReviewState writes the cached review fields inside the decision
// transaction, bumping row_version. When expectedVersion is set the update
// only lands if the version still matches; the caller checks the affected
// count to detect a lost race.
func (r *ListingRepository) UpdateReviewState(tx *sql.Tx, id int64, status string, dwellingID *int64, reviewer string, expectedVersion *int64) (int64, error) {
	query := `UPDATE str_listings SET review_status = ?, dwelling_id = ?, reviewed_by = ?,
		reviewed_at = CURRENT_TIMESTAMP, row_version = row_version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`
	args := []interface{}{status, dwellingID, reviewer, id}

	if expectedVersion != nil {
		query += " AND row_version = ?"
		args = append(args, *expectedVersion)
	}

	result, err := tx.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update review state for listing %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected, nil
}

// ApplyDecisionState writes cached review fields from a logged decision,
// preserving the original decision time. Used when rebuilding from the log.
func (r *ListingRepository) ApplyDecisionState(tx *sql.Tx, listingID int64, status string, dwellingID *int64, reviewer string, reviewedAt time.Time) error {
	query := `UPDATE str_listings SET review_status = ?, dwelling_id = ?, reviewed_by = ?,
		reviewed_at = ?, row_version = row_version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	_, err := tx.Exec(query, status, dwellingID, reviewer, reviewedAt, listingID)
	if err != nil {
		return fmt.Errorf("failed to apply decision state for listing %d: %w", listingID, err)
	}
	return nil
}

// ResetAllReviewState returns every listing to unreviewed. The rebuild path
// calls this first, then folds the decision log back over the table.
func (r *ListingRepository) ResetAllReviewState(tx *sql.Tx) error {
	query := `UPDATE str_listings SET review_status = ?, dwelling_id = NULL, reviewed_by = '',
		reviewed_at = NULL, row_version = row_version + 1, updated_at = CURRENT_TIMESTAMP`

	_, err := tx.Exec(query, models.ReviewUnreviewed)
	if err != nil {
		return fmt.Errorf("failed to reset review state: %w", err)
	}
	return nil
}

const queueItemColumns = `l.id, l.platform, l.listing_id, l.name, l.listing_url, l.lat, l.lng,
	l.bedrooms, l.max_guests, l.price_per_night_usd, l.total_reviews, l.average_rating,
	l.parcel_id, COALESCE(p.span, ''), COALESCE(p.address, ''), l.match_method, l.match_confidence,
	l.review_status, l.dwelling_id, l.candidate_dwelling_count, l.reviewed_by, l.reviewed_at, l.row_version`

func scanQueueItem(scan func(dest ...interface{}) error) (models.ReviewQueueItem, error) {
	var item models.ReviewQueueItem
	err := scan(
		&item.ID, &item.Platform, &item.ListingID, &item.Name, &item.ListingURL, &item.Lat, &item.Lng,
		&item.Bedrooms, &item.MaxGuests, &item.PricePerNightUSD, &item.TotalReviews, &item.AverageRating,
		&item.ParcelID, &item.ParcelSpan, &item.ParcelAddress, &item.MatchMethod, &item.MatchConfidence,
		&item.ReviewStatus, &item.DwellingID, &item.CandidateDwellingCount, &item.ReviewedBy, &item.ReviewedAt, &item.RowVersion,
	)
	return item, err
}

// List retrieves queue items with filtering and pagination. The filter is
// expected to be normalized; status "all" lifts the status restriction.
func (r *ListingRepository) List(filter models.QueueFilter) ([]models.ReviewQueueItem, int, error) {
	var conditions []string
	var args []interface{}

	if filter.Status != "" && filter.Status != "all" {
		conditions = append(conditions, "l.review_status = ?")
		args = append(args, filter.Status)
	}
	if filter.Platform != "" {
		conditions = append(conditions, "l.platform = ?")
		args = append(args, filter.Platform)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	err := r.db.QueryRow("SELECT COUNT(*) FROM str_listings l"+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count listings: %w", err)
	}

	query := `SELECT ` + queueItemColumns + `
		FROM str_listings l
		LEFT JOIN parcels p ON p.id = l.parcel_id` + where + `
		ORDER BY l.id LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query review queue: %w", err)
	}
	defer rows.Close()

	var items []models.ReviewQueueItem
	for rows.Next() {
		item, err := scanQueueItem(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan queue item: %w", err)
		}
		items = append(items, item)
	}

	return items, total, rows.Err()
}

// GetQueueItem retrieves a single listing in queue-item shape.
func (r *ListingRepository) GetQueueItem(id int64) (*models.ReviewQueueItem, error) {
	query := `SELECT ` + queueItemColumns + `
		FROM str_listings l
		LEFT JOIN parcels p ON p.id = l.parcel_id
		WHERE l.id = ?`

	item, err := scanQueueItem(r.db.QueryRow(query, id).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get queue item: %w", err)
	}

	return &item, nil
}

// CountByStatus returns listing counts grouped by review status.
func (r *ListingRepository) CountByStatus() (map[string]int, error) {
	rows, err := r.db.Query("SELECT review_status, COUNT(*) FROM str_listings GROUP BY review_status")
	if err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = count
	}

	return counts, rows.Err()
}

// CountMatched returns the number of listings assigned to a parcel.
func (r *ListingRepository) CountMatched() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM str_listings WHERE parcel_id IS NOT NULL").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count matched listings: %w", err)
	}
	return count, nil
}

// CountActive returns the number of active listings.
func (r *ListingRepository) CountActive() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM str_listings WHERE is_active = 1").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active listings: %w", err)
	}
	return count, nil
}

// AvgActivePrice returns the mean nightly rate of active listings with a
// price, or nil when none have one.
func (r *ListingRepository) AvgActivePrice() (*float64, error) {
	var avg sql.NullFloat64
	err := r.db.QueryRow(
		"SELECT AVG(price_per_night_usd) FROM str_listings WHERE is_active = 1 AND price_per_night_usd IS NOT NULL",
	).Scan(&avg)
	if err != nil {
		return nil, fmt.Errorf("failed to average price: %w", err)
	}
	if !avg.Valid {
		return nil, nil
	}
	return &avg.Float64, nil
}

// ActivePrices returns the advertised nightly prices of active listings.
func (r *ListingRepository) ActivePrices() ([]float64, error) {
	rows, err := r.db.Query(
		"SELECT price_per_night_usd FROM str_listings WHERE is_active = 1 AND price_per_night_usd IS NOT NULL",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query prices: %w", err)
	}
	defer rows.Close()

	var prices []float64
	for rows.Next() {
		var p float64
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}

// GetNamesByIDs maps listing IDs to names for the given set.
func (r *ListingRepository) GetNamesByIDs(ids []int64) (map[int64]string, error) {
	names := make(map[int64]string)
	if len(ids) == 0 {
		return names, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.Query("SELECT id, name FROM str_listings WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query listing names: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan listing name: %w", err)
		}
		names[id] = name
	}

	return names, rows.Err()
}
