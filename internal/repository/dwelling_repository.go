package repository

import (
	"database/sql"
	"fmt"

	"github.com/openvalley/strmatch-backend-go/internal/models"
)

// DwellingRepository handles database operations for dwellings
type DwellingRepository struct {
	db *sql.DB
}

// NewDwellingRepository creates a new dwelling repository
func NewDwellingRepository(db *sql.DB) *DwellingRepository {
	return &DwellingRepository{db: db}
}

const dwellingColumns = `id, parcel_id, unit_number, bedrooms, use_type, tax_classification,
	homestead_filed, str_listing_id, created_at, updated_at`

func scanDwelling(scan func(dest ...interface{}) error) (models.Dwelling, error) {
	var d models.Dwelling
	err := scan(
		&d.ID, &d.ParcelID, &d.UnitNumber, &d.Bedrooms, &d.UseType, &d.TaxClassification,
		&d.HomesteadFiled, &d.STRListingID, &d.CreatedAt, &d.UpdatedAt,
	)
	return d, err
}

// GetByID retrieves a single dwelling by ID
func (r *DwellingRepository) GetByID(id int64) (*models.Dwelling, error) {
	row := r.db.QueryRow(`SELECT `+dwellingColumns+` FROM dwellings WHERE id = ?`, id)

	d, err := scanDwelling(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dwelling: %w", err)
	}

	return &d, nil
}

// GetByParcel retrieves the dwellings on a parcel in creation order, which
// is the candidate tie-break order.
func (r *DwellingRepository) GetByParcel(parcelID int64) ([]models.Dwelling, error) {
	rows, err := r.db.Query(`SELECT `+dwellingColumns+` FROM dwellings WHERE parcel_id = ? ORDER BY id`, parcelID)
	if err != nil {
		return nil, fmt.Errorf("failed to query dwellings: %w", err)
	}
	defer rows.Close()

	var dwellings []models.Dwelling
	for rows.Next() {
		d, err := scanDwelling(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dwelling: %w", err)
		}
		dwellings = append(dwellings, d)
	}

	return dwellings, rows.Err()
}

// GetAll retrieves every dwelling, ordered by ID.
func (r *DwellingRepository) GetAll() ([]models.Dwelling, error) {
	rows, err := r.db.Query(`SELECT ` + dwellingColumns + ` FROM dwellings ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query dwellings: %w", err)
	}
	defer rows.Close()

	var dwellings []models.Dwelling
	for rows.Next() {
		d, err := scanDwelling(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dwelling: %w", err)
		}
		dwellings = append(dwellings, d)
	}

	return dwellings, rows.Err()
}

// GetByParcelAndUnit retrieves the dwelling identified by parcel and unit
// number. IS matches NULL unit numbers, the single-dwelling case.
func (r *DwellingRepository) GetByParcelAndUnit(parcelID int64, unitNumber *string) (*models.Dwelling, error) {
	row := r.db.QueryRow(
		`SELECT `+dwellingColumns+` FROM dwellings WHERE parcel_id = ? AND unit_number IS ?`,
		parcelID, unitNumber,
	)

	d, err := scanDwelling(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dwelling: %w", err)
	}

	return &d, nil
}

// CountByParcel returns the number of dwellings on a parcel.
func (r *DwellingRepository) CountByParcel(parcelID int64) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM dwellings WHERE parcel_id = ?", parcelID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count dwellings: %w", err)
	}
	return count, nil
}

// Insert creates a dwelling and populates its ID.
func (r *DwellingRepository) Insert(d *models.Dwelling) error {
	query := `INSERT INTO dwellings (parcel_id, unit_number, bedrooms, use_type, tax_classification, homestead_filed)
		VALUES (?, ?, ?, ?, ?, ?)`

	result, err := r.db.Exec(query, d.ParcelID, d.UnitNumber, d.Bedrooms, d.UseType, d.TaxClassification, d.HomesteadFiled)
	if err != nil {
		return fmt.Errorf("failed to insert dwelling: %w", err)
	}

	d.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get dwelling id: %w", err)
	}
	return nil
}

// UpdateAttributes refreshes the imported fields of an existing dwelling.
// The confirmed-listing link survives re-imports.
func (r *DwellingRepository) UpdateAttributes(d *models.Dwelling) error {
	query := `UPDATE dwellings SET bedrooms = ?, use_type = ?, tax_classification = ?,
		homestead_filed = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	_, err := r.db.Exec(query, d.Bedrooms, d.UseType, d.TaxClassification, d.HomesteadFiled, d.ID)
	if err != nil {
		return fmt.Errorf("failed to update dwelling %d: %w", d.ID, err)
	}
	return nil
}

// SetSTRListing points a dwelling's confirmed-listing link at listingID
// (nil clears it). Runs inside the decision transaction.
func (r *DwellingRepository) SetSTRListing(tx *sql.Tx, dwellingID int64, listingID *int64) error {
	_, err := tx.Exec(
		"UPDATE dwellings SET str_listing_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		listingID, dwellingID,
	)
	if err != nil {
		return fmt.Errorf("failed to link dwelling %d: %w", dwellingID, err)
	}
	return nil
}

// ClearSTRLinkForListing removes the link from whichever dwelling currently
// holds listingID, if any. A confirm moves a listing's link, never copies it.
func (r *DwellingRepository) ClearSTRLinkForListing(tx *sql.Tx, listingID int64) error {
	_, err := tx.Exec(
		"UPDATE dwellings SET str_listing_id = NULL, updated_at = CURRENT_TIMESTAMP WHERE str_listing_id = ?",
		listingID,
	)
	if err != nil {
		return fmt.Errorf("failed to clear link for listing %d: %w", listingID, err)
	}
	return nil
}

// ClearAllSTRLinks removes every confirmed-listing link. Used by the
// rebuild path before links are re-derived from the decision log.
func (r *DwellingRepository) ClearAllSTRLinks(tx *sql.Tx) error {
	_, err := tx.Exec("UPDATE dwellings SET str_listing_id = NULL, updated_at = CURRENT_TIMESTAMP WHERE str_listing_id IS NOT NULL")
	if err != nil {
		return fmt.Errorf("failed to clear dwelling links: %w", err)
	}
	return nil
}

// CountLinked returns the number of dwellings holding a confirmed listing.
func (r *DwellingRepository) CountLinked() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM dwellings WHERE str_listing_id IS NOT NULL").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count linked dwellings: %w", err)
	}
	return count, nil
}

// Stats returns dwelling totals by tax status.
func (r *DwellingRepository) Stats() (total, homestead, nhsResidential int, err error) {
	query := `SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN homestead_filed = 1 THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN tax_classification = ? THEN 1 ELSE 0 END), 0)
		FROM dwellings`

	err = r.db.QueryRow(query, models.TaxNHSResidential).Scan(&total, &homestead, &nhsResidential)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to aggregate dwellings: %w", err)
	}
	return total, homestead, nhsResidential, nil
}
