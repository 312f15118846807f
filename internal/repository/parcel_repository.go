package repository

import (
	"database/sql"
	"fmt"

	"github.com/openvalley/strmatch-backend-go/internal/models"
)

// ParcelRepository handles database operations for parcels
type ParcelRepository struct {
	db *sql.DB
}

// NewParcelRepository creates a new parcel repository
func NewParcelRepository(db *sql.DB) *ParcelRepository {
	return &ParcelRepository{db: db}
}

const parcelColumns = `id, span, address, town, lat, lng, acres, assessed_total, geometry, created_at`

// GetByID retrieves a single parcel by ID
func (r *ParcelRepository) GetByID(id int64) (*models.Parcel, error) {
	query := `SELECT ` + parcelColumns + ` FROM parcels WHERE id = ?`

	var p models.Parcel
	err := r.db.QueryRow(query, id).Scan(
		&p.ID, &p.Span, &p.Address, &p.Town, &p.Lat, &p.Lng,
		&p.Acres, &p.AssessedTotal, &p.Geometry, &p.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get parcel: %w", err)
	}

	return &p, nil
}

// GetBySpan retrieves a parcel by its SPAN, the state-wide parcel number.
func (r *ParcelRepository) GetBySpan(span string) (*models.Parcel, error) {
	query := `SELECT ` + parcelColumns + ` FROM parcels WHERE span = ?`

	var p models.Parcel
	err := r.db.QueryRow(query, span).Scan(
		&p.ID, &p.Span, &p.Address, &p.Town, &p.Lat, &p.Lng,
		&p.Acres, &p.AssessedTotal, &p.Geometry, &p.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get parcel %s: %w", span, err)
	}

	return &p, nil
}

// GetAll retrieves every parcel, ordered by ID. Used to build the spatial
// index and the map layer; town-scale datasets fit in memory comfortably.
func (r *ParcelRepository) GetAll() ([]models.Parcel, error) {
	rows, err := r.db.Query(`SELECT ` + parcelColumns + ` FROM parcels ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query parcels: %w", err)
	}
	defer rows.Close()

	var parcels []models.Parcel
	for rows.Next() {
		var p models.Parcel
		err := rows.Scan(
			&p.ID, &p.Span, &p.Address, &p.Town, &p.Lat, &p.Lng,
			&p.Acres, &p.AssessedTotal, &p.Geometry, &p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan parcel: %w", err)
		}
		parcels = append(parcels, p)
	}

	return parcels, rows.Err()
}

// Upsert inserts a parcel or updates it in place, keyed by SPAN. The
// parcel's ID is populated on return.
func (r *ParcelRepository) Upsert(p *models.Parcel) error {
	query := `INSERT INTO parcels (span, address, town, lat, lng, acres, assessed_total, geometry)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(span) DO UPDATE SET
			address = excluded.address,
			town = excluded.town,
			lat = excluded.lat,
			lng = excluded.lng,
			acres = excluded.acres,
			assessed_total = excluded.assessed_total,
			geometry = excluded.geometry`

	_, err := r.db.Exec(query, p.Span, p.Address, p.Town, p.Lat, p.Lng, p.Acres, p.AssessedTotal, p.Geometry)
	if err != nil {
		return fmt.Errorf("failed to upsert parcel %s: %w", p.Span, err)
	}

	err = r.db.QueryRow("SELECT id FROM parcels WHERE span = ?", p.Span).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to resolve parcel id for %s: %w", p.Span, err)
	}
	return nil
}

// Stats returns the parcel count and summed assessed value.
func (r *ParcelRepository) Stats() (total int, assessedTotal int64, err error) {
	err = r.db.QueryRow("SELECT COUNT(*), COALESCE(SUM(assessed_total), 0) FROM parcels").Scan(&total, &assessedTotal)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to aggregate parcels: %w", err)
	}
	return total, assessedTotal, nil
}
