package repository

import (
	"database/sql"
	"fmt"

	"github.com/openvalley/strmatch-backend-go/internal/models"
)

// DecisionRepository handles database operations for the review decision
// log. Rows are only ever inserted; corrections happen as new decisions.
type DecisionRepository struct {
	db *sql.DB
}

// NewDecisionRepository creates a new decision repository
func NewDecisionRepository(db *sql.DB) *DecisionRepository {
	return &DecisionRepository{db: db}
}

const decisionColumns = `id, listing_id, action, dwelling_id, rejection_reason, notes, reviewer, decided_at`

func scanDecision(scan func(dest ...interface{}) error) (models.ReviewDecision, error) {
	var d models.ReviewDecision
	err := scan(
		&d.ID, &d.ListingID, &d.Action, &d.DwellingID,
		&d.RejectionReason, &d.Notes, &d.Reviewer, &d.DecidedAt,
	)
	return d, err
}

// Insert appends a decision inside the caller's transaction and populates
// its ID.
func (r *DecisionRepository) Insert(tx *sql.Tx, d *models.ReviewDecision) error {
	query := `INSERT INTO review_decisions (listing_id, action, dwelling_id, rejection_reason, notes, reviewer)
		VALUES (?, ?, ?, ?, ?, ?)`

	result, err := tx.Exec(query, d.ListingID, d.Action, d.DwellingID, d.RejectionReason, d.Notes, d.Reviewer)
	if err != nil {
		return fmt.Errorf("failed to insert decision: %w", err)
	}

	d.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get decision id: %w", err)
	}
	return nil
}

// GetByListing retrieves the decision history for one listing, oldest first.
func (r *DecisionRepository) GetByListing(listingID int64) ([]models.ReviewDecision, error) {
	rows, err := r.db.Query(
		`SELECT `+decisionColumns+` FROM review_decisions WHERE listing_id = ? ORDER BY id`,
		listingID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	var decisions []models.ReviewDecision
	for rows.Next() {
		d, err := scanDecision(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		decisions = append(decisions, d)
	}

	return decisions, rows.Err()
}

// GetAll retrieves the whole decision log in applied order. Decision IDs
// are monotonic, so ID order is decision order.
func (r *DecisionRepository) GetAll() ([]models.ReviewDecision, error) {
	rows, err := r.db.Query(`SELECT ` + decisionColumns + ` FROM review_decisions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query decision log: %w", err)
	}
	defer rows.Close()

	var decisions []models.ReviewDecision
	for rows.Next() {
		d, err := scanDecision(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		decisions = append(decisions, d)
	}

	return decisions, rows.Err()
}

// Count returns the total number of logged decisions.
func (r *DecisionRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM review_decisions").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count decisions: %w", err)
	}
	return count, nil
}
