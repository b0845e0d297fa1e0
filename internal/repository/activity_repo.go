package repository

import (
	"encoding/json"
	"fmt"

	"learnlens/internal/database"
	"learnlens/internal/models"
)

// ActivityRepository stores each kid's raw activity history. Records are
// kept as JSON in source order; enrichment happens when they are read
// into a view.
type ActivityRepository struct {
	db *database.DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *database.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// ReplaceForKid swaps a kid's whole history for activities in one
// transaction.
func (r *ActivityRepository) ReplaceForKid(kidID int64, activities []models.Activity) error {
	return r.db.WithTx(func(tx *database.Tx) error {
		if _, err := tx.Exec("DELETE FROM activities WHERE kid_id = ?", kidID); err != nil {
			return fmt.Errorf("failed to clear activities: %w", err)
		}
		return InsertActivities(tx, kidID, activities)
	})
}

// InsertActivities appends activities for a kid starting at position 0.
// It runs on a *database.DB or inside a *database.Tx.
func InsertActivities(q database.DBTX, kidID int64, activities []models.Activity) error {
	query := "INSERT INTO activities (kid_id, position, activity_date, payload) VALUES (?, ?, ?, ?)"
	for i, a := range activities {
		payload, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("failed to encode activity %d: %w", i, err)
		}
		if _, err := q.Exec(query, kidID, i, a.Date, string(payload)); err != nil {
			return fmt.Errorf("failed to insert activity %d: %w", i, err)
		}
	}
	return nil
}

// ListByKid returns a kid's activities in source order
func (r *ActivityRepository) ListByKid(kidID int64) ([]models.Activity, error) {
	query := "SELECT payload FROM activities WHERE kid_id = ? ORDER BY position ASC"
	rows, err := r.db.Query(query, kidID)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	activities := []models.Activity{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		var a models.Activity
		if err := json.Unmarshal([]byte(payload), &a); err != nil {
			return nil, fmt.Errorf("failed to decode activity: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// CountByKid returns how many activities a kid has
func (r *ActivityRepository) CountByKid(kidID int64) (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM activities WHERE kid_id = ?", kidID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count activities: %w", err)
	}
	return count, nil
}
