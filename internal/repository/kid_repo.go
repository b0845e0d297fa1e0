package repository

import (
	"database/sql"
	"fmt"
	"time"

	"learnlens/internal/database"
	"learnlens/internal/models"
)

// KidRepository handles database operations for kids
type KidRepository struct {
	db *database.DB
}

// NewKidRepository creates a new kid repository
func NewKidRepository(db *database.DB) *KidRepository {
	return &KidRepository{db: db}
}

// CreateKid creates a new kid profile owned by a parent
func (r *KidRepository) CreateKid(userID int64, name, avatarColor string) (*models.Kid, error) {
	query := "INSERT INTO kids (user_id, name, avatar_color) VALUES (?, ?, ?)"
	kidID, err := r.db.ExecReturningID(query, userID, name, avatarColor)
	if err != nil {
		return nil, fmt.Errorf("failed to create kid: %w", err)
	}

	now := time.Now()
	return &models.Kid{
		ID:          kidID,
		UserID:      userID,
		Name:        name,
		AvatarColor: avatarColor,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// GetKidByID retrieves a kid by ID
func (r *KidRepository) GetKidByID(kidID int64) (*models.Kid, error) {
	query := "SELECT id, user_id, name, avatar_color, created_at, updated_at FROM kids WHERE id = ?"
	kid := &models.Kid{}
	err := r.db.QueryRow(query, kidID).Scan(
		&kid.ID,
		&kid.UserID,
		&kid.Name,
		&kid.AvatarColor,
		&kid.CreatedAt,
		&kid.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get kid: %w", err)
	}
	return kid, nil
}

// GetUserKids retrieves a parent's kids with their activity counts
func (r *KidRepository) GetUserKids(userID int64) ([]models.KidWithStats, error) {
	query := `
		SELECT k.id, k.user_id, k.name, k.avatar_color, k.created_at, k.updated_at,
		       COUNT(a.id), COALESCE(MAX(a.activity_date), '')
		FROM kids k
		LEFT JOIN activities a ON a.kid_id = k.id
		WHERE k.user_id = ?
		GROUP BY k.id, k.user_id, k.name, k.avatar_color, k.created_at, k.updated_at
		ORDER BY k.created_at ASC, k.id ASC
	`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query kids: %w", err)
	}
	defer rows.Close()

	kids := []models.KidWithStats{}
	for rows.Next() {
		var k models.KidWithStats
		if err := rows.Scan(
			&k.ID,
			&k.UserID,
			&k.Name,
			&k.AvatarColor,
			&k.CreatedAt,
			&k.UpdatedAt,
			&k.ActivityCount,
			&k.LastActivity,
		); err != nil {
			return nil, fmt.Errorf("failed to scan kid: %w", err)
		}
		kids = append(kids, k)
	}
	return kids, rows.Err()
}

// GetAllKids retrieves every kid, for backups
func (r *KidRepository) GetAllKids() ([]models.Kid, error) {
	query := "SELECT id, user_id, name, avatar_color, created_at, updated_at FROM kids ORDER BY id"
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query kids: %w", err)
	}
	defer rows.Close()

	var kids []models.Kid
	for rows.Next() {
		var kid models.Kid
		if err := rows.Scan(
			&kid.ID,
			&kid.UserID,
			&kid.Name,
			&kid.AvatarColor,
			&kid.CreatedAt,
			&kid.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan kid: %w", err)
		}
		kids = append(kids, kid)
	}
	return kids, rows.Err()
}

// UpdateKid updates a kid's profile
func (r *KidRepository) UpdateKid(kidID int64, name, avatarColor string) error {
	query := "UPDATE kids SET name = ?, avatar_color = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	if _, err := r.db.Exec(query, name, avatarColor, kidID); err != nil {
		return fmt.Errorf("failed to update kid: %w", err)
	}
	return nil
}

// DeleteKid deletes a kid and their activity history
func (r *KidRepository) DeleteKid(kidID int64) error {
	if _, err := r.db.Exec("DELETE FROM kids WHERE id = ?", kidID); err != nil {
		return fmt.Errorf("failed to delete kid: %w", err)
	}
	return nil
}
