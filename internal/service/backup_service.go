package service

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"learnlens/internal/database"
	"learnlens/internal/logger"
	"learnlens/internal/models"
	"learnlens/internal/repository"
)

const backupVersion = "2.0"

// BackupData represents the complete database backup structure
type BackupData struct {
	Version    string       `json:"version"`
	ExportedAt time.Time    `json:"exported_at"`
	Users      []UserBackup `json:"users"`
}

// UserBackup represents a parent and everything they own
type UserBackup struct {
	ID            int64       `json:"id"`
	Email         string      `json:"email"`
	PasswordHash  string      `json:"password_hash"`
	Name          string      `json:"name"`
	OAuthProvider string      `json:"oauth_provider"`
	OAuthSubject  string      `json:"oauth_subject"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
	Kids          []KidBackup `json:"kids"`
}

// KidBackup represents a kid with its raw activity history
type KidBackup struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	AvatarColor string            `json:"avatar_color"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Activities  []models.Activity `json:"activities"`
}

// ImportStats reports what an import restored
type ImportStats struct {
	Users        int
	SkippedUsers int
	Kids         int
	Activities   int
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db           *database.DB
	userRepo     *repository.UserRepository
	kidRepo      *repository.KidRepository
	activityRepo *repository.ActivityRepository
	log          *logger.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB, log *logger.Logger) *BackupService {
	return &BackupService{
		db:           db,
		userRepo:     repository.NewUserRepository(db),
		kidRepo:      repository.NewKidRepository(db),
		activityRepo: repository.NewActivityRepository(db),
		log:          log,
	}
}

// ExportToFile writes a complete backup to outputPath
func (s *BackupService) ExportToFile(outputPath string) (*BackupData, error) {
	file, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()
	return s.Export(file)
}

// Export writes a complete backup as indented JSON
func (s *BackupService) Export(w io.Writer) (*BackupData, error) {
	backup := &BackupData{
		Version:    backupVersion,
		ExportedAt: time.Now().UTC(),
		Users:      []UserBackup{},
	}

	users, err := s.userRepo.GetAllUsers()
	if err != nil {
		return nil, fmt.Errorf("failed to export users: %w", err)
	}
	kids, err := s.kidRepo.GetAllKids()
	if err != nil {
		return nil, fmt.Errorf("failed to export kids: %w", err)
	}

	kidsByUser := make(map[int64][]KidBackup)
	activityCount := 0
	for _, k := range kids {
		activities, err := s.activityRepo.ListByKid(k.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to export activities of kid %d: %w", k.ID, err)
		}
		activityCount += len(activities)
		kidsByUser[k.UserID] = append(kidsByUser[k.UserID], KidBackup{
			ID:          k.ID,
			Name:        k.Name,
			AvatarColor: k.AvatarColor,
			CreatedAt:   k.CreatedAt,
			UpdatedAt:   k.UpdatedAt,
			Activities:  activities,
		})
	}

	for _, u := range users {
		backup.Users = append(backup.Users, UserBackup{
			ID:            u.ID,
			Email:         u.Email,
			PasswordHash:  u.PasswordHash,
			Name:          u.Name,
			OAuthProvider: u.OAuthProvider,
			OAuthSubject:  u.OAuthSubject,
			CreatedAt:     u.CreatedAt,
			UpdatedAt:     u.UpdatedAt,
			Kids:          kidsByUser[u.ID],
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}

	s.log.Info("database exported", "users", len(users), "kids", len(kids), "activities", activityCount)
	return backup, nil
}

// ImportFromFile restores a backup file
func (s *BackupService) ImportFromFile(inputPath string) (*ImportStats, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()
	return s.Import(file)
}

// Import restores a backup in one transaction. Rows get fresh IDs so the
// target may already hold data; users whose email already exists are
// skipped with their kids.
func (s *BackupService) Import(r io.Reader) (*ImportStats, error) {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}
	s.log.Info("importing backup", "version", backup.Version, "exported_at", backup.ExportedAt)

	stats := &ImportStats{}
	err := s.db.WithTx(func(tx *database.Tx) error {
		for _, u := range backup.Users {
			var exists int
			if err := tx.QueryRow("SELECT COUNT(*) FROM users WHERE email = ?", u.Email).Scan(&exists); err != nil {
				return fmt.Errorf("failed to check user %s: %w", u.Email, err)
			}
			if exists > 0 {
				s.log.Warn("skipping existing user", "email", u.Email)
				stats.SkippedUsers++
				continue
			}

			userID, err := tx.ExecReturningID(
				"INSERT INTO users (email, password_hash, name, oauth_provider, oauth_subject, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
				u.Email, u.PasswordHash, u.Name, nullIfEmpty(u.OAuthProvider), nullIfEmpty(u.OAuthSubject), u.CreatedAt, u.UpdatedAt)
			if err != nil {
				return fmt.Errorf("failed to import user %d: %w", u.ID, err)
			}
			stats.Users++

			for _, k := range u.Kids {
				kidID, err := tx.ExecReturningID(
					"INSERT INTO kids (user_id, name, avatar_color, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
					userID, k.Name, k.AvatarColor, k.CreatedAt, k.UpdatedAt)
				if err != nil {
					return fmt.Errorf("failed to import kid %d: %w", k.ID, err)
				}
				if err := repository.InsertActivities(tx, kidID, k.Activities); err != nil {
					return fmt.Errorf("failed to import activities of kid %d: %w", k.ID, err)
				}
				stats.Kids++
				stats.Activities += len(k.Activities)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("database import completed", "users", stats.Users, "skipped", stats.SkippedUsers, "kids", stats.Kids, "activities", stats.Activities)
	return stats, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
