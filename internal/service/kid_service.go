package service

import (
	"errors"
	"fmt"
	"strings"

	"learnlens/internal/logger"
	"learnlens/internal/models"
	"learnlens/internal/repository"
	"learnlens/internal/validation"
)

var (
	ErrKidNotFound = errors.New("kid not found")
	ErrForbidden   = errors.New("kid belongs to another parent")
)

const defaultAvatarColor = "#4A90E2"

// KidService manages a parent's children and their stored activity history
type KidService struct {
	kidRepo      *repository.KidRepository
	activityRepo *repository.ActivityRepository
	log          *logger.Logger
}

// NewKidService creates a new kid service
func NewKidService(kidRepo *repository.KidRepository, activityRepo *repository.ActivityRepository, log *logger.Logger) *KidService {
	return &KidService{kidRepo: kidRepo, activityRepo: activityRepo, log: log}
}

// CreateKid adds a child profile for a parent
func (s *KidService) CreateKid(userID int64, name, avatarColor string) (*models.Kid, error) {
	name = strings.TrimSpace(name)
	if err := validation.ValidateName(name); err != nil {
		return nil, err
	}
	if avatarColor == "" {
		avatarColor = defaultAvatarColor
	}
	if err := validation.ValidateColor(avatarColor); err != nil {
		return nil, err
	}

	kid, err := s.kidRepo.CreateKid(userID, name, avatarColor)
	if err != nil {
		return nil, fmt.Errorf("failed to create kid: %w", err)
	}
	s.log.Info("kid created", "user_id", userID, "kid_id", kid.ID)
	return kid, nil
}

// GetUserKids lists a parent's children with activity stats
func (s *KidService) GetUserKids(userID int64) ([]models.KidWithStats, error) {
	kids, err := s.kidRepo.GetUserKids(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get kids: %w", err)
	}
	return kids, nil
}

// GetOwnedKid returns the kid when it belongs to userID
func (s *KidService) GetOwnedKid(userID, kidID int64) (*models.Kid, error) {
	kid, err := s.kidRepo.GetKidByID(kidID)
	if err != nil {
		return nil, fmt.Errorf("failed to get kid: %w", err)
	}
	if kid == nil {
		return nil, ErrKidNotFound
	}
	if kid.UserID != userID {
		return nil, ErrForbidden
	}
	return kid, nil
}

// ReplaceActivities stores raw as the kid's complete history
func (s *KidService) ReplaceActivities(kidID int64, raw []models.Activity) error {
	if err := s.activityRepo.ReplaceForKid(kidID, raw); err != nil {
		return fmt.Errorf("failed to store activities: %w", err)
	}
	s.log.Info("activities replaced", "kid_id", kidID, "count", len(raw))
	return nil
}

// Activities loads the kid's raw history in source order
func (s *KidService) Activities(kidID int64) ([]models.Activity, error) {
	activities, err := s.activityRepo.ListByKid(kidID)
	if err != nil {
		return nil, fmt.Errorf("failed to load activities: %w", err)
	}
	return activities, nil
}
