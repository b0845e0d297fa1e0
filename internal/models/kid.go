package models

import "time"

// Kid represents a child profile owned by a parent account
type Kid struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"-"`
	Name        string    `json:"name"`
	AvatarColor string    `json:"avatar_color"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// KidWithStats combines a kid with a quick summary of their activity history
type KidWithStats struct {
	Kid
	ActivityCount int    `json:"activity_count"`
	LastActivity  string `json:"last_activity,omitempty"`
}
