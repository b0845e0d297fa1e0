package handlers

import (
	"time"

	"learnlens/internal/models"
	"learnlens/internal/service"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type sessionResponse struct {
	User           *models.User `json:"user"`
	Token          string       `json:"token,omitempty"`
	TokenExpiresAt *time.Time   `json:"token_expires_at,omitempty"`
	CSRFToken      string       `json:"csrf_token"`
	ExpiresAt      time.Time    `json:"expires_at"`
}

type createKidRequest struct {
	Name        string `json:"name"`
	AvatarColor string `json:"avatar_color"`
}

type assistantInfo struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type profileResponse struct {
	Assistants      []assistantInfo `json:"assistants"`
	AssistantFilter bool            `json:"assistant_filter"`
	CascadeFilters  bool            `json:"cascade_filters"`
	ScoreFilter     bool            `json:"score_filter"`
	UnlockAssistant string          `json:"unlock_assistant"`
}

type importResponse struct {
	Imported int `json:"imported"`
}

type digestResponse struct {
	Digest service.Digest `json:"digest"`
	Sent   bool           `json:"sent"`
}

// OAuthProviderView is a configured provider as listed to clients
type OAuthProviderView struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	URL   string `json:"url"`
}

type startupResponse struct {
	Ready    bool          `json:"ready"`
	Current  string        `json:"current"`
	Progress int           `json:"progress"`
	Steps    []StartupStep `json:"steps"`
}
