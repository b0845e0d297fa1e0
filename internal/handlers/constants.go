package handlers

import (
	"time"

	"learnlens/internal/security"
)

const (
	SessionCookieName = "session_id"

	maxActivitiesBody = 10 << 20
	maxCommandBody    = 64 << 10

	ErrInvalidJSON         = "Invalid JSON body"
	ErrUnauthorized        = "Unauthorized"
	ErrInvalidCSRFToken    = "Invalid CSRF token"
	ErrInternalServerError = "Internal server error"

	oauthCookieTTL = 10 * time.Minute
)

var (
	sessionCookie       = security.SessionCookie{Name: SessionCookieName}
	oauthStateCookie    = security.SessionCookie{Name: "oauth_state"}
	oauthVerifierCookie = security.SessionCookie{Name: "oauth_verifier"}
)
