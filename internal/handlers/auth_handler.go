package handlers

import (
	"net/http"

	"learnlens/internal/logger"
	"learnlens/internal/models"
	"learnlens/internal/security"
	"learnlens/internal/service"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService          *service.AuthService
	viewService          *service.ViewService
	csrf                 *security.CSRFGuard
	oauthProviders       map[string]OAuthProvider
	oauthRedirectBaseURL string
	appBaseURL           string
	log                  *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, viewService *service.ViewService, csrf *security.CSRFGuard, oauthProviders map[string]OAuthProvider, oauthRedirectBaseURL, appBaseURL string, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService:          authService,
		viewService:          viewService,
		csrf:                 csrf,
		oauthProviders:       oauthProviders,
		oauthRedirectBaseURL: oauthRedirectBaseURL,
		appBaseURL:           appBaseURL,
		log:                  log,
	}
}

// Register creates an account and logs it in
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, maxCommandBody, &req); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}

	if _, err := h.authService.Register(req.Email, req.Password, req.Name); err != nil {
		respondWithServiceError(w, h.log, "Error registering user", err)
		return
	}

	session, user, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		respondWithServiceError(w, h.log, "Error logging in after registration", err)
		return
	}
	h.startSession(w, r, http.StatusCreated, session, user)
}

// Login authenticates with email and password
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, maxCommandBody, &req); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}

	session, user, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		respondWithServiceError(w, h.log, "Error logging in", err)
		return
	}
	h.startSession(w, r, http.StatusOK, session, user)
}

// startSession sets the session cookie and returns an access token for
// API clients alongside the CSRF token for browser clients.
func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, status int, session *models.Session, user *models.User) {
	token, tokenExpiry, err := h.authService.IssueToken(session)
	if err != nil {
		respondWithError(w, h.log, http.StatusInternalServerError, ErrInternalServerError, "Error issuing access token", err)
		return
	}

	http.SetCookie(w, sessionCookie.Issue(r, session.ID, session.ExpiresAt))
	respondJSON(w, status, sessionResponse{
		User:           user,
		Token:          token,
		TokenExpiresAt: &tokenExpiry,
		CSRFToken:      h.csrf.Token(session.ID),
		ExpiresAt:      session.ExpiresAt,
	})
}

// Me returns the current user and a fresh CSRF token
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())
	respondJSON(w, http.StatusOK, sessionResponse{
		User:      GetUserFromContext(r.Context()),
		CSRFToken: h.csrf.Token(session.ID),
		ExpiresAt: session.ExpiresAt,
	})
}

// Logout ends the session, revoking its access tokens and open views
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())
	if err := h.authService.Logout(session.ID); err != nil {
		respondWithError(w, h.log, http.StatusInternalServerError, ErrInternalServerError, "Error logging out", err)
		return
	}
	h.viewService.Forget(session.ID)

	http.SetCookie(w, sessionCookie.Clear(r))
	w.WriteHeader(http.StatusNoContent)
}
