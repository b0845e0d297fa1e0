package handlers

import (
	"net/http"

	"learnlens/internal/logger"
)

// Routes groups the handlers served by the API
type Routes struct {
	Auth       *AuthHandler
	Kids       *KidHandler
	Middleware *Middleware
	Startup    *StartupStatus
}

// Handler registers every route and wraps the mux with readiness and
// request logging.
func (rt *Routes) Handler(log *logger.Logger) http.Handler {
	mux := http.NewServeMux()
	m := rt.Middleware

	mux.HandleFunc("GET /status", rt.Startup.ShowStartupStatus)

	// Public routes
	mux.HandleFunc("POST /api/register", m.RateLimit(rt.Auth.Register))
	mux.HandleFunc("POST /api/login", m.RateLimit(rt.Auth.Login))
	mux.HandleFunc("GET /api/oauth/providers", rt.Auth.ListOAuthProviders)
	mux.HandleFunc("GET /auth/{provider}/start", rt.Auth.StartOAuth)
	mux.HandleFunc("GET /auth/{provider}/callback", rt.Auth.OAuthCallback)

	// Protected parent routes
	mux.HandleFunc("GET /api/me", m.RequireAuth(rt.Auth.Me))
	mux.HandleFunc("POST /api/logout", m.RequireAuth(rt.Auth.Logout))
	mux.HandleFunc("GET /api/assistants", m.RequireAuth(rt.Kids.Assistants))
	mux.HandleFunc("GET /api/children", m.RequireAuth(rt.Kids.ListKids))
	mux.HandleFunc("POST /api/children", m.RequireAuth(rt.Kids.CreateKid))

	// Activity views
	mux.HandleFunc("PUT /api/children/{id}/activities", m.RequireAuth(rt.Kids.ReplaceActivities))
	mux.HandleFunc("GET /api/children/{id}/activities", m.RequireAuth(rt.Kids.GetView))
	mux.HandleFunc("GET /api/children/{id}/activities/{key}", m.RequireAuth(rt.Kids.GetActivity))
	mux.HandleFunc("POST /api/children/{id}/filters", m.RequireAuth(rt.Kids.DispatchFilters))
	mux.HandleFunc("POST /api/children/{id}/filters/reset", m.RequireAuth(rt.Kids.ResetFilters))
	mux.HandleFunc("POST /api/children/{id}/digest", m.RequireAuth(rt.Kids.SendDigest))

	return Logging(log, rt.Startup.RequireReady(mux))
}
