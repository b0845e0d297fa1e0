package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"learnlens/internal/security"
)

const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

var errUnverifiedEmail = errors.New("email is not verified")

// OAuthIdentity is the account a provider vouched for
type OAuthIdentity struct {
	Subject string
	Email   string
	Name    string
}

// OAuthProvider is an external login parents can use. Profile reads the
// signed-in account through a client that already carries the access token.
type OAuthProvider struct {
	Label   string
	Config  *oauth2.Config
	Profile func(ctx context.Context, client *http.Client) (OAuthIdentity, error)
}

// GoogleProvider builds the Google login from the app's client credentials
func GoogleProvider(clientID, clientSecret string) OAuthProvider {
	return OAuthProvider{
		Label: "Google",
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		Profile: openIDProfile(googleUserInfoURL),
	}
}

func (p OAuthProvider) configured() bool {
	return p.Config != nil && p.Config.ClientID != "" && p.Config.ClientSecret != "" && p.Profile != nil
}

// openIDProfile reads an OpenID Connect userinfo endpoint. Accounts whose
// email the provider has not verified are refused, since the email is what
// links a provider login to an existing parent.
func openIDProfile(userInfoURL string) func(context.Context, *http.Client) (OAuthIdentity, error) {
	return func(ctx context.Context, client *http.Client) (OAuthIdentity, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, userInfoURL, nil)
		if err != nil {
			return OAuthIdentity{}, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return OAuthIdentity{}, fmt.Errorf("failed to fetch user info: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return OAuthIdentity{}, fmt.Errorf("user info request returned %s", resp.Status)
		}

		var claims struct {
			Subject       string `json:"sub"`
			Email         string `json:"email"`
			EmailVerified bool   `json:"email_verified"`
			Name          string `json:"name"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&claims); err != nil {
			return OAuthIdentity{}, fmt.Errorf("failed to parse user info: %w", err)
		}
		if !claims.EmailVerified {
			return OAuthIdentity{}, errUnverifiedEmail
		}
		return OAuthIdentity{Subject: claims.Subject, Email: claims.Email, Name: claims.Name}, nil
	}
}

// ListOAuthProviders returns the providers a client may start a login with
func (h *AuthHandler) ListOAuthProviders(w http.ResponseWriter, r *http.Request) {
	views := []OAuthProviderView{}
	for key, provider := range h.oauthProviders {
		if !provider.configured() {
			continue
		}
		views = append(views, OAuthProviderView{
			Name:  key,
			Label: provider.Label,
			URL:   "/auth/" + url.PathEscape(key) + "/start",
		})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Name < views[j].Name })
	respondJSON(w, http.StatusOK, views)
}

// StartOAuth redirects to the provider's consent page. The state and the
// PKCE verifier ride in short-lived cookies until the callback.
func (h *AuthHandler) StartOAuth(w http.ResponseWriter, r *http.Request) {
	key, provider, ok := h.oauthProvider(w, r)
	if !ok {
		return
	}

	state := security.GenerateSessionID()
	verifier := oauth2.GenerateVerifier()
	http.SetCookie(w, oauthStateCookie.IssueFor(r, key+":"+state, oauthCookieTTL))
	http.SetCookie(w, oauthVerifierCookie.IssueFor(r, verifier, oauthCookieTTL))

	config := h.oauthConfig(r, key, provider)
	http.Redirect(w, r, config.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.S256ChallengeOption(verifier)), http.StatusFound)
}

// OAuthCallback completes the login started by StartOAuth and opens a
// parent session.
func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	key, provider, ok := h.oauthProvider(w, r)
	if !ok {
		return
	}

	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if code == "" {
		respondWithError(w, h.log, http.StatusBadRequest, "Missing authorization code", "", nil)
		return
	}

	// The state binds the callback to the provider the flow started with.
	verifier := oauthVerifierCookie.Value(r)
	if state == "" || verifier == "" || oauthStateCookie.Value(r) != key+":"+state {
		respondWithError(w, h.log, http.StatusBadRequest, "Invalid OAuth state", "", nil)
		return
	}
	http.SetCookie(w, oauthStateCookie.Clear(r))
	http.SetCookie(w, oauthVerifierCookie.Clear(r))

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	config := h.oauthConfig(r, key, provider)
	token, err := config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, "Failed to exchange OAuth code", "OAuth exchange failed", err)
		return
	}

	identity, err := provider.Profile(ctx, config.Client(ctx, token))
	if errors.Is(err, errUnverifiedEmail) {
		respondWithError(w, h.log, http.StatusBadRequest, provider.Label+" email is not verified", "", nil)
		return
	}
	if err != nil {
		respondWithError(w, h.log, http.StatusBadGateway, "Could not read your "+provider.Label+" account", "OAuth profile failed", err)
		return
	}

	session, _, err := h.authService.OAuthLogin(key, identity.Subject, identity.Email, identity.Name)
	if err != nil {
		respondWithServiceError(w, h.log, "Error completing OAuth login", err)
		return
	}

	http.SetCookie(w, sessionCookie.Issue(r, session.ID, session.ExpiresAt))
	http.Redirect(w, r, strings.TrimRight(h.appBaseURL, "/")+"/", http.StatusSeeOther)
}

func (h *AuthHandler) oauthProvider(w http.ResponseWriter, r *http.Request) (string, OAuthProvider, bool) {
	key := r.PathValue("provider")
	provider, ok := h.oauthProviders[key]
	if !ok || !provider.configured() {
		respondWithError(w, h.log, http.StatusBadRequest, "OAuth provider not configured", "", nil)
		return "", OAuthProvider{}, false
	}
	return key, provider, true
}

// oauthConfig copies the provider config with the callback URL for r
func (h *AuthHandler) oauthConfig(r *http.Request, key string, provider OAuthProvider) oauth2.Config {
	config := *provider.Config
	config.RedirectURL = h.oauthRedirectURL(r, key)
	return config
}

// oauthRedirectURL prefers the configured public base URL and falls back to
// the host the request arrived on.
func (h *AuthHandler) oauthRedirectURL(r *http.Request, key string) string {
	base, err := url.Parse(strings.TrimSpace(h.oauthRedirectBaseURL))
	if err != nil || base.Host == "" {
		base = &url.URL{Scheme: "http", Host: r.Host}
		if security.IsSecureRequest(r) {
			base.Scheme = "https"
		}
	}
	return base.JoinPath("auth", key, "callback").String()
}
