package security

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateSessionID returns a random UUID. Session IDs and OAuth state
// values both come from here.
func GenerateSessionID() string {
	return uuid.New().String()
}

// IsSecureRequest reports whether the client reached the server over HTTPS,
// directly or through a proxy that sets X-Forwarded-Proto or Forwarded.
func IsSecureRequest(r *http.Request) bool {
	if r.TLS != nil || r.URL.Scheme == "https" {
		return true
	}

	// Proxy chains list the client-facing hop first.
	proto, _, _ := strings.Cut(r.Header.Get("X-Forwarded-Proto"), ",")
	if strings.EqualFold(strings.TrimSpace(proto), "https") {
		return true
	}
	return forwardedProto(r.Header.Get("Forwarded")) == "https"
}

// forwardedProto reads proto= from the first element of an RFC 7239
// Forwarded header.
func forwardedProto(header string) string {
	first, _, _ := strings.Cut(header, ",")
	for _, pair := range strings.Split(first, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if ok && strings.EqualFold(key, "proto") {
			return strings.ToLower(strings.Trim(value, `"`))
		}
	}
	return ""
}

// Credential is what a request presented to authenticate. Exactly one of
// Token (a bearer access token) and SessionID (from the cookie) is set.
type Credential struct {
	Token     string
	SessionID string
}

// NeedsCSRF reports whether a request carrying c with the given method must
// also present a CSRF token. Only cookie-authenticated writes do, since
// browsers attach cookies to cross-site requests but never bearer tokens.
func (c Credential) NeedsCSRF(method string) bool {
	if c.SessionID == "" {
		return false
	}
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

// SessionCookie issues, reads and clears one named cookie. Every cookie it
// writes is HttpOnly, SameSite=Lax and Secure when the request came over
// HTTPS.
type SessionCookie struct {
	Name string
}

// Credential extracts the request's credential. A Bearer Authorization
// header takes precedence over the cookie; ok is false when neither is
// present.
func (c SessionCookie) Credential(r *http.Request) (Credential, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if found && strings.EqualFold(scheme, "Bearer") {
		if token = strings.TrimSpace(token); token != "" {
			return Credential{Token: token}, true
		}
	}
	if cookie, err := r.Cookie(c.Name); err == nil && cookie.Value != "" {
		return Credential{SessionID: cookie.Value}, true
	}
	return Credential{}, false
}

// Value returns the cookie's value on r, or "" when it is absent.
func (c SessionCookie) Value(r *http.Request) string {
	cookie, err := r.Cookie(c.Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Issue returns the cookie carrying value until expires.
func (c SessionCookie) Issue(r *http.Request, value string, expires time.Time) *http.Cookie {
	cookie := c.base(r)
	cookie.Value = value
	cookie.Expires = expires
	return cookie
}

// IssueFor returns a cookie carrying value for ttl, as used for the OAuth
// round trip.
func (c SessionCookie) IssueFor(r *http.Request, value string, ttl time.Duration) *http.Cookie {
	cookie := c.Issue(r, value, time.Now().Add(ttl))
	cookie.MaxAge = int(ttl.Seconds())
	return cookie
}

// Clear returns a cookie that removes c from the browser.
func (c SessionCookie) Clear(r *http.Request) *http.Cookie {
	cookie := c.base(r)
	cookie.MaxAge = -1
	return cookie
}

func (c SessionCookie) base(r *http.Request) *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Path:     "/",
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	}
}
