package auth

import (
	"net/http"
	"time"
)

// Refresh cookie name and path. The browser only sends the cookie to the
// renewal endpoint.
const (
	RefreshCookieName = "refreshtoken"
	RefreshCookiePath = "/api/refresh_token"
)

// CookiePolicy is the single description of the refresh cookie, used both
// to set and to clear it so the two always match.
type CookiePolicy struct {
	Name     string
	Path     string
	MaxAge   time.Duration
	Secure   bool
	SameSite http.SameSite
}

// NewRefreshCookiePolicy returns the refresh cookie policy with the given
// lifetime.
func NewRefreshCookiePolicy(maxAge time.Duration, secure bool) CookiePolicy {
	return CookiePolicy{
		Name:     RefreshCookieName,
		Path:     RefreshCookiePath,
		MaxAge:   maxAge,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (p CookiePolicy) cookie(value string, maxAge int, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     p.Name,
		Value:    value,
		Path:     p.Path,
		MaxAge:   maxAge,
		Expires:  expires,
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: p.SameSite,
	}
}

// Set writes the refresh token cookie.
func (p CookiePolicy) Set(w http.ResponseWriter, token string) {
	http.SetCookie(w, p.cookie(token, int(p.MaxAge/time.Second), time.Now().Add(p.MaxAge)))
}

// Clear expires the refresh cookie using the same name, path and flags as Set.
func (p CookiePolicy) Clear(w http.ResponseWriter) {
	http.SetCookie(w, p.cookie("", -1, time.Unix(0, 0)))
}

// Read returns the refresh token sent with r, or "" when absent.
func (p CookiePolicy) Read(r *http.Request) string {
	c, err := r.Cookie(p.Name)
	if err != nil {
		return ""
	}
	return c.Value
}
