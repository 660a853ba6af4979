package httputil

import (
	"net/http"
	"time"
)

const adminTokenCookie = "admin_token"

// CookieConfig holds cookie configuration.
type CookieConfig struct {
	Domain   string
	Path     string
	Secure   bool // Set to true in production (HTTPS)
	SameSite http.SameSite
}

// DefaultCookieConfig returns default cookie configuration.
func DefaultCookieConfig() CookieConfig {
	return CookieConfig{
		Path:     "/",
		Secure:   false, // Set to true in production
		SameSite: http.SameSiteStrictMode,
	}
}

// SetAdminCookie sets an HttpOnly cookie carrying the admin access token.
func SetAdminCookie(w http.ResponseWriter, token string, ttl time.Duration, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     adminTokenCookie,
		Value:    token,
		Path:     cfg.Path,
		Domain:   cfg.Domain,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: cfg.SameSite,
	})
}

// ClearAdminCookie clears the admin token cookie.
func ClearAdminCookie(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     adminTokenCookie,
		Value:    "",
		Path:     cfg.Path,
		Domain:   cfg.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: cfg.SameSite,
	})
}

// GetAdminTokenFromCookie extracts the admin access token from its cookie.
func GetAdminTokenFromCookie(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(adminTokenCookie)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// IsAPIClient reports whether the caller asked for header-only tokens.
// Scripted clients set: X-Client-Type: api
func IsAPIClient(r *http.Request) bool {
	return r.Header.Get("X-Client-Type") == "api"
}
