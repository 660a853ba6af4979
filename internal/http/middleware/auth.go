package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/tendant/ev-access/internal/auth"
	"github.com/tendant/ev-access/internal/httputil"
)

type contextKey string

// ClaimsKey is the context key for the admin token claims.
const ClaimsKey contextKey = "admin_claims"

// TokenValidator validates admin access tokens.
type TokenValidator interface {
	ValidateToken(token string) (*auth.AdminClaims, error)
}

// AdminAuth creates middleware that requires a valid admin access token.
// Checks Authorization header first, then falls back to cookie for the back office UI.
func AdminAuth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var tokenString string

			authHeader := r.Header.Get("Authorization")
			if authHeader != "" {
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
					tokenString = strings.TrimSpace(parts[1])
				}
			}

			if tokenString == "" {
				if token, ok := httputil.GetAdminTokenFromCookie(r); ok {
					tokenString = token
				}
			}

			if tokenString == "" {
				httputil.ErrorWithCode(w, http.StatusUnauthorized, httputil.CodeUnauthorized, "missing authorization")
				return
			}

			claims, err := validator.ValidateToken(tokenString)
			if err != nil {
				httputil.ErrorWithCode(w, http.StatusUnauthorized, httputil.CodeUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClaims extracts the admin claims from the request context.
func GetClaims(ctx context.Context) (*auth.AdminClaims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*auth.AdminClaims)
	return claims, ok
}
