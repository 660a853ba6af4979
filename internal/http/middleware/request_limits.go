package middleware

import (
	"fmt"
	"net/http"

	"github.com/tendant/ev-access/internal/httputil"
)

// RequestSizeLimit creates middleware that limits the maximum request body size.
// Requests that declare a larger Content-Length are refused before the handler
// runs; the rest are capped with http.MaxBytesReader. maxBytes <= 0 disables it.
func RequestSizeLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if maxBytes <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				httputil.ErrorWithCode(w, http.StatusRequestEntityTooLarge, httputil.CodeBodyTooLarge,
					fmt.Sprintf("request body too large (max %d bytes)", maxBytes))
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
