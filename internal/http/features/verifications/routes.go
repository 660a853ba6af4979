package verifications

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterPublicRoutes registers token redemption.
func (h *Handler) RegisterPublicRoutes(r chi.Router, limit func(http.Handler) http.Handler) {
	r.With(limit).Post("/v1/verify-email", h.VerifyEmail)
}

// RegisterAdminRoutes registers verification issuance. r must already require
// admin authentication.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/v1/verifications", h.Send)
}
