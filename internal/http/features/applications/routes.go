package applications

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterPublicRoutes registers the intake form route.
func (h *Handler) RegisterPublicRoutes(r chi.Router, limit func(http.Handler) http.Handler) {
	r.With(limit).Post("/v1/applications", h.Submit)
}

// RegisterAdminRoutes registers the review queue routes. r must already
// require admin authentication.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/v1/admin/applications", h.List)
	r.Get("/v1/admin/applications/{id}", h.Get)
	r.Patch("/v1/admin/applications/{id}/status", h.UpdateStatus)
}
