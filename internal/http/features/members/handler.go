package members

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tendant/ev-access/internal/http/features/common"
	"github.com/tendant/ev-access/internal/httputil"
	"github.com/tendant/ev-access/internal/membership"
)

type Handler struct {
	logger        *slog.Logger
	verifications *membership.VerificationService
}

func NewHandler(logger *slog.Logger, verifications *membership.VerificationService) *Handler {
	return &Handler{logger: logger, verifications: verifications}
}

// Get returns the public view of a member.
// GET /v1/members/{membershipNumber}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "membershipNumber")
	member, err := h.verifications.GetMember(r.Context(), number)
	if err != nil {
		common.WriteError(w, h.logger, err, "failed to get member", "membership_number", number)
		return
	}
	httputil.JSON(w, http.StatusOK, common.NewPublicMemberView(member))
}

// AdminGet returns the full member record including contact details.
// GET /v1/admin/members/{membershipNumber}
func (h *Handler) AdminGet(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "membershipNumber")
	member, err := h.verifications.GetMember(r.Context(), number)
	if err != nil {
		common.WriteError(w, h.logger, err, "failed to get member", "membership_number", number)
		return
	}
	httputil.JSON(w, http.StatusOK, common.NewMemberView(member))
}

func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/v1/members/{membershipNumber}", h.Get)
}

func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/v1/admin/members/{membershipNumber}", h.AdminGet)
}
