package leads

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tendant/ev-access/internal/http/features/common"
	"github.com/tendant/ev-access/internal/httputil"
	"github.com/tendant/ev-access/internal/membership"
	"github.com/tendant/ev-access/internal/notification"
)

// AdminNotifier forwards new leads to the operator inbox.
type AdminNotifier interface {
	SendAdminNotification(ctx context.Context, n notification.AdminNotification) error
}

type Handler struct {
	logger   *slog.Logger
	leads    *membership.LeadService
	notifier AdminNotifier
}

func NewHandler(logger *slog.Logger, leads *membership.LeadService, notifier AdminNotifier) *Handler {
	return &Handler{logger: logger, leads: leads, notifier: notifier}
}

type SubmitRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Source  string `json:"source"`
	Message string `json:"message"`
}

// Submit handles the public contact form.
// POST /v1/leads
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	lead, err := h.leads.Submit(r.Context(), membership.SubmitLeadInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Source:  req.Source,
		Message: req.Message,
	})
	if err != nil {
		common.WriteError(w, h.logger, err, "failed to submit lead")
		return
	}

	h.logger.Info("lead submitted", "lead_id", lead.ID, "source", lead.Source)

	if err := h.notifier.SendAdminNotification(r.Context(), notification.AdminNotification{
		Subject: "New lead",
		Fields: map[string]string{
			"name":    lead.Name,
			"email":   lead.Email,
			"phone":   lead.Phone,
			"source":  lead.Source,
			"message": lead.Message,
		},
	}); err != nil {
		h.logger.Warn("failed to notify admin inbox", "error", err, "lead_id", lead.ID)
	}

	httputil.JSON(w, http.StatusCreated, common.NewLeadView(lead))
}

func (h *Handler) RegisterRoutes(r chi.Router, limit func(http.Handler) http.Handler) {
	r.With(limit).Post("/v1/leads", h.Submit)
}
