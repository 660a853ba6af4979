package applications

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tendant/ev-access/internal/domain"
	"github.com/tendant/ev-access/internal/http/features/common"
	"github.com/tendant/ev-access/internal/httputil"
	"github.com/tendant/ev-access/internal/membership"
	"github.com/tendant/ev-access/internal/notification"
)

// AdminNotifier forwards new submissions to the operator inbox.
type AdminNotifier interface {
	SendAdminNotification(ctx context.Context, n notification.AdminNotification) error
}

type Handler struct {
	logger       *slog.Logger
	applications *membership.ApplicationService
	notifier     AdminNotifier
}

func NewHandler(logger *slog.Logger, applications *membership.ApplicationService, notifier AdminNotifier) *Handler {
	return &Handler{
		logger:       logger,
		applications: applications,
		notifier:     notifier,
	}
}

type SubmitRequest struct {
	Kind        string `json:"kind"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	VehicleType string `json:"vehicleType"`
	City        string `json:"city"`
	Notes       string `json:"notes"`
}

// Submit handles the public early-access and host application forms.
// POST /v1/applications
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	app, err := h.applications.Submit(r.Context(), membership.SubmitApplicationInput{
		Kind:        req.Kind,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
		VehicleType: req.VehicleType,
		City:        req.City,
		Notes:       req.Notes,
	})
	if err != nil {
		common.WriteError(w, h.logger, err, "failed to submit application")
		return
	}

	h.logger.Info("application submitted", "application_id", app.ID, "kind", app.Kind)

	if err := h.notifier.SendAdminNotification(r.Context(), notification.AdminNotification{
		Subject: "New " + string(app.Kind) + " application",
		Fields: map[string]string{
			"name":        app.FullName(),
			"email":       app.Email,
			"phone":       app.Phone,
			"vehicleType": app.VehicleType,
			"city":        app.City,
		},
	}); err != nil {
		h.logger.Warn("failed to notify admin inbox", "error", err, "application_id", app.ID)
	}

	httputil.JSON(w, http.StatusCreated, common.NewApplicationView(app))
}

type ListResponse struct {
	Applications []common.ApplicationView `json:"applications"`
}

// List returns applications, optionally filtered by kind and status.
// GET /v1/admin/applications?kind=&status=&limit=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	verr := &domain.ValidationError{}

	var filter domain.ApplicationFilter
	if v := q.Get("kind"); v != "" {
		kind, ok := domain.ParseApplicationKind(v)
		if !ok {
			verr.Add("kind", "kind must be early_access or host")
		}
		filter.Kind = kind
	}
	if v := q.Get("status"); v != "" {
		status, ok := domain.ParseApplicationStatus(v)
		if !ok {
			verr.Add("status", "unknown status")
		}
		filter.Status = status
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 || limit > 500 {
			verr.Add("limit", "limit must be between 1 and 500")
		}
		filter.Limit = limit
	}
	if err := verr.Err(); err != nil {
		common.WriteError(w, h.logger, err, "invalid filter")
		return
	}

	apps, err := h.applications.List(r.Context(), filter)
	if err != nil {
		common.WriteError(w, h.logger, err, "failed to list applications")
		return
	}

	resp := ListResponse{Applications: make([]common.ApplicationView, 0, len(apps))}
	for _, app := range apps {
		resp.Applications = append(resp.Applications, common.NewApplicationView(app))
	}
	httputil.JSON(w, http.StatusOK, resp)
}

// Get returns a single application.
// GET /v1/admin/applications/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	app, err := h.applications.Get(r.Context(), id)
	if err != nil {
		common.WriteError(w, h.logger, err, "failed to get application", "application_id", id)
		return
	}
	httputil.JSON(w, http.StatusOK, common.NewApplicationView(app))
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus moves an application to a new review status.
// PATCH /v1/admin/applications/{id}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	app, err := h.applications.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		common.WriteError(w, h.logger, err, "failed to update application status", "application_id", id)
		return
	}

	h.logger.Info("application status updated", "application_id", app.ID, "status", app.Status)
	httputil.JSON(w, http.StatusOK, common.NewApplicationView(app))
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.FieldErrors(w, map[string]string{"id": "invalid application id"})
		return uuid.Nil, false
	}
	return id, true
}
