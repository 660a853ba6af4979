package admin

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tendant/ev-access/internal/auth"
	"github.com/tendant/ev-access/internal/domain"
	"github.com/tendant/ev-access/internal/http/features/common"
	"github.com/tendant/ev-access/internal/httputil"
)

// Handler handles operator authentication endpoints.
type Handler struct {
	logger       *slog.Logger
	adminService *auth.AdminService
	cookieConfig httputil.CookieConfig
}

// NewHandler creates a new admin handler.
func NewHandler(logger *slog.Logger, adminService *auth.AdminService, cookieConfig httputil.CookieConfig) *Handler {
	return &Handler{
		logger:       logger,
		adminService: adminService,
		cookieConfig: cookieConfig,
	}
}

// LoginRequest represents an operator login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Code     string `json:"code,omitempty"`
}

// Login handles operator login.
// POST /v1/admin/login
//
// Browsers also receive the token in an HttpOnly cookie.
// Scripted clients (X-Client-Type: api) only get the response body.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	verr := &domain.ValidationError{}
	if req.Email == "" {
		verr.Add("email", "email is required")
	}
	if req.Password == "" {
		verr.Add("password", "password is required")
	}
	if err := verr.Err(); err != nil {
		common.WriteError(w, h.logger, err, "invalid login request")
		return
	}

	token, err := h.adminService.Login(req.Email, req.Password, req.Code)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) || errors.Is(err, domain.ErrInvalidMFACode) {
			h.logger.Warn("admin login failed", "reason", err.Error(), "ip", r.RemoteAddr)
		}
		common.WriteError(w, h.logger, err, "failed to log in")
		return
	}

	if !httputil.IsAPIClient(r) {
		httputil.SetAdminCookie(w, token.AccessToken, time.Duration(token.ExpiresIn)*time.Second, h.cookieConfig)
	}

	h.logger.Info("admin logged in", "ip", r.RemoteAddr)
	httputil.JSON(w, http.StatusOK, token)
}

// Logout clears the admin cookie. Bearer tokens expire on their own.
// POST /v1/admin/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	httputil.ClearAdminCookie(w, h.cookieConfig)
	w.WriteHeader(http.StatusNoContent)
}

// RegisterRoutes registers admin authentication routes.
func (h *Handler) RegisterRoutes(r chi.Router, limit func(http.Handler) http.Handler) {
	r.With(limit).Post("/v1/admin/login", h.Login)
	r.Post("/v1/admin/logout", h.Logout)
}
