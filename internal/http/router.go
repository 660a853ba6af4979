package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/tendant/ev-access/internal/auth"
	"github.com/tendant/ev-access/internal/config"
	"github.com/tendant/ev-access/internal/http/features/admin"
	"github.com/tendant/ev-access/internal/http/features/applications"
	"github.com/tendant/ev-access/internal/http/features/leads"
	"github.com/tendant/ev-access/internal/http/features/members"
	"github.com/tendant/ev-access/internal/http/features/verifications"
	"github.com/tendant/ev-access/internal/http/middleware"
	"github.com/tendant/ev-access/internal/httputil"
	"github.com/tendant/ev-access/internal/membership"
	"github.com/tendant/ev-access/internal/notification"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger              *slog.Logger
	Store               membership.Store
	ApplicationService  *membership.ApplicationService
	VerificationService *membership.VerificationService
	LeadService         *membership.LeadService
	AdminService        *auth.AdminService
	Dispatcher          *notification.Dispatcher
	AppBaseURL          string
	MaxRequestBytes     int64
	CookieSecure        bool
	RateLimitConfig     config.RateLimitConfig
	SecurityHeaders     config.SecurityHeadersConfig
}

// NewRouter creates a new HTTP router with all routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(chimw.RequestID)
	r.Use(middleware.Recover(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.SecurityHeaders(cfg.SecurityHeaders))
	r.Use(middleware.RequestSizeLimit(cfg.MaxRequestBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Store.Ping(r.Context()); err != nil {
			cfg.Logger.Error("health check failed", "error", err)
			httputil.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	rateLimiters := middleware.CreateRateLimiters(cfg.RateLimitConfig, cfg.Logger)

	cookieConfig := httputil.DefaultCookieConfig()
	cookieConfig.Secure = cfg.CookieSecure

	applicationHandler := applications.NewHandler(cfg.Logger, cfg.ApplicationService, cfg.Dispatcher)
	verificationHandler := verifications.NewHandler(
		cfg.Logger,
		cfg.VerificationService,
		cfg.ApplicationService,
		cfg.Dispatcher,
		cfg.AppBaseURL,
	)
	memberHandler := members.NewHandler(cfg.Logger, cfg.VerificationService)
	leadHandler := leads.NewHandler(cfg.Logger, cfg.LeadService, cfg.Dispatcher)
	adminHandler := admin.NewHandler(cfg.Logger, cfg.AdminService, cookieConfig)

	// Public routes
	applicationHandler.RegisterPublicRoutes(r, rateLimiters[middleware.LimitIntake])
	leadHandler.RegisterRoutes(r, rateLimiters[middleware.LimitIntake])
	verificationHandler.RegisterPublicRoutes(r, rateLimiters[middleware.LimitVerify])
	r.Group(func(r chi.Router) {
		r.Use(rateLimiters[middleware.LimitVerify])
		memberHandler.RegisterPublicRoutes(r)
	})
	adminHandler.RegisterRoutes(r, rateLimiters[middleware.LimitLogin])

	// Operator routes
	if !cfg.AdminService.Enabled() {
		cfg.Logger.Warn("admin account not configured, admin routes will reject every request")
	}
	r.Group(func(r chi.Router) {
		r.Use(rateLimiters[middleware.LimitAdmin])
		r.Use(middleware.AdminAuth(cfg.AdminService))
		applicationHandler.RegisterAdminRoutes(r)
		verificationHandler.RegisterAdminRoutes(r)
		memberHandler.RegisterAdminRoutes(r)
	})

	return r
}
