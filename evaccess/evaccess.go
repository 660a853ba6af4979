// Package evaccess embeds the EV network application, verification and
// membership workflow into another HTTP service.
//
// Setup:
//
//  1. Apply migrations/001_init.sql with your preferred tool
//  2. Create an instance and mount its handler
//
// Basic usage:
//
//	db, _ := sql.Open("postgres", "postgres://localhost/ev_access?sslmode=disable")
//
//	ev, err := evaccess.New(evaccess.Config{
//	    DB:                db,
//	    JWTSecret:         "your-secret-key-at-least-32-chars",
//	    AdminEmail:        "ops@example.com",
//	    AdminPasswordHash: hash, // from ev-access-hashpw
//	    AppBaseURL:        "https://ev.example.com",
//	})
//	if err != nil {
//	    log.Fatal(err) // Will fail if migrations haven't been run
//	}
//
//	r := chi.NewRouter()
//	r.Mount("/", ev.Handler())
//	http.ListenAndServe(":8080", r)
package evaccess

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/tendant/ev-access/internal/auth"
	"github.com/tendant/ev-access/internal/config"
	httpserver "github.com/tendant/ev-access/internal/http"
	"github.com/tendant/ev-access/internal/http/middleware"
	"github.com/tendant/ev-access/internal/membership"
	"github.com/tendant/ev-access/internal/notification"
	"github.com/tendant/ev-access/internal/repository"
	"github.com/tendant/ev-access/internal/repository/memstore"
)

// Config holds the configuration for an embedded instance.
type Config struct {
	// DB is the Postgres connection. Required unless InMemory is set.
	DB *sql.DB

	// InMemory keeps all state in process memory. Intended for tests and demos.
	InMemory bool

	// JWTSecret signs admin access tokens (required, min 32 chars).
	JWTSecret string

	// JWTIssuer is the issuer claim in admin tokens (default: "ev-access").
	JWTIssuer string

	// AdminEmail and AdminPasswordHash configure the operator account.
	// Without them the admin routes reject every request.
	AdminEmail        string
	AdminPasswordHash string

	// AdminTOTPSecret enables a second factor on admin login (optional).
	AdminTOTPSecret string

	// AppBaseURL is the public site that hosts the verify-email page.
	AppBaseURL string

	// VerificationTTL is how long a verification link stays valid (default: 7 days).
	VerificationTTL time.Duration

	// Sender delivers workflow email (default: log only).
	Sender notification.Sender

	// NotifyInbox receives new-submission notices (optional).
	NotifyInbox string

	// Logger is the structured logger (default: JSON to stdout).
	Logger *slog.Logger
}

// EVAccess is an embedded workflow instance.
type EVAccess struct {
	config        Config
	store         membership.Store
	applications  *membership.ApplicationService
	verifications *membership.VerificationService
	leads         *membership.LeadService
	admin         *auth.AdminService
	dispatcher    *notification.Dispatcher
}

// New creates an instance with the given configuration.
// Returns an error if required database tables don't exist.
func New(cfg Config) (*EVAccess, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	var store membership.Store
	if cfg.InMemory {
		store = memstore.New()
	} else {
		if err := validateSchema(cfg.DB); err != nil {
			return nil, err
		}
		store = repository.NewStore(cfg.DB)
	}

	return &EVAccess{
		config:        cfg,
		store:         store,
		applications:  membership.NewApplicationService(membership.ApplicationConfig{}, store),
		verifications: membership.NewVerificationService(membership.VerificationConfig{TTL: cfg.VerificationTTL}, store),
		leads:         membership.NewLeadService(store),
		admin: auth.NewAdminService(auth.AdminConfig{
			Email:        cfg.AdminEmail,
			PasswordHash: cfg.AdminPasswordHash,
			TOTPSecret:   cfg.AdminTOTPSecret,
			JWTSecret:    []byte(cfg.JWTSecret),
			Issuer:       cfg.JWTIssuer,
		}),
		dispatcher: notification.NewDispatcher(cfg.Sender, cfg.NotifyInbox),
	}, nil
}

// Handler returns an http.Handler serving every route:
//
//	GET   /health
//	POST  /v1/applications                    - Submit an application
//	POST  /v1/leads                           - Submit a contact form
//	POST  /v1/verify-email                    - Redeem a verification token
//	GET   /v1/members/{membershipNumber}      - Public member lookup
//	POST  /v1/admin/login                     - Operator login
//	POST  /v1/admin/logout                    - Clear the admin cookie
//	GET   /v1/admin/applications              - Review queue (protected)
//	GET   /v1/admin/applications/{id}         - Application detail (protected)
//	PATCH /v1/admin/applications/{id}/status  - Change status (protected)
//	POST  /v1/verifications                   - Issue a verification (protected)
//	GET   /v1/admin/members/{membershipNumber} - Full member record (protected)
func (e *EVAccess) Handler() http.Handler {
	return httpserver.NewRouter(httpserver.RouterConfig{
		Logger:              e.config.Logger,
		Store:               e.store,
		ApplicationService:  e.applications,
		VerificationService: e.verifications,
		LeadService:         e.leads,
		AdminService:        e.admin,
		Dispatcher:          e.dispatcher,
		AppBaseURL:          e.config.AppBaseURL,
		MaxRequestBytes:     1 << 20,
		RateLimitConfig:     config.RateLimitConfig{Enabled: false},
		SecurityHeaders:     config.SecurityHeadersConfig{Enabled: false},
	})
}

// Routes registers all routes on an http.ServeMux under prefix:
//
//	mux := http.NewServeMux()
//	ev.Routes(mux, "/ev")
func (e *EVAccess) Routes(mux *http.ServeMux, prefix string) {
	mux.Handle(prefix+"/", http.StripPrefix(prefix, e.Handler()))
}

// AdminMiddleware returns middleware that requires an admin token.
// Use this to protect your own operator routes:
//
//	r.Group(func(r chi.Router) {
//	    r.Use(ev.AdminMiddleware())
//	    r.Get("/ops/report", handler)
//	})
func (e *EVAccess) AdminMiddleware() func(http.Handler) http.Handler {
	return middleware.AdminAuth(e.admin)
}

// IsAdmin reports whether the request passed AdminMiddleware.
func IsAdmin(r *http.Request) bool {
	claims, ok := middleware.GetClaims(r.Context())
	return ok && claims.Role == auth.RoleAdmin
}

func validateConfig(cfg *Config) error {
	if cfg.DB == nil && !cfg.InMemory {
		return errors.New("evaccess: DB is required")
	}
	if cfg.JWTSecret == "" {
		return errors.New("evaccess: JWTSecret is required")
	}
	if len(cfg.JWTSecret) < 32 {
		return errors.New("evaccess: JWTSecret must be at least 32 characters")
	}
	if cfg.AdminEmail != "" && cfg.AdminPasswordHash == "" {
		return errors.New("evaccess: AdminPasswordHash is required when AdminEmail is set")
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.JWTIssuer == "" {
		cfg.JWTIssuer = "ev-access"
	}
	if cfg.VerificationTTL == 0 {
		cfg.VerificationTTL = membership.DefaultVerificationTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	if cfg.Sender == nil {
		cfg.Sender = notification.NewLogSender(cfg.Logger)
	}
}

// validateSchema checks that required database tables exist.
func validateSchema(db *sql.DB) error {
	requiredTables := []string{"applications", "verifications", "members", "leads"}

	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_name = $1
	`

	for _, table := range requiredTables {
		var name string
		err := db.QueryRow(query, table).Scan(&name)
		if err == sql.ErrNoRows {
			return fmt.Errorf("evaccess: missing table '%s' - run migrations/001_init.sql first", table)
		}
		if err != nil {
			return fmt.Errorf("evaccess: failed to check schema: %w", err)
		}
	}

	return nil
}
