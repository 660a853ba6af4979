package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/tendant/ev-access/internal/auth"
	"github.com/tendant/ev-access/internal/config"
	httpserver "github.com/tendant/ev-access/internal/http"
	"github.com/tendant/ev-access/internal/logger"
	"github.com/tendant/ev-access/internal/membership"
	"github.com/tendant/ev-access/internal/notification"
	"github.com/tendant/ev-access/internal/repository"
	"github.com/tendant/ev-access/internal/repository/memstore"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	store, closeStore, err := openStore(cfg, log)
	if err != nil {
		log.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	// Initialize services
	applicationService := membership.NewApplicationService(membership.ApplicationConfig{
		StrictEmailValidation: cfg.StrictEmailValidation,
		BlockDisposableEmail:  cfg.BlockDisposableEmail,
	}, store)
	verificationService := membership.NewVerificationService(membership.VerificationConfig{
		TTL: cfg.VerificationTTL,
	}, store)
	leadService := membership.NewLeadService(store)

	adminService := auth.NewAdminService(auth.AdminConfig{
		Email:        cfg.AdminEmail,
		PasswordHash: cfg.AdminPasswordHash,
		TOTPSecret:   cfg.AdminTOTPSecret,
		JWTSecret:    []byte(cfg.JWTSecret),
		TokenTTL:     cfg.AdminTokenTTL,
		Issuer:       cfg.JWTIssuer,
	})

	dispatcher := notification.NewDispatcher(newSender(cfg, log), cfg.NotifyInbox)

	router := httpserver.NewRouter(httpserver.RouterConfig{
		Logger:              log,
		Store:               store,
		ApplicationService:  applicationService,
		VerificationService: verificationService,
		LeadService:         leadService,
		AdminService:        adminService,
		Dispatcher:          dispatcher,
		AppBaseURL:          cfg.AppBaseURL,
		MaxRequestBytes:     cfg.MaxRequestBytes,
		CookieSecure:        cfg.CookieSecure,
		RateLimitConfig:     cfg.RateLimit,
		SecurityHeaders:     cfg.SecurityHeaders,
	})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.ServerAddr, cfg.ServerPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("starting server", "addr", addr, "store", cfg.Store)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("server shutdown error", "error", err)
	}

	log.Info("server stopped")
}

func openStore(cfg *config.Config, log *slog.Logger) (membership.Store, func(), error) {
	if cfg.Store == config.StoreMemory {
		log.Warn("using in-memory store, data is lost on restart")
		return memstore.New(), func() {}, nil
	}

	db, err := repository.NewDB(repository.Config{
		Host:            cfg.DBHost,
		Port:            cfg.DBPort,
		User:            cfg.DBUser,
		Password:        cfg.DBPassword,
		DBName:          cfg.DBName,
		SSLMode:         cfg.DBSSLMode,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, nil, err
	}
	log.Info("connected to database", "host", cfg.DBHost, "db", cfg.DBName)
	return repository.NewStore(db), func() { db.Close() }, nil
}

func newSender(cfg *config.Config, log *slog.Logger) notification.Sender {
	switch {
	case cfg.HasSendGrid():
		log.Info("email delivery via sendgrid")
		return notification.NewSendGridSender(notification.SendGridConfig{
			APIKey:   cfg.SendGridAPIKey,
			From:     cfg.MailFrom,
			FromName: cfg.MailFromName,
		})
	case cfg.HasSMTP():
		log.Info("email delivery via smtp", "host", cfg.SMTPHost)
		return notification.NewSMTPSender(notification.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
			FromName: cfg.MailFromName,
		})
	default:
		log.Warn("no email provider configured, messages will only be logged")
		return notification.NewLogSender(log)
	}
}
