package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config holds application configuration.
type Config struct {
	// Server
	ServerAddr      string `yaml:"server_addr"`
	ServerPort      int    `yaml:"server_port"`
	MaxRequestBytes int64  `yaml:"max_request_bytes"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Storage
	Store             string        `yaml:"store"`
	DBHost            string        `yaml:"db_host"`
	DBPort            int           `yaml:"db_port"`
	DBUser            string        `yaml:"db_user"`
	DBPassword        string        `yaml:"db_password"`
	DBName            string        `yaml:"db_name"`
	DBSSLMode         string        `yaml:"db_sslmode"`
	DBMaxOpenConns    int           `yaml:"db_max_open_conns"`
	DBMaxIdleConns    int           `yaml:"db_max_idle_conns"`
	DBConnMaxLifetime time.Duration `yaml:"db_conn_max_lifetime"`

	// Workflow
	AppBaseURL            string        `yaml:"app_base_url"`
	VerificationTTL       time.Duration `yaml:"verification_ttl"`
	StrictEmailValidation bool          `yaml:"strict_email_validation"`
	BlockDisposableEmail  bool          `yaml:"block_disposable_email"`

	// Admin
	AdminEmail        string        `yaml:"admin_email"`
	AdminPasswordHash string        `yaml:"admin_password_hash"`
	AdminTOTPSecret   string        `yaml:"admin_totp_secret"`
	JWTSecret         string        `yaml:"jwt_secret"`
	JWTIssuer         string        `yaml:"jwt_issuer"`
	AdminTokenTTL     time.Duration `yaml:"admin_token_ttl"`
	CookieSecure      bool          `yaml:"cookie_secure"`

	// Email
	MailFrom       string `yaml:"mail_from"`
	MailFromName   string `yaml:"mail_from_name"`
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	SMTPHost       string `yaml:"smtp_host"`
	SMTPPort       int    `yaml:"smtp_port"`
	SMTPUser       string `yaml:"smtp_user"`
	SMTPPassword   string `yaml:"smtp_password"`
	NotifyInbox    string `yaml:"notify_inbox"`

	RateLimit       RateLimitConfig       `yaml:"rate_limit"`
	SecurityHeaders SecurityHeadersConfig `yaml:"security_headers"`
}

// RateLimitConfig holds per-route-group request budgets.
type RateLimitConfig struct {
	Enabled bool `yaml:"enabled"`

	IntakeRequests int           `yaml:"intake_requests"`
	IntakeWindow   time.Duration `yaml:"intake_window"`

	VerifyRequests int           `yaml:"verify_requests"`
	VerifyWindow   time.Duration `yaml:"verify_window"`

	LoginRequests int           `yaml:"login_requests"`
	LoginWindow   time.Duration `yaml:"login_window"`

	AdminRequests int           `yaml:"admin_requests"`
	AdminWindow   time.Duration `yaml:"admin_window"`
}

// SecurityHeadersConfig holds response security headers.
type SecurityHeadersConfig struct {
	Enabled            bool   `yaml:"enabled"`
	CSP                string `yaml:"csp"`
	HSTSMaxAge         int    `yaml:"hsts_max_age"`
	FrameOptions       string `yaml:"frame_options"`
	ContentTypeOptions string `yaml:"content_type_options"`
	XSSProtection      string `yaml:"xss_protection"`
	ReferrerPolicy     string `yaml:"referrer_policy"`
	PermissionsPolicy  string `yaml:"permissions_policy"`
}

func defaults() *Config {
	return &Config{
		ServerAddr:      "0.0.0.0",
		ServerPort:      8080,
		MaxRequestBytes: 1 << 20,

		LogLevel:  "info",
		LogFormat: "json",

		// Database defaults (matches podman setup: make postgres-start)
		Store:      StorePostgres,
		DBHost:     "localhost",
		DBPort:     25432,
		DBUser:     "postgres",
		DBPassword: "postgres",
		DBName:     "ev_access",
		DBSSLMode:  "disable",

		AppBaseURL:      "http://localhost:5173",
		VerificationTTL: 7 * 24 * time.Hour,

		JWTIssuer:     "ev-access",
		AdminTokenTTL: 8 * time.Hour,

		MailFromName: "EV Access",
		SMTPPort:     587,

		RateLimit: RateLimitConfig{
			Enabled:        true,
			IntakeRequests: 10,
			IntakeWindow:   time.Minute,
			VerifyRequests: 20,
			VerifyWindow:   time.Minute,
			LoginRequests:  5,
			LoginWindow:    15 * time.Minute,
			AdminRequests:  120,
			AdminWindow:    time.Minute,
		},
		SecurityHeaders: SecurityHeadersConfig{
			Enabled:            true,
			CSP:                "default-src 'none'; frame-ancestors 'none'",
			HSTSMaxAge:         31536000,
			FrameOptions:       "DENY",
			ContentTypeOptions: "nosniff",
			XSSProtection:      "0",
			ReferrerPolicy:     "strict-origin-when-cross-origin",
			PermissionsPolicy:  "geolocation=(), camera=(), microphone=()",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// CONFIG_FILE (if set), then environment variables.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) overrideWithEnv() {
	c.ServerAddr = getEnv("SERVER_ADDR", c.ServerAddr)
	c.ServerPort = getEnvInt("SERVER_PORT", c.ServerPort)
	c.MaxRequestBytes = getEnvInt64("MAX_REQUEST_BYTES", c.MaxRequestBytes)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)

	c.Store = strings.ToLower(getEnv("STORE", c.Store))
	c.DBHost = getEnv("DB_HOST", c.DBHost)
	c.DBPort = getEnvInt("DB_PORT", c.DBPort)
	c.DBUser = getEnv("DB_USER", c.DBUser)
	c.DBPassword = getEnv("DB_PASSWORD", c.DBPassword)
	c.DBName = getEnv("DB_NAME", c.DBName)
	c.DBSSLMode = getEnv("DB_SSLMODE", c.DBSSLMode)
	c.DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", c.DBMaxOpenConns)
	c.DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", c.DBMaxIdleConns)
	c.DBConnMaxLifetime = getEnvDuration("DB_CONN_MAX_LIFETIME", c.DBConnMaxLifetime)

	c.AppBaseURL = strings.TrimRight(getEnv("APP_BASE_URL", c.AppBaseURL), "/")
	c.VerificationTTL = getEnvDuration("VERIFICATION_TTL", c.VerificationTTL)
	c.StrictEmailValidation = getEnvBool("STRICT_EMAIL_VALIDATION", c.StrictEmailValidation)
	c.BlockDisposableEmail = getEnvBool("BLOCK_DISPOSABLE_EMAIL", c.BlockDisposableEmail)

	c.AdminEmail = getEnv("ADMIN_EMAIL", c.AdminEmail)
	c.AdminPasswordHash = getEnv("ADMIN_PASSWORD_HASH", c.AdminPasswordHash)
	c.AdminTOTPSecret = getEnv("ADMIN_TOTP_SECRET", c.AdminTOTPSecret)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWTIssuer = getEnv("JWT_ISSUER", c.JWTIssuer)
	c.AdminTokenTTL = getEnvDuration("ADMIN_TOKEN_TTL", c.AdminTokenTTL)
	c.CookieSecure = getEnvBool("COOKIE_SECURE", c.CookieSecure)

	c.MailFrom = getEnv("MAIL_FROM", c.MailFrom)
	c.MailFromName = getEnv("MAIL_FROM_NAME", c.MailFromName)
	c.SendGridAPIKey = getEnv("SENDGRID_API_KEY", c.SendGridAPIKey)
	c.SMTPHost = getEnv("SMTP_HOST", c.SMTPHost)
	c.SMTPPort = getEnvInt("SMTP_PORT", c.SMTPPort)
	c.SMTPUser = getEnv("SMTP_USER", c.SMTPUser)
	c.SMTPPassword = getEnv("SMTP_PASSWORD", c.SMTPPassword)
	c.NotifyInbox = getEnv("NOTIFY_INBOX", c.NotifyInbox)

	c.RateLimit.Enabled = getEnvBool("RATE_LIMIT_ENABLED", c.RateLimit.Enabled)
	c.RateLimit.IntakeRequests = getEnvInt("RATE_LIMIT_INTAKE_REQUESTS", c.RateLimit.IntakeRequests)
	c.RateLimit.IntakeWindow = getEnvDuration("RATE_LIMIT_INTAKE_WINDOW", c.RateLimit.IntakeWindow)
	c.RateLimit.VerifyRequests = getEnvInt("RATE_LIMIT_VERIFY_REQUESTS", c.RateLimit.VerifyRequests)
	c.RateLimit.VerifyWindow = getEnvDuration("RATE_LIMIT_VERIFY_WINDOW", c.RateLimit.VerifyWindow)
	c.RateLimit.LoginRequests = getEnvInt("RATE_LIMIT_LOGIN_REQUESTS", c.RateLimit.LoginRequests)
	c.RateLimit.LoginWindow = getEnvDuration("RATE_LIMIT_LOGIN_WINDOW", c.RateLimit.LoginWindow)
	c.RateLimit.AdminRequests = getEnvInt("RATE_LIMIT_ADMIN_REQUESTS", c.RateLimit.AdminRequests)
	c.RateLimit.AdminWindow = getEnvDuration("RATE_LIMIT_ADMIN_WINDOW", c.RateLimit.AdminWindow)

	c.SecurityHeaders.Enabled = getEnvBool("SECURITY_HEADERS_ENABLED", c.SecurityHeaders.Enabled)
	c.SecurityHeaders.CSP = getEnv("SECURITY_HEADERS_CSP", c.SecurityHeaders.CSP)
	c.SecurityHeaders.HSTSMaxAge = getEnvInt("SECURITY_HEADERS_HSTS_MAX_AGE", c.SecurityHeaders.HSTSMaxAge)
}

// Validate checks required fields and value sets.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Store != StoreMemory && c.Store != StorePostgres {
		return fmt.Errorf("STORE must be %q or %q, got %q", StoreMemory, StorePostgres, c.Store)
	}
	if c.AdminEmail != "" && c.AdminPasswordHash == "" {
		return fmt.Errorf("ADMIN_PASSWORD_HASH is required when ADMIN_EMAIL is set")
	}
	if c.VerificationTTL <= 0 {
		return fmt.Errorf("VERIFICATION_TTL must be positive")
	}
	if (c.HasSendGrid() || c.HasSMTP()) && c.MailFrom == "" {
		return fmt.Errorf("MAIL_FROM is required when an email provider is configured")
	}
	return nil
}

// HasSendGrid returns true if SendGrid delivery is configured.
func (c *Config) HasSendGrid() bool {
	return c.SendGridAPIKey != ""
}

// HasSMTP returns true if SMTP delivery is configured.
func (c *Config) HasSMTP() bool {
	return c.SMTPHost != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
