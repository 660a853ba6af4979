package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/tendant/ev-access/internal/config"
	"github.com/tendant/ev-access/internal/httputil"
)

// Rate limiter groups.
const (
	LimitIntake = "intake"
	LimitVerify = "verify"
	LimitLogin  = "login"
	LimitAdmin  = "admin"
)

// RateLimitConfig holds rate limiting configuration for a specific endpoint type.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Logger   *slog.Logger
}

// RateLimit creates an IP-based rate limiter middleware with logging.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if cfg.Requests <= 0 || cfg.Window <= 0 {
		return NoRateLimit()
	}
	return httprate.Limit(
		cfg.Requests,
		cfg.Window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Logger != nil {
				cfg.Logger.Warn("rate limit exceeded",
					"ip", r.RemoteAddr,
					"path", r.URL.Path,
					"method", r.Method,
					"user_agent", r.UserAgent(),
				)
			}
			httputil.ErrorWithCode(w, http.StatusTooManyRequests, httputil.CodeRateLimited,
				"rate limit exceeded. please try again later")
		}),
	)
}

// NoRateLimit returns a no-op middleware when rate limiting is disabled.
func NoRateLimit() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return next
	}
}

// CreateRateLimiters creates one limiter per route group. Each group keeps its
// own counters.
func CreateRateLimiters(cfg config.RateLimitConfig, logger *slog.Logger) map[string]func(http.Handler) http.Handler {
	if !cfg.Enabled {
		noOp := NoRateLimit()
		return map[string]func(http.Handler) http.Handler{
			LimitIntake: noOp,
			LimitVerify: noOp,
			LimitLogin:  noOp,
			LimitAdmin:  noOp,
		}
	}

	limiter := func(requests int, window time.Duration) func(http.Handler) http.Handler {
		return RateLimit(RateLimitConfig{Requests: requests, Window: window, Logger: logger})
	}

	return map[string]func(http.Handler) http.Handler{
		LimitIntake: limiter(cfg.IntakeRequests, cfg.IntakeWindow),
		LimitVerify: limiter(cfg.VerifyRequests, cfg.VerifyWindow),
		LimitLogin:  limiter(cfg.LoginRequests, cfg.LoginWindow),
		LimitAdmin:  limiter(cfg.AdminRequests, cfg.AdminWindow),
	}
}
