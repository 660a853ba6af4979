package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tendant/ev-access/internal/config"
	"github.com/tendant/ev-access/internal/httputil"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func TestRateLimit(t *testing.T) {
	cfg := RateLimitConfig{
		Requests: 2,
		Window:   time.Second,
		Logger:   discardLogger,
	}

	handler := RateLimit(cfg)(okHandler())

	for i, want := range []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest("GET", "/test", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != want {
			t.Errorf("request %d: got status %d, want %d", i+1, w.Code, want)
		}
		if w.Code == http.StatusTooManyRequests {
			var body httputil.ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Code != httputil.CodeRateLimited {
				t.Errorf("code = %q, want %q", body.Code, httputil.CodeRateLimited)
			}
		}
	}

	// A different client has its own budget.
	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "10.0.0.9:4444"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("other client: got status %d, want %d", w.Code, http.StatusOK)
	}
}

func TestNoRateLimit(t *testing.T) {
	handler := NoRateLimit()(okHandler())

	for i := 0; i < 100; i++ {
		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Request %d: got status %d, want %d", i, w.Code, http.StatusOK)
		}
	}
}

func TestCreateRateLimiters_Disabled(t *testing.T) {
	limiters := CreateRateLimiters(config.RateLimitConfig{Enabled: false}, discardLogger)

	handler := limiters[LimitLogin](okHandler())
	for i := 0; i < 100; i++ {
		req := httptest.NewRequest("POST", "/v1/admin/login", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Request %d: got status %d, want %d", i, w.Code, http.StatusOK)
		}
	}
}

func TestCreateRateLimiters_Enabled(t *testing.T) {
	cfg := config.RateLimitConfig{
		Enabled:       true,
		LoginRequests: 1,
		LoginWindow:   time.Minute,
	}
	limiters := CreateRateLimiters(cfg, discardLogger)

	for _, key := range []string{LimitIntake, LimitVerify, LimitLogin, LimitAdmin} {
		if limiters[key] == nil {
			t.Errorf("%s limiter should not be nil", key)
		}
	}

	handler := limiters[LimitLogin](okHandler())
	codes := make([]int, 2)
	for i := range codes {
		req := httptest.NewRequest("POST", "/v1/admin/login", nil)
		req.RemoteAddr = "192.168.1.2:1000"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		codes[i] = w.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Errorf("login limiter codes = %v", codes)
	}

	// Zero budget means the group is unlimited.
	intake := limiters[LimitIntake](okHandler())
	for i := 0; i < 10; i++ {
		w := httptest.NewRecorder()
		intake.ServeHTTP(w, httptest.NewRequest("POST", "/v1/applications", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("intake request %d: got status %d", i, w.Code)
		}
	}
}
