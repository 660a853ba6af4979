package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestErrorWithCode(t *testing.T) {
	w := httptest.NewRecorder()
	ErrorWithCode(w, http.StatusBadRequest, CodeTokenExpired, "verification token expired")

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}

	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["code"] != CodeTokenExpired || body["error"] != "verification token expired" {
		t.Errorf("unexpected body %v", body)
	}
	if _, ok := body["fields"]; ok {
		t.Error("fields should be omitted when empty")
	}
}

func TestFieldErrors(t *testing.T) {
	w := httptest.NewRecorder()
	FieldErrors(w, map[string]string{"email": "invalid email address format"})

	var body ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != CodeValidation || body.Fields["email"] == "" {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		limit      int64
		wantOK     bool
		wantStatus int
	}{
		{"valid", `{"token":"abc"}`, 1024, true, http.StatusOK},
		{"empty", ``, 1024, false, http.StatusBadRequest},
		{"malformed", `{"token":`, 1024, false, http.StatusBadRequest},
		{"too large", `{"token":"` + strings.Repeat("a", 100) + `"}`, 16, false, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			r.Body = http.MaxBytesReader(w, r.Body, tt.limit)

			var v struct{ Token string }
			ok := DecodeJSON(w, r, &v)
			if ok != tt.wantOK {
				t.Fatalf("DecodeJSON() = %v, want %v", ok, tt.wantOK)
			}
			if !ok && w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if ok && v.Token != "abc" {
				t.Errorf("Token = %q", v.Token)
			}
		})
	}
}

func TestAdminCookie(t *testing.T) {
	w := httptest.NewRecorder()
	SetAdminCookie(w, "tok", time.Hour, DefaultCookieConfig())

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		r.AddCookie(c)
	}
	token, ok := GetAdminTokenFromCookie(r)
	if !ok || token != "tok" {
		t.Errorf("GetAdminTokenFromCookie() = %q, %v", token, ok)
	}

	w = httptest.NewRecorder()
	ClearAdminCookie(w, DefaultCookieConfig())
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Errorf("expected an expired cookie, got %+v", cookies)
	}
}
