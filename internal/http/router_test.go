package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/ev-access/internal/auth"
	"github.com/tendant/ev-access/internal/config"
	"github.com/tendant/ev-access/internal/membership"
	"github.com/tendant/ev-access/internal/notification"
	"github.com/tendant/ev-access/internal/repository/memstore"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memstore.New()

	hash, err := auth.HashPassword("operator-pass")
	require.NoError(t, err)

	return NewRouter(RouterConfig{
		Logger:              logger,
		Store:               store,
		ApplicationService:  membership.NewApplicationService(membership.ApplicationConfig{}, store),
		VerificationService: membership.NewVerificationService(membership.VerificationConfig{}, store),
		LeadService:         membership.NewLeadService(store),
		AdminService: auth.NewAdminService(auth.AdminConfig{
			Email:        "ops@example.com",
			PasswordHash: hash,
			JWTSecret:    []byte("router-test-secret"),
		}),
		Dispatcher:      notification.NewDispatcher(notification.NewLogSender(logger), "ops@example.com"),
		AppBaseURL:      "https://ev.example.com",
		MaxRequestBytes: 1 << 20,
		SecurityHeaders: config.SecurityHeadersConfig{Enabled: true, ContentTypeOptions: "nosniff"},
	})
}

type client struct {
	t     *testing.T
	h     http.Handler
	token string
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Client-Type", "api")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, wantStatus int) map[string]any {
	t.Helper()
	require.Equal(t, wantStatus, rec.Code, rec.Body.String())
	var out map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func TestHealth(t *testing.T) {
	c := &client{t: t, h: newTestRouter(t)}
	rec := c.do(http.MethodGet, "/health", nil)

	body := decode(t, rec, http.StatusOK)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestAdminRoutesRequireAuth(t *testing.T) {
	c := &client{t: t, h: newTestRouter(t)}

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/v1/admin/applications"},
		{http.MethodPost, "/v1/verifications"},
		{http.MethodGet, "/v1/admin/members/EVM-X-2222"},
	} {
		rec := c.do(tc.method, tc.path, map[string]string{})
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.path)
	}
}

func TestMembershipWorkflow(t *testing.T) {
	c := &client{t: t, h: newTestRouter(t)}

	app := decode(t, c.do(http.MethodPost, "/v1/applications", map[string]string{
		"firstName":   "Jane",
		"lastName":    "Doe",
		"email":       "jane@x.com",
		"phone":       "555-0100",
		"vehicleType": "Tesla Model 3",
	}), http.StatusCreated)
	appID := app["id"].(string)

	login := decode(t, c.do(http.MethodPost, "/v1/admin/login", map[string]string{
		"email":    "ops@example.com",
		"password": "operator-pass",
	}), http.StatusOK)
	c.token = login["accessToken"].(string)

	rec := c.do(http.MethodPost, "/v1/verifications", map[string]string{"applicationId": appID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "precondition_failed", decode(t, rec, http.StatusBadRequest)["code"])

	decode(t, c.do(http.MethodPatch, "/v1/admin/applications/"+appID+"/status",
		map[string]string{"status": "approved"}), http.StatusOK)

	issued := decode(t, c.do(http.MethodPost, "/v1/verifications",
		map[string]string{"applicationId": appID}), http.StatusOK)
	assert.Equal(t, true, issued["emailSent"])
	token := issued["verificationToken"].(string)

	c.token = ""
	redeemed := decode(t, c.do(http.MethodPost, "/v1/verify-email",
		map[string]string{"token": token}), http.StatusOK)
	member := redeemed["member"].(map[string]any)
	number := member["membershipNumber"].(string)

	rec = c.do(http.MethodPost, "/v1/verify-email", map[string]string{"token": token})
	assert.Equal(t, "token_already_used", decode(t, rec, http.StatusBadRequest)["code"])

	public := decode(t, c.do(http.MethodGet, "/v1/members/"+number, nil), http.StatusOK)
	assert.Equal(t, "Jane", public["firstName"])
	assert.NotContains(t, public, "email")

	decode(t, c.do(http.MethodPost, "/v1/leads", map[string]string{
		"name":  "Sam Lee",
		"email": "sam@example.com",
	}), http.StatusCreated)
}
