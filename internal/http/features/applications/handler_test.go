package applications

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/ev-access/internal/http/features/common"
	"github.com/tendant/ev-access/internal/httputil"
	"github.com/tendant/ev-access/internal/membership"
	"github.com/tendant/ev-access/internal/notification"
	"github.com/tendant/ev-access/internal/repository/memstore"
)

type fakeNotifier struct {
	sent []notification.AdminNotification
	err  error
}

func (n *fakeNotifier) SendAdminNotification(ctx context.Context, msg notification.AdminNotification) error {
	n.sent = append(n.sent, msg)
	return n.err
}

func noLimit(next http.Handler) http.Handler { return next }

func newRouter(t *testing.T) (http.Handler, *fakeNotifier) {
	t.Helper()
	store := memstore.New()
	svc := membership.NewApplicationService(membership.ApplicationConfig{}, store)
	notifier := &fakeNotifier{}
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc, notifier)

	r := chi.NewRouter()
	h.RegisterPublicRoutes(r, noLimit)
	h.RegisterAdminRoutes(r)
	return r, notifier
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func submitApp(t *testing.T, h http.Handler, body string) common.ApplicationView {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/v1/applications", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var view common.ApplicationView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	return view
}

const janeForm = `{"firstName":"Jane","lastName":"Doe","email":"Jane@X.com","phone":"555-0100","vehicleType":"Tesla Model 3"}`

func TestSubmit(t *testing.T) {
	r, notifier := newRouter(t)

	view := submitApp(t, r, janeForm)

	assert.Equal(t, "early_access", view.Kind)
	assert.Equal(t, "pending", view.Status)
	assert.Equal(t, "jane@x.com", view.Email)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "New early_access application", notifier.sent[0].Subject)
	assert.Equal(t, "Jane Doe", notifier.sent[0].Fields["name"])
}

func TestSubmit_NotifierFailureStillCreates(t *testing.T) {
	r, notifier := newRouter(t)
	notifier.err = errors.New("inbox unreachable")

	view := submitApp(t, r, janeForm)
	assert.Equal(t, "pending", view.Status)
}

func TestSubmit_Validation(t *testing.T) {
	r, notifier := newRouter(t)

	rec := do(t, r, http.MethodPost, "/v1/applications", `{"firstName":"Jane","email":"nope"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp httputil.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, httputil.CodeValidation, resp.Code)
	assert.Contains(t, resp.Fields, "lastName")
	assert.Contains(t, resp.Fields, "email")
	assert.Contains(t, resp.Fields, "vehicleType")
	assert.Empty(t, notifier.sent)
}

func TestAdminFlow(t *testing.T) {
	r, _ := newRouter(t)
	created := submitApp(t, r, janeForm)
	submitApp(t, r, `{"kind":"host","firstName":"Hal","lastName":"Host","email":"hal@x.com"}`)

	rec := do(t, r, http.MethodGet, "/v1/admin/applications/"+created.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, r, http.MethodPatch, "/v1/admin/applications/"+created.ID.String()+"/status", `{"status":"approved"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated common.ApplicationView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&updated))
	assert.Equal(t, "approved", updated.Status)

	rec = do(t, r, http.MethodGet, "/v1/admin/applications?status=approved", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list ListResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list.Applications, 1)
	assert.Equal(t, created.ID, list.Applications[0].ID)

	rec = do(t, r, http.MethodGet, "/v1/admin/applications?kind=host", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list = ListResponse{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list.Applications, 1)
	assert.Equal(t, "host", list.Applications[0].Kind)
}

func TestAdminErrors(t *testing.T) {
	r, _ := newRouter(t)
	created := submitApp(t, r, janeForm)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"bad id", http.MethodGet, "/v1/admin/applications/nope", "", http.StatusBadRequest, httputil.CodeValidation},
		{"missing", http.MethodGet, "/v1/admin/applications/8d3b6d2c-2f6e-4a53-9a7b-4d6f1c9e0a11", "", http.StatusNotFound, httputil.CodeNotFound},
		{"bad kind filter", http.MethodGet, "/v1/admin/applications?kind=fleet", "", http.StatusBadRequest, httputil.CodeValidation},
		{"bad status filter", http.MethodGet, "/v1/admin/applications?status=done", "", http.StatusBadRequest, httputil.CodeValidation},
		{"bad limit", http.MethodGet, "/v1/admin/applications?limit=0", "", http.StatusBadRequest, httputil.CodeValidation},
		{"unknown status", http.MethodPatch, "/v1/admin/applications/" + created.ID.String() + "/status", `{"status":"done"}`, http.StatusBadRequest, httputil.CodeValidation},
		{"in review for early access", http.MethodPatch, "/v1/admin/applications/" + created.ID.String() + "/status", `{"status":"in_review"}`, http.StatusBadRequest, httputil.CodeValidation},
		{"status on missing", http.MethodPatch, "/v1/admin/applications/8d3b6d2c-2f6e-4a53-9a7b-4d6f1c9e0a11/status", `{"status":"approved"}`, http.StatusNotFound, httputil.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, r, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			var resp httputil.ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.wantCode, resp.Code)
		})
	}
}
