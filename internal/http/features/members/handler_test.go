package members

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/tendant/ev-access/internal/membership"
	"github.com/tendant/ev-access/internal/repository/memstore"
)

func setup(t *testing.T) (http.Handler, string) {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	apps := membership.NewApplicationService(membership.ApplicationConfig{}, store)
	verifs := membership.NewVerificationService(membership.VerificationConfig{}, store)

	app, err := apps.Submit(ctx, membership.SubmitApplicationInput{
		FirstName:   "Jane",
		LastName:    "Doe",
		Email:       "jane@x.com",
		Phone:       "555-0100",
		VehicleType: "Tesla Model 3",
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := apps.UpdateStatus(ctx, app.ID, "approved"); err != nil {
		t.Fatal(err)
	}
	v, _, err := verifs.Issue(ctx, app.ID)
	if err != nil {
		t.Fatal(err)
	}
	result, err := verifs.Redeem(ctx, v.Token)
	if err != nil {
		t.Fatal(err)
	}

	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), verifs)
	r := chi.NewRouter()
	h.RegisterPublicRoutes(r)
	h.RegisterAdminRoutes(r)
	return r, result.Member.MembershipNumber
}

func get(h http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	json.NewDecoder(rec.Body).Decode(&body)
	return rec, body
}

func TestGet_Public(t *testing.T) {
	r, number := setup(t)

	rec, body := get(r, "/v1/members/"+number)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if body["membershipNumber"] != number {
		t.Errorf("membershipNumber = %v, want %s", body["membershipNumber"], number)
	}
	if body["firstName"] != "Jane" || body["status"] != "active" {
		t.Errorf("unexpected member %v", body)
	}
	for _, field := range []string{"email", "phone", "id", "applicationId"} {
		if _, ok := body[field]; ok {
			t.Errorf("public view exposes %q", field)
		}
	}
}

func TestGet_Admin(t *testing.T) {
	r, number := setup(t)

	rec, body := get(r, "/v1/admin/members/"+number)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if body["email"] != "jane@x.com" || body["phone"] != "555-0100" {
		t.Errorf("admin view missing contact details: %v", body)
	}
}

func TestGet_NotFound(t *testing.T) {
	r, _ := setup(t)

	rec, body := get(r, "/v1/members/EVM-NOPE-2222")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if body["code"] != "not_found" {
		t.Errorf("code = %v, want not_found", body["code"])
	}
}
