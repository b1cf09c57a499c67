package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	assethostadapter "github.com/dansportalen/directory-api/internal/adapters/assethost"
	"github.com/dansportalen/directory-api/internal/adapters/memory"
	memclock "github.com/dansportalen/directory-api/internal/adapters/memory/clock"
	"github.com/dansportalen/directory-api/internal/app/images"
	"github.com/dansportalen/directory-api/internal/app/individuals"
	"github.com/dansportalen/directory-api/internal/app/organizations"
	"github.com/dansportalen/directory-api/internal/app/profiles"
	"github.com/dansportalen/directory-api/internal/app/venues"
	"github.com/dansportalen/directory-api/internal/domain"
)

type api struct {
	handler http.Handler
	host    *assethostadapter.Fake
}

func newTestAPI(t *testing.T) api {
	t.Helper()

	store := memory.NewStore()
	clk := memclock.NewManualClock(time.Unix(1_700_000_000, 0).UTC())
	host := assethostadapter.NewFake()

	individualsSvc := individuals.NewService(store.Individuals(), store.Organizations(), clk)
	organizationsSvc := organizations.NewService(store.Organizations(), store.Individuals(), clk)
	venuesSvc := venues.NewService(store.Venues(), clk)
	profilesSvc := profiles.NewService(store.Profiles(), individualsSvc, organizationsSvc, venuesSvc)
	imagesSvc := images.NewService(host, store.Images(), store.Profiles(), clk)

	srv := NewServer(profilesSvc, individualsSvc, organizationsSvc, venuesSvc, imagesSvc)
	return api{handler: NewRouter(srv, RouterOptions{}), host: host}
}

func (a api) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error envelope %q: %v", rec.Body.String(), err)
	}
	return env.Error.Code
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", rec.Code)
	}
}

func TestCreateAndGetIndividual(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/individuals", map[string]any{
		"name": "  Stina   Lund ",
		"tags": []string{"dancer", "instructor"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d, body=%s", rec.Code, rec.Body.String())
	}
	created := decode[profileDTO](t, rec)
	if created.Name != "Stina Lund" {
		t.Fatalf("name=%q, want normalized", created.Name)
	}
	if created.Type != "individual" {
		t.Fatalf("type=%q", created.Type)
	}

	rec = a.do(t, http.MethodGet, "/individuals/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status=%d", rec.Code)
	}
	got := decode[profileDTO](t, rec)
	if got.ID != created.ID || len(got.Tags) != 2 {
		t.Fatalf("got=%+v", got)
	}
}

func TestGetIndividual_NotFound(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/individuals/no-such-id", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rec.Code)
	}
	if code := errorCode(t, rec); code != "PROFILE_NOT_FOUND" {
		t.Fatalf("code=%q", code)
	}
}

func TestPatchIndividual_TriState(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/individuals", map[string]any{
		"name":        "Stina Lund",
		"description": "Dansare från Umeå.",
		"links":       []string{"https://stinalund.se"},
	})
	created := decode[profileDTO](t, rec)

	// Explicit null clears description; omitted links stay untouched.
	rec = a.do(t, http.MethodPatch, "/individuals/"+created.ID, map[string]any{
		"description": nil,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", rec.Code, rec.Body.String())
	}
	patched := decode[profileDTO](t, rec)
	if patched.Description != "" {
		t.Fatalf("description=%q, want cleared", patched.Description)
	}
	if len(patched.Links) != 1 {
		t.Fatalf("links=%v, want untouched", patched.Links)
	}
}

func TestPatchIndividual_NullNameRejected(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/individuals", map[string]any{"name": "Stina Lund"})
	created := decode[profileDTO](t, rec)

	rec = a.do(t, http.MethodPatch, "/individuals/"+created.ID, map[string]any{"name": nil})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestPatchIndividual_TypeImmutable(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/individuals", map[string]any{"name": "Stina Lund"})
	created := decode[profileDTO](t, rec)

	rec = a.do(t, http.MethodPatch, "/individuals/"+created.ID, map[string]any{"type": "venue"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status=%d", rec.Code)
	}
	if code := errorCode(t, rec); code != "PROFILE_TYPE_IMMUTABLE" {
		t.Fatalf("code=%q", code)
	}
}

func TestProfileDispatch(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/venues", map[string]any{
		"name":   "Nalen",
		"coords": map[string]float64{"lat": 59.3359, "lng": 18.0740},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d, body=%s", rec.Code, rec.Body.String())
	}
	created := decode[profileDTO](t, rec)

	rec = a.do(t, http.MethodGet, "/profiles/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	got := decode[profileDTO](t, rec)
	if got.Type != "venue" || got.Coords == nil {
		t.Fatalf("got=%+v", got)
	}

	rec = a.do(t, http.MethodDelete, "/profiles/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rec.Code)
	}
	rec = a.do(t, http.MethodDelete, "/profiles/"+created.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status=%d", rec.Code)
	}
}

func TestVenueCycleConflict(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)

	root := decode[profileDTO](t, a.do(t, http.MethodPost, "/venues", map[string]any{
		"name":   "Folkets Hus",
		"coords": map[string]float64{"lat": 59.33, "lng": 18.07},
	}))
	child := decode[profileDTO](t, a.do(t, http.MethodPost, "/venues", map[string]any{
		"name":     "Stora salen",
		"coords":   map[string]float64{"lat": 59.33, "lng": 18.07},
		"parentId": root.ID,
	}))

	rec := a.do(t, http.MethodPatch, "/venues/"+root.ID, map[string]any{"parentId": child.ID})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status=%d, body=%s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "VENUE_HIERARCHY_CYCLE" {
		t.Fatalf("code=%q", code)
	}
}

func TestSearchProfiles(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)

	a.do(t, http.MethodPost, "/individuals", map[string]any{"name": "Stina Lund"})
	a.do(t, http.MethodPost, "/individuals", map[string]any{"name": "Stina Lundqvist"})
	a.do(t, http.MethodPost, "/individuals", map[string]any{"name": "Bo Ek"})

	rec := a.do(t, http.MethodGet, "/profiles/search?q=Stina+Lund", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	got := decode[struct {
		Items []profileReferenceDTO `json:"items"`
	}](t, rec)
	if len(got.Items) != 2 {
		t.Fatalf("items=%d, want 2", len(got.Items))
	}
	if got.Items[0].Name != "Stina Lund" {
		t.Fatalf("first=%q, want exact match ranked first", got.Items[0].Name)
	}

	rec = a.do(t, http.MethodGet, "/profiles/search", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty query status=%d", rec.Code)
	}
}

func TestListIndividuals_Pagination(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)

	for i := 0; i < 25; i++ {
		rec := a.do(t, http.MethodPost, "/individuals", map[string]any{
			"name": "Medlem " + string(rune('A'+i)),
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("seed %d: status=%d", i, rec.Code)
		}
	}

	rec := a.do(t, http.MethodGet, "/individuals", nil)
	first := decode[pageDTO](t, rec)
	if len(first.Items) != 20 || first.NextPageKey == nil {
		t.Fatalf("first page: items=%d key=%v", len(first.Items), first.NextPageKey)
	}

	rec = a.do(t, http.MethodGet, "/individuals?pageKey="+*first.NextPageKey, nil)
	second := decode[pageDTO](t, rec)
	if len(second.Items) != 5 || second.NextPageKey != nil {
		t.Fatalf("second page: items=%d key=%v", len(second.Items), second.NextPageKey)
	}
}

func TestImageLifecycle(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/images/upload-slots", map[string]any{"uploaderId": "admin"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("slot status=%d, body=%s", rec.Code, rec.Body.String())
	}
	slot := decode[uploadSlotDTO](t, rec)

	// Confirming before the upload completes is a conflict.
	rec = a.do(t, http.MethodPost, "/images", map[string]any{
		"externalId": slot.ExternalID, "variant": "cover",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("early confirm status=%d", rec.Code)
	}

	a.host.CompleteUpload(domain.ExternalAssetID(slot.ExternalID))
	rec = a.do(t, http.MethodPost, "/images", map[string]any{
		"externalId": slot.ExternalID, "variant": "cover",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("confirm status=%d, body=%s", rec.Code, rec.Body.String())
	}
	img := decode[imageDTO](t, rec)

	rec = a.do(t, http.MethodGet, "/images/"+img.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status=%d", rec.Code)
	}

	rec = a.do(t, http.MethodDelete, "/images/"+img.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rec.Code)
	}
	rec = a.do(t, http.MethodDelete, "/images/"+img.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status=%d", rec.Code)
	}
}

func TestAPIKeyMiddleware(t *testing.T) {
	t.Parallel()
	handler := NewRouter(
		NewServer(nil, nil, nil, nil, nil),
		RouterOptions{AuthMiddleware: NewAPIKeyMiddleware("sesam")},
	)

	req := httptest.NewRequest(http.MethodGet, "/individuals/x", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing key status=%d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status=%d", rec.Code)
	}
}
