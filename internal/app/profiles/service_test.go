package profiles

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dansportalen/directory-api/internal/adapters/memory"
	memclock "github.com/dansportalen/directory-api/internal/adapters/memory/clock"
	"github.com/dansportalen/directory-api/internal/app/field"
	"github.com/dansportalen/directory-api/internal/app/individuals"
	"github.com/dansportalen/directory-api/internal/app/organizations"
	"github.com/dansportalen/directory-api/internal/app/profilebase"
	"github.com/dansportalen/directory-api/internal/app/venues"
	"github.com/dansportalen/directory-api/internal/domain"
)

type fixture struct {
	store *memory.Store
	svc   *Service
	ind   *individuals.Service
	org   *organizations.Service
	ven   *venues.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	clk := memclock.NewManualClock(time.Unix(100, 0).UTC())
	ind := individuals.NewService(store.Individuals(), store.Organizations(), clk)
	org := organizations.NewService(store.Organizations(), store.Individuals(), clk)
	ven := venues.NewService(store.Venues(), clk)
	return &fixture{
		store: store,
		svc:   NewService(store.Profiles(), ind, org, ven),
		ind:   ind,
		org:   org,
		ven:   ven,
	}
}

func TestService_Get_DispatchesByType(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	ind, err := f.ind.Create(ctx, individuals.CreateInput{
		CreateFields: profilebase.CreateFields{Name: "Stina Lund"},
	})
	if err != nil {
		t.Fatalf("create individual err=%v", err)
	}
	ven, err := f.ven.Create(ctx, venues.CreateInput{
		CreateFields: profilebase.CreateFields{Name: "Folkets Hus"},
		Coords:       domain.Coords{Lat: 63.8, Lng: 20.2},
	})
	if err != nil {
		t.Fatalf("create venue err=%v", err)
	}

	got, err := f.svc.Get(ctx, ind.ID)
	if err != nil {
		t.Fatalf("Get err=%v", err)
	}
	if got == nil || got.Individual == nil || got.Individual.ID != ind.ID {
		t.Fatalf("got=%+v, want individual view", got)
	}
	if got.Type() != domain.ProfileTypeIndividual {
		t.Fatalf("type=%q", got.Type())
	}

	got, err = f.svc.Get(ctx, ven.ID)
	if err != nil {
		t.Fatalf("Get err=%v", err)
	}
	if got == nil || got.Venue == nil || got.Venue.ID != ven.ID {
		t.Fatalf("got=%+v, want venue view", got)
	}

	got, err = f.svc.Get(ctx, "missing")
	if err != nil {
		t.Fatalf("Get err=%v", err)
	}
	if got != nil {
		t.Fatalf("got=%+v, want nil for unknown id", got)
	}
}

func TestService_Patch_DispatchesAndGuardsType(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	ind, err := f.ind.Create(ctx, individuals.CreateInput{
		CreateFields: profilebase.CreateFields{Name: "Stina Lund"},
	})
	if err != nil {
		t.Fatalf("create individual err=%v", err)
	}

	venueType := domain.ProfileTypeVenue
	_, err = f.svc.Patch(ctx, ind.ID, PatchInput{Type: &venueType})
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Status != 409 || ae.Code != "PROFILE_TYPE_IMMUTABLE" {
		t.Fatalf("err=%v, want PROFILE_TYPE_IMMUTABLE 409", err)
	}

	patched, err := f.svc.Patch(ctx, ind.ID, PatchInput{
		Individual: individuals.PatchInput{
			Patch: profilebase.Patch{Name: field.Some("Stina Lundqvist")},
		},
	})
	if err != nil {
		t.Fatalf("Patch err=%v", err)
	}
	if patched.Individual == nil || patched.Individual.Name != "Stina Lundqvist" {
		t.Fatalf("patched=%+v", patched)
	}
}

func TestService_Patch_NotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.svc.Patch(context.Background(), "missing", PatchInput{})
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Status != 404 || ae.Code != "PROFILE_NOT_FOUND" {
		t.Fatalf("err=%v, want PROFILE_NOT_FOUND 404", err)
	}
}

func TestService_Delete_AnyType(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	ven, err := f.ven.Create(ctx, venues.CreateInput{
		CreateFields: profilebase.CreateFields{Name: "Folkets Hus"},
		Coords:       domain.Coords{Lat: 63.8, Lng: 20.2},
	})
	if err != nil {
		t.Fatalf("create venue err=%v", err)
	}

	removed, err := f.svc.Delete(ctx, ven.ID)
	if err != nil || !removed {
		t.Fatalf("Delete removed=%v err=%v", removed, err)
	}
	removed, err = f.svc.Delete(ctx, ven.ID)
	if err != nil || removed {
		t.Fatalf("second Delete removed=%v err=%v", removed, err)
	}
}

func TestService_SearchReferences_RanksSimilarity(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	mk := func(name string) domain.ProfileID {
		ind, err := f.ind.Create(ctx, individuals.CreateInput{
			CreateFields: profilebase.CreateFields{Name: name},
		})
		if err != nil {
			t.Fatalf("create %q err=%v", name, err)
		}
		return ind.ID
	}

	exact := mk("Stina Lund")
	close1 := mk("Stina Lundqvist")
	mk("Bo Ek")

	hits, err := f.svc.SearchReferences(ctx, "Stina Lund", 10, 0)
	if err != nil {
		t.Fatalf("SearchReferences err=%v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("hits=%+v, want the two Stinas", hits)
	}
	if hits[0].Reference.ID != exact || hits[0].Score != 1.0 {
		t.Fatalf("top hit=%+v, want exact match first with score 1.0", hits[0])
	}
	if hits[1].Reference.ID != close1 || hits[1].Score >= 1.0 {
		t.Fatalf("second hit=%+v", hits[1])
	}
}

func TestService_SearchReferences_SpansTypes(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.ind.Create(ctx, individuals.CreateInput{
		CreateFields: profilebase.CreateFields{Name: "Kulturhuset Dans"},
	}); err != nil {
		t.Fatalf("create individual err=%v", err)
	}
	if _, err := f.ven.Create(ctx, venues.CreateInput{
		CreateFields: profilebase.CreateFields{Name: "Kulturhuset"},
		Coords:       domain.Coords{Lat: 59.33, Lng: 18.06},
	}); err != nil {
		t.Fatalf("create venue err=%v", err)
	}

	hits, err := f.svc.SearchReferences(ctx, "Kulturhuset", 10, 0)
	if err != nil {
		t.Fatalf("SearchReferences err=%v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("hits=%+v, want matches of both types", hits)
	}
	types := map[domain.ProfileType]bool{}
	for _, h := range hits {
		types[h.Reference.Type] = true
	}
	if !types[domain.ProfileTypeIndividual] || !types[domain.ProfileTypeVenue] {
		t.Fatalf("types=%v", types)
	}
}

func TestService_SearchReferences_EmptyQuery(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.svc.SearchReferences(context.Background(), "   ", 10, 0)
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Status != 422 {
		t.Fatalf("err=%v, want 422 for empty query", err)
	}
}
