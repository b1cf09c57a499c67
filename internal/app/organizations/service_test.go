package organizations

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dansportalen/directory-api/internal/adapters/memory"
	memclock "github.com/dansportalen/directory-api/internal/adapters/memory/clock"
	"github.com/dansportalen/directory-api/internal/app/field"
	"github.com/dansportalen/directory-api/internal/app/profilebase"
	"github.com/dansportalen/directory-api/internal/domain"
	"github.com/dansportalen/directory-api/internal/ports/out/individualrepo"
	"github.com/dansportalen/directory-api/internal/ports/out/profilerepo"
)

type fixture struct {
	store *memory.Store
	clk   *memclock.ManualClock
	svc   *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	clk := memclock.NewManualClock(time.Unix(100, 0).UTC())
	return &fixture{
		store: store,
		clk:   clk,
		svc:   NewService(store.Organizations(), store.Individuals(), clk),
	}
}

func (f *fixture) seedIndividual(t *testing.T, id domain.ProfileID, name string) {
	t.Helper()
	err := f.store.Individuals().Create(context.Background(), individualrepo.Record{
		Record: profilerepo.Record{
			ID:   id,
			Type: domain.ProfileTypeIndividual,
			Name: name,
		},
		Tags: []domain.IndividualTag{domain.IndividualTagDancer},
	})
	if err != nil {
		t.Fatalf("seed individual %s err=%v", id, err)
	}
}

func TestService_CreateThenGet(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.seedIndividual(t, "ind-1", "Stina Lund")

	created, err := f.svc.Create(ctx, CreateInput{
		CreateFields: profilebase.CreateFields{
			Name:        "Umeå  Lindy   Exchange",
			Description: "Ideell dansförening",
		},
		Tags:    []domain.OrganizationTag{domain.OrganizationTagAssociation},
		Members: []MemberEdgeInput{{IndividualID: "ind-1", Title: "Ordförande"}},
	})
	if err != nil {
		t.Fatalf("Create err=%v", err)
	}
	if created.Name != "Umeå Lindy Exchange" {
		t.Fatalf("name=%q", created.Name)
	}
	if len(created.Members) != 1 || created.Members[0].Individual.ID != "ind-1" {
		t.Fatalf("members=%+v", created.Members)
	}

	got, err := f.svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get err=%v", err)
	}
	if got == nil || got.ID != created.ID {
		t.Fatalf("got=%+v", got)
	}

	// The edge must be visible from the individual's side too.
	ind, err := f.store.Individuals().GetByID(ctx, "ind-1")
	if err != nil {
		t.Fatalf("individual GetByID err=%v", err)
	}
	if len(ind.Organizations) != 1 || ind.Organizations[0].OrganizationID != created.ID {
		t.Fatalf("individual edges=%+v", ind.Organizations)
	}
}

func TestService_Create_EdgeTargetMustBeIndividual(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	other, err := f.svc.Create(ctx, CreateInput{
		CreateFields: profilebase.CreateFields{Name: "Stockholm Swing All Stars"},
	})
	if err != nil {
		t.Fatalf("Create err=%v", err)
	}

	_, err = f.svc.Create(ctx, CreateInput{
		CreateFields: profilebase.CreateFields{Name: "Umeå Lindy Exchange"},
		Members:      []MemberEdgeInput{{IndividualID: other.ID, Title: "Medlem"}},
	})
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Status != 422 {
		t.Fatalf("err=%v, want 422 for non-individual edge target", err)
	}
}

func TestService_Patch_ReplaceMembers(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.seedIndividual(t, "ind-1", "Stina Lund")
	f.seedIndividual(t, "ind-2", "Anna Berg")

	created, err := f.svc.Create(ctx, CreateInput{
		CreateFields: profilebase.CreateFields{Name: "Umeå Lindy Exchange"},
		Members:      []MemberEdgeInput{{IndividualID: "ind-1", Title: "Ordförande"}},
	})
	if err != nil {
		t.Fatalf("Create err=%v", err)
	}

	patched, err := f.svc.Patch(ctx, created.ID, PatchInput{
		Members: field.Some([]MemberEdgeInput{{IndividualID: "ind-2", Title: "Kassör"}}),
	})
	if err != nil {
		t.Fatalf("Patch err=%v", err)
	}
	if len(patched.Members) != 1 || patched.Members[0].Individual.ID != "ind-2" {
		t.Fatalf("members=%+v, want only ind-2", patched.Members)
	}

	// The removed edge must be gone from the individual's side.
	ind, err := f.store.Individuals().GetByID(ctx, "ind-1")
	if err != nil {
		t.Fatalf("individual GetByID err=%v", err)
	}
	if len(ind.Organizations) != 0 {
		t.Fatalf("ind-1 edges=%+v, want none", ind.Organizations)
	}
}

func TestService_Patch_DuplicateMember(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.seedIndividual(t, "ind-1", "Stina Lund")

	created, err := f.svc.Create(ctx, CreateInput{
		CreateFields: profilebase.CreateFields{Name: "Umeå Lindy Exchange"},
	})
	if err != nil {
		t.Fatalf("Create err=%v", err)
	}

	_, err = f.svc.Patch(ctx, created.ID, PatchInput{
		Members: field.Some([]MemberEdgeInput{
			{IndividualID: "ind-1", Title: "Ordförande"},
			{IndividualID: "ind-1", Title: "Kassör"},
		}),
	})
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Status != 422 {
		t.Fatalf("err=%v, want 422 for duplicate member", err)
	}
}

func TestService_List_MemberFilter(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.seedIndividual(t, "ind-1", "Stina Lund")

	with, err := f.svc.Create(ctx, CreateInput{
		CreateFields: profilebase.CreateFields{Name: "Umeå Lindy Exchange"},
		Members:      []MemberEdgeInput{{IndividualID: "ind-1", Title: "Medlem"}},
	})
	if err != nil {
		t.Fatalf("Create err=%v", err)
	}
	if _, err := f.svc.Create(ctx, CreateInput{
		CreateFields: profilebase.CreateFields{Name: "Stockholm Swing All Stars"},
	}); err != nil {
		t.Fatalf("Create err=%v", err)
	}

	page, err := f.svc.List(ctx, ListInput{MemberIDs: []domain.ProfileID{"ind-1"}})
	if err != nil {
		t.Fatalf("List err=%v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Reference.ID != with.ID {
		t.Fatalf("page=%+v, want only %s", page.Items, with.ID)
	}
}

func TestService_DeleteRemovesEdges(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.seedIndividual(t, "ind-1", "Stina Lund")

	created, err := f.svc.Create(ctx, CreateInput{
		CreateFields: profilebase.CreateFields{Name: "Umeå Lindy Exchange"},
		Members:      []MemberEdgeInput{{IndividualID: "ind-1", Title: "Medlem"}},
	})
	if err != nil {
		t.Fatalf("Create err=%v", err)
	}

	removed, err := f.svc.Delete(ctx, created.ID)
	if err != nil || !removed {
		t.Fatalf("Delete removed=%v err=%v", removed, err)
	}

	ind, err := f.store.Individuals().GetByID(ctx, "ind-1")
	if err != nil {
		t.Fatalf("individual GetByID err=%v", err)
	}
	if len(ind.Organizations) != 0 {
		t.Fatalf("edges=%+v, want none after organization deletion", ind.Organizations)
	}
}
