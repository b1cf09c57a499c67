package individuals

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
	"github.com/dansportalen/directory-api/internal/ports/out/organizationrepo"
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
		svc:   NewService(store.Individuals(), store.Organizations(), clk),
	}
}

func (f *fixture) seedOrganization(t *testing.T, id domain.ProfileID, name string) {
	t.Helper()
	err := f.store.Organizations().Create(context.Background(), organizationrepo.Record{
		Record: profilerepo.Record{
			ID:   id,
			Type: domain.ProfileTypeOrganization,
			Name: name,
		},
		Tags: []domain.OrganizationTag{domain.OrganizationTagAssociation},
	})
	if err != nil {
		t.Fatalf("seed organization %s err=%v", id, err)
	}
}

func TestService_CreateThenGet(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, CreateInput{
		CreateFields: profilebase.CreateFields{
			Name:        "  Stina   Lund ",
			Description: "Dansare från Umeå",
			Links:       []string{"https://stinalund.se"},
		},
		Tags: []domain.IndividualTag{domain.IndividualTagDancer, domain.IndividualTagInstructor},
	})
	if err != nil {
		t.Fatalf("Create err=%v", err)
	}
	if created.Name != "Stina Lund" {
		t.Fatalf("name=%q, want normalized %q", created.Name, "Stina Lund")
	}
	if created.Type != domain.ProfileTypeIndividual {
		t.Fatalf("type=%q", created.Type)
	}
	if created.CreatedAt != created.UpdatedAt {
		t.Fatalf("fresh profile has createdAt=%v updatedAt=%v", created.CreatedAt, created.UpdatedAt)
	}

	got, err := f.svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get err=%v", err)
	}
	if got == nil || got.ID != created.ID || len(got.Tags) != 2 {
		t.Fatalf("got=%+v", got)
	}
}

func TestService_Get_WrongTypeIsAbsent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.seedOrganization(t, "org-1", "Umeå Lindy Exchange")

	got, err := f.svc.Get(ctx, "org-1")
	if err != nil {
		t.Fatalf("Get err=%v", err)
	}
	if got != nil {
		t.Fatalf("got=%+v, want nil for a profile of another type", got)
	}
}

func TestService_Create_UnknownTag(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), CreateInput{
		CreateFields: profilebase.CreateFields{Name: "Stina Lund"},
		Tags:         []domain.IndividualTag{"acrobat"},
	})
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Status != 422 || ae.Code != "VALIDATION_ERROR" {
		t.Fatalf("err=%v, want VALIDATION_ERROR 422", err)
	}
}

func TestService_Create_EdgeTargetMustExist(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), CreateInput{
		CreateFields:  profilebase.CreateFields{Name: "Stina Lund"},
		Organizations: []OrganizationEdgeInput{{OrganizationID: "missing", Title: "Ordförande"}},
	})
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Status != 422 {
		t.Fatalf("err=%v, want 422 for vanished edge target", err)
	}
}

func TestService_Create_ResolvesMemberships(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.seedOrganization(t, "org-1", "Umeå Lindy Exchange")

	created, err := f.svc.Create(ctx, CreateInput{
		CreateFields:  profilebase.CreateFields{Name: "Stina Lund"},
		Organizations: []OrganizationEdgeInput{{OrganizationID: "org-1", Title: "  Ordförande "}},
	})
	if err != nil {
		t.Fatalf("Create err=%v", err)
	}
	if len(created.Organizations) != 1 {
		t.Fatalf("organizations=%+v", created.Organizations)
	}
	m := created.Organizations[0]
	if m.Organization.ID != "org-1" || m.Organization.Name != "Umeå Lindy Exchange" || m.Title != "Ordförande" {
		t.Fatalf("membership=%+v", m)
	}

	// The same edge must be visible from the organization's side.
	org, err := f.store.Organizations().GetByID(ctx, "org-1")
	if err != nil {
		t.Fatalf("org GetByID err=%v", err)
	}
	if len(org.Members) != 1 || org.Members[0].IndividualID != created.ID || org.Members[0].Title != "Ordförande" {
		t.Fatalf("org members=%+v", org.Members)
	}
}

func TestService_Patch_TypeImmutable(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	venueType := domain.ProfileTypeVenue

	_, err := f.svc.Patch(context.Background(), "whatever", PatchInput{Type: &venueType})
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Status != 409 || ae.Code != "PROFILE_TYPE_IMMUTABLE" {
		t.Fatalf("err=%v, want PROFILE_TYPE_IMMUTABLE 409", err)
	}
}

func TestService_Patch_TriState(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, CreateInput{
		CreateFields: profilebase.CreateFields{
			Name:        "Stina Lund",
			Description: "Dansare",
			Links:       []string{"https://stinalund.se"},
		},
		Tags: []domain.IndividualTag{domain.IndividualTagDancer},
	})
	if err != nil {
		t.Fatalf("Create err=%v", err)
	}

	f.clk.Advance(time.Hour)

	// Unspecified fields stay, null resets.
	patched, err := f.svc.Patch(ctx, created.ID, PatchInput{
		Patch: profilebase.Patch{
			Description: field.Null[string](),
		},
		Tags: field.Null[[]domain.IndividualTag](),
	})
	if err != nil {
		t.Fatalf("Patch err=%v", err)
	}
	if patched.Name != "Stina Lund" {
		t.Fatalf("name changed: %q", patched.Name)
	}
	if patched.Description != "" {
		t.Fatalf("description=%q, want cleared", patched.Description)
	}
	if len(patched.Links) != 1 {
		t.Fatalf("links=%v, want untouched", patched.Links)
	}
	if len(patched.Tags) != 0 {
		t.Fatalf("tags=%v, want cleared", patched.Tags)
	}
	if !patched.UpdatedAt.After(patched.CreatedAt) {
		t.Fatalf("updatedAt=%v not after createdAt=%v", patched.UpdatedAt, patched.CreatedAt)
	}
}

func TestService_Patch_NullName(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, CreateInput{
		CreateFields: profilebase.CreateFields{Name: "Stina Lund"},
	})
	if err != nil {
		t.Fatalf("Create err=%v", err)
	}

	_, err = f.svc.Patch(ctx, created.ID, PatchInput{
		Patch: profilebase.Patch{Name: field.Null[string]()},
	})
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Status != 422 {
		t.Fatalf("err=%v, want 422 for null name", err)
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

func TestService_Delete(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, CreateInput{
		CreateFields: profilebase.CreateFields{Name: "Stina Lund"},
	})
	if err != nil {
		t.Fatalf("Create err=%v", err)
	}

	removed, err := f.svc.Delete(ctx, created.ID)
	if err != nil || !removed {
		t.Fatalf("Delete removed=%v err=%v", removed, err)
	}
	removed, err = f.svc.Delete(ctx, created.ID)
	if err != nil || removed {
		t.Fatalf("second Delete removed=%v err=%v", removed, err)
	}
}

func TestService_List_FiltersByTagAndOrganization(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.seedOrganization(t, "org-1", "Umeå Lindy Exchange")

	mkIndividual := func(name string, tags []domain.IndividualTag, orgs []OrganizationEdgeInput) domain.Individual {
		ind, err := f.svc.Create(ctx, CreateInput{
			CreateFields:  profilebase.CreateFields{Name: name},
			Tags:          tags,
			Organizations: orgs,
		})
		if err != nil {
			t.Fatalf("Create %q err=%v", name, err)
		}
		return ind
	}

	dancer := mkIndividual("Anna Berg", []domain.IndividualTag{domain.IndividualTagDancer},
		[]OrganizationEdgeInput{{OrganizationID: "org-1", Title: "Medlem"}})
	mkIndividual("Bo Ek", []domain.IndividualTag{domain.IndividualTagDJ}, nil)

	page, err := f.svc.List(ctx, ListInput{
		Tags:            []domain.IndividualTag{domain.IndividualTagDancer},
		OrganizationIDs: []domain.ProfileID{"org-1"},
	})
	if err != nil {
		t.Fatalf("List err=%v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Reference.ID != dancer.ID {
		t.Fatalf("page=%+v, want only %s", page.Items, dancer.ID)
	}
	if page.NextPageKey != nil {
		t.Fatalf("nextPageKey=%v, want nil", page.NextPageKey)
	}
}

func TestService_List_UnknownTagFilter(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.svc.List(context.Background(), ListInput{
		Tags: []domain.IndividualTag{"acrobat"},
	})
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Status != 422 {
		t.Fatalf("err=%v, want 422", err)
	}
}

func TestService_Resolve_DropsVanishedOrganization(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.seedOrganization(t, "org-1", "Umeå Lindy Exchange")

	created, err := f.svc.Create(ctx, CreateInput{
		CreateFields:  profilebase.CreateFields{Name: "Stina Lund"},
		Organizations: []OrganizationEdgeInput{{OrganizationID: "org-1", Title: "Medlem"}},
	})
	if err != nil {
		t.Fatalf("Create err=%v", err)
	}

	if _, err := f.store.Organizations().Delete(ctx, "org-1"); err != nil {
		t.Fatalf("delete org err=%v", err)
	}

	got, err := f.svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get err=%v", err)
	}
	if got == nil || len(got.Organizations) != 0 {
		t.Fatalf("got=%+v, want empty memberships after peer deletion", got)
	}
}
