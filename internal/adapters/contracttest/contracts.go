// Package contracttest holds repository contract suites shared by every
// persistence backend. A backend package wires its repositories through a
// Factory and runs the suites from its own tests.
package contracttest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dansportalen/directory-api/internal/domain"
	imagerepoport "github.com/dansportalen/directory-api/internal/ports/out/imagerepo"
	individualrepoport "github.com/dansportalen/directory-api/internal/ports/out/individualrepo"
	organizationrepoport "github.com/dansportalen/directory-api/internal/ports/out/organizationrepo"
	profilerepoport "github.com/dansportalen/directory-api/internal/ports/out/profilerepo"
	venuerepoport "github.com/dansportalen/directory-api/internal/ports/out/venuerepo"
)

type CleanupFunc = func()

// Repos bundles one backend's repositories over a shared store.
type Repos struct {
	Profiles      profilerepoport.Repository
	Individuals   individualrepoport.Repository
	Organizations organizationrepoport.Repository
	Venues        venuerepoport.Repository
	Images        imagerepoport.Repository
}

type Factory func(t *testing.T) (Repos, CleanupFunc)

func open(t *testing.T, newRepos Factory) Repos {
	t.Helper()
	repos, cleanup := newRepos(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}
	return repos
}

func baseRecord(typ domain.ProfileType, name string) profilerepoport.Record {
	now := time.Unix(1000, 0).UTC()
	return profilerepoport.Record{
		ID:        domain.ProfileID(uuid.NewString()),
		Type:      typ,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func RunProfileRepo(t *testing.T, newRepos Factory) {
	t.Helper()
	ctx := context.Background()
	repos := open(t, newRepos)

	rec := baseRecord(domain.ProfileTypeIndividual, "Stina Lund")
	rec.Description = "Dansare"
	rec.Links = []string{"https://stinalund.se"}
	if err := repos.Profiles.Create(ctx, rec); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repos.Profiles.Create(ctx, rec); !errors.Is(err, profilerepoport.ErrAlreadyExists) {
		t.Fatalf("duplicate Create err=%v, want ErrAlreadyExists", err)
	}

	got, err := repos.Profiles.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Stina Lund" || got.Description != "Dansare" || len(got.Links) != 1 {
		t.Fatalf("got=%+v", got)
	}

	typ, err := repos.Profiles.GetTypeByID(ctx, rec.ID)
	if err != nil || typ != domain.ProfileTypeIndividual {
		t.Fatalf("GetTypeByID=%q err=%v", typ, err)
	}

	got.Description = "Dansare och instruktör"
	if err := repos.Profiles.Update(ctx, got); err != nil {
		t.Fatalf("Update: %v", err)
	}

	ref, err := repos.Profiles.GetReferenceByID(ctx, rec.ID)
	if err != nil || ref.ID != rec.ID || ref.Name != "Stina Lund" {
		t.Fatalf("GetReferenceByID=%+v err=%v", ref, err)
	}

	removed, err := repos.Profiles.Delete(ctx, rec.ID)
	if err != nil || !removed {
		t.Fatalf("Delete removed=%v err=%v", removed, err)
	}
	removed, err = repos.Profiles.Delete(ctx, rec.ID)
	if err != nil || removed {
		t.Fatalf("second Delete removed=%v err=%v", removed, err)
	}
	if _, err := repos.Profiles.GetByID(ctx, rec.ID); !errors.Is(err, profilerepoport.ErrNotFound) {
		t.Fatalf("GetByID after delete err=%v, want ErrNotFound", err)
	}
}

func RunProfileRepo_InvalidImageRef(t *testing.T, newRepos Factory) {
	t.Helper()
	ctx := context.Background()
	repos := open(t, newRepos)

	missing := domain.ImageID(uuid.NewString())
	rec := baseRecord(domain.ProfileTypeIndividual, "Stina Lund")
	rec.Images.CoverID = &missing
	if err := repos.Profiles.Create(ctx, rec); !errors.Is(err, profilerepoport.ErrInvalidImageRef) {
		t.Fatalf("Create err=%v, want ErrInvalidImageRef", err)
	}
}

func RunProfileRepo_SearchOrdering(t *testing.T, newRepos Factory) {
	t.Helper()
	ctx := context.Background()
	repos := open(t, newRepos)

	exact := baseRecord(domain.ProfileTypeIndividual, "Stina Lund")
	near := baseRecord(domain.ProfileTypeOrganization, "Stina Lundqvist Trio")
	far := baseRecord(domain.ProfileTypeVenue, "Bo Ek")
	for _, rec := range []profilerepoport.Record{exact, near, far} {
		if err := repos.Profiles.Create(ctx, rec); err != nil {
			t.Fatalf("Create %q: %v", rec.Name, err)
		}
	}

	hits, err := repos.Profiles.SearchReferencesByName(ctx, "Stina Lund", 10, 0)
	if err != nil {
		t.Fatalf("SearchReferencesByName: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("hits=%+v, want two matches", hits)
	}
	if hits[0].Reference.ID != exact.ID || hits[0].Score != 1.0 {
		t.Fatalf("top hit=%+v, want exact match with score 1.0", hits[0])
	}
	if hits[1].Reference.ID != near.ID || hits[1].Score >= hits[0].Score {
		t.Fatalf("second hit=%+v", hits[1])
	}
}

func RunImageRepo(t *testing.T, newRepos Factory) {
	t.Helper()
	ctx := context.Background()
	repos := open(t, newRepos)

	rec := imagerepoport.Record{
		ID:         domain.ImageID(uuid.NewString()),
		ExternalID: domain.ExternalAssetID(uuid.NewString()),
		Variant:    domain.ImageVariantCover,
		CreatedAt:  time.Unix(1000, 0).UTC(),
	}
	created, err := repos.Images.Create(ctx, rec)
	if err != nil || created.ID != rec.ID {
		t.Fatalf("Create=%+v err=%v", created, err)
	}

	// Same external id: the existing record wins.
	again, err := repos.Images.Create(ctx, imagerepoport.Record{
		ID:         domain.ImageID(uuid.NewString()),
		ExternalID: rec.ExternalID,
		Variant:    domain.ImageVariantPoster,
		CreatedAt:  time.Unix(2000, 0).UTC(),
	})
	if err != nil {
		t.Fatalf("idempotent Create: %v", err)
	}
	if again.ID != rec.ID || again.Variant != domain.ImageVariantCover {
		t.Fatalf("again=%+v, want first record unchanged", again)
	}

	byExt, err := repos.Images.GetByExternalID(ctx, rec.ExternalID)
	if err != nil || byExt.ID != rec.ID {
		t.Fatalf("GetByExternalID=%+v err=%v", byExt, err)
	}

	// A profile bound to the image loses the binding on image delete.
	profile := baseRecord(domain.ProfileTypeVenue, "Folkets Hus")
	cover := rec.ID
	profile.Images.CoverID = &cover
	if err := repos.Profiles.Create(ctx, profile); err != nil {
		t.Fatalf("Create profile: %v", err)
	}
	n, err := repos.Profiles.CountImageReferences(ctx, rec.ID)
	if err != nil || n != 1 {
		t.Fatalf("CountImageReferences=%d err=%v", n, err)
	}

	removed, err := repos.Images.Delete(ctx, rec.ID)
	if err != nil || !removed {
		t.Fatalf("Delete removed=%v err=%v", removed, err)
	}
	got, err := repos.Profiles.GetByID(ctx, profile.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Images.CoverID != nil {
		t.Fatalf("cover still bound after image delete")
	}
	if _, err := repos.Images.GetByID(ctx, rec.ID); !errors.Is(err, imagerepoport.ErrNotFound) {
		t.Fatalf("GetByID err=%v, want ErrNotFound", err)
	}
}

func RunIndividualRepo(t *testing.T, newRepos Factory) {
	t.Helper()
	ctx := context.Background()
	repos := open(t, newRepos)

	org := organizationrepoport.Record{
		Record: baseRecord(domain.ProfileTypeOrganization, "Umeå Lindy Exchange"),
		Tags:   []domain.OrganizationTag{domain.OrganizationTagAssociation},
	}
	if err := repos.Organizations.Create(ctx, org); err != nil {
		t.Fatalf("Create org: %v", err)
	}

	ind := individualrepoport.Record{
		Record:        baseRecord(domain.ProfileTypeIndividual, "Stina Lund"),
		Tags:          []domain.IndividualTag{domain.IndividualTagDancer},
		Organizations: []individualrepoport.Edge{{OrganizationID: org.ID, Title: "Ordförande"}},
	}
	if err := repos.Individuals.Create(ctx, ind); err != nil {
		t.Fatalf("Create individual: %v", err)
	}

	got, err := repos.Individuals.GetByID(ctx, ind.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.Tags) != 1 || len(got.Organizations) != 1 || got.Organizations[0].Title != "Ordförande" {
		t.Fatalf("got=%+v", got)
	}

	// The same edge is visible from the organization's side.
	gotOrg, err := repos.Organizations.GetByID(ctx, org.ID)
	if err != nil {
		t.Fatalf("GetByID org: %v", err)
	}
	if len(gotOrg.Members) != 1 || gotOrg.Members[0].IndividualID != ind.ID {
		t.Fatalf("org members=%+v", gotOrg.Members)
	}

	// Ids of other types are not individuals.
	if _, err := repos.Individuals.GetByID(ctx, org.ID); !errors.Is(err, profilerepoport.ErrNotFound) {
		t.Fatalf("GetByID with org id err=%v, want ErrNotFound", err)
	}

	// Edges to vanished targets are refused.
	bad := individualrepoport.Record{
		Record:        baseRecord(domain.ProfileTypeIndividual, "Anna Berg"),
		Organizations: []individualrepoport.Edge{{OrganizationID: domain.ProfileID(uuid.NewString()), Title: "Medlem"}},
	}
	if err := repos.Individuals.Create(ctx, bad); !errors.Is(err, individualrepoport.ErrEdgeTargetNotFound) {
		t.Fatalf("Create err=%v, want ErrEdgeTargetNotFound", err)
	}

	// Deleting the organization drops the edge but not the individual.
	if _, err := repos.Organizations.Delete(ctx, org.ID); err != nil {
		t.Fatalf("Delete org: %v", err)
	}
	got, err = repos.Individuals.GetByID(ctx, ind.ID)
	if err != nil {
		t.Fatalf("GetByID after org delete: %v", err)
	}
	if len(got.Organizations) != 0 {
		t.Fatalf("edges=%+v, want none", got.Organizations)
	}
}

func RunVenueRepo(t *testing.T, newRepos Factory) {
	t.Helper()
	ctx := context.Background()
	repos := open(t, newRepos)

	root := venuerepoport.Record{
		Record: baseRecord(domain.ProfileTypeVenue, "Folkets Hus"),
		Coords: domain.Coords{Lat: 63.8258, Lng: 20.2630},
	}
	if err := repos.Venues.Create(ctx, root); err != nil {
		t.Fatalf("Create root: %v", err)
	}

	floor := venuerepoport.Record{
		Record:   baseRecord(domain.ProfileTypeVenue, "Andra våningen"),
		Coords:   root.Coords,
		ParentID: &root.ID,
	}
	if err := repos.Venues.Create(ctx, floor); err != nil {
		t.Fatalf("Create floor: %v", err)
	}
	hall := venuerepoport.Record{
		Record:   baseRecord(domain.ProfileTypeVenue, "Stora salen"),
		Coords:   root.Coords,
		ParentID: &floor.ID,
	}
	if err := repos.Venues.Create(ctx, hall); err != nil {
		t.Fatalf("Create hall: %v", err)
	}

	ancestors, err := repos.Venues.GetAncestors(ctx, hall.ID)
	if err != nil {
		t.Fatalf("GetAncestors: %v", err)
	}
	if len(ancestors) != 2 || ancestors[0].ID != root.ID || ancestors[1].ID != floor.ID {
		t.Fatalf("ancestors=%+v, want root first", ancestors)
	}

	children, err := repos.Venues.GetChildren(ctx, root.ID)
	if err != nil || len(children) != 1 || children[0].ID != floor.ID {
		t.Fatalf("children=%+v err=%v", children, err)
	}

	// Re-parenting the root under its grandchild closes a cycle.
	moved := root
	moved.ParentID = &hall.ID
	err = repos.Venues.Update(ctx, moved)
	ce := (*venuerepoport.CycleError)(nil)
	if !errors.As(err, &ce) || ce.OffendingID != root.ID {
		t.Fatalf("Update err=%v, want CycleError for %s", err, root.ID)
	}

	// Unknown parents are refused.
	orphan := venuerepoport.Record{
		Record: baseRecord(domain.ProfileTypeVenue, "Nya huset"),
		Coords: root.Coords,
	}
	missing := domain.ProfileID(uuid.NewString())
	orphan.ParentID = &missing
	if err := repos.Venues.Create(ctx, orphan); !errors.Is(err, venuerepoport.ErrParentNotFound) {
		t.Fatalf("Create err=%v, want ErrParentNotFound", err)
	}

	// Deleting a mid-chain venue truncates descendants' ancestor chains.
	if _, err := repos.Venues.Delete(ctx, floor.ID); err != nil {
		t.Fatalf("Delete floor: %v", err)
	}
	ancestors, err = repos.Venues.GetAncestors(ctx, hall.ID)
	if err != nil {
		t.Fatalf("GetAncestors after delete: %v", err)
	}
	if len(ancestors) != 0 {
		t.Fatalf("ancestors=%+v, want none after parent deletion", ancestors)
	}
}

func RunVenueRepo_Proximity(t *testing.T, newRepos Factory) {
	t.Helper()
	ctx := context.Background()
	repos := open(t, newRepos)

	near := venuerepoport.Record{
		Record: baseRecord(domain.ProfileTypeVenue, "Folkets Hus"),
		Coords: domain.Coords{Lat: 63.8258, Lng: 20.2630},
	}
	far := venuerepoport.Record{
		Record: baseRecord(domain.ProfileTypeVenue, "Nalen"),
		Coords: domain.Coords{Lat: 59.3359, Lng: 18.0740},
	}
	for _, rec := range []venuerepoport.Record{near, far} {
		if err := repos.Venues.Create(ctx, rec); err != nil {
			t.Fatalf("Create %q: %v", rec.Name, err)
		}
	}

	hits, err := repos.Venues.SearchByProximity(ctx, domain.Coords{Lat: 63.8280, Lng: 20.2590}, 5000)
	if err != nil {
		t.Fatalf("SearchByProximity: %v", err)
	}
	if len(hits) != 1 || hits[0].Reference.ID != near.ID {
		t.Fatalf("hits=%+v, want only the nearby venue", hits)
	}
	if hits[0].DistanceMeters <= 0 || hits[0].DistanceMeters > 1000 {
		t.Fatalf("distance=%v, want a few hundred meters", hits[0].DistanceMeters)
	}
}

func RunListPagination(t *testing.T, newRepos Factory) {
	t.Helper()
	ctx := context.Background()
	repos := open(t, newRepos)

	const total = 45
	want := make(map[domain.ProfileID]bool, total)
	for i := 0; i < total; i++ {
		rec := individualrepoport.Record{
			Record: baseRecord(domain.ProfileTypeIndividual, names[i%len(names)]),
		}
		if err := repos.Individuals.Create(ctx, rec); err != nil {
			t.Fatalf("Create: %v", err)
		}
		want[rec.ID] = true
	}

	const pageSize = 20
	seen := make(map[domain.ProfileID]bool, total)
	var pageKey *domain.ProfileID
	for page := 0; ; page++ {
		if page > total {
			t.Fatalf("pagination did not terminate")
		}
		hits, err := repos.Individuals.List(ctx, individualrepoport.Filter{
			PageKey: pageKey,
			Limit:   pageSize + 1,
		})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(hits) == 0 {
			break
		}
		var next *domain.ProfileID
		if len(hits) > pageSize {
			id := hits[pageSize].Reference.ID
			next = &id
			hits = hits[:pageSize]
		}
		for _, h := range hits {
			if seen[h.Reference.ID] {
				t.Fatalf("profile %s appeared on two pages", h.Reference.ID)
			}
			seen[h.Reference.ID] = true
		}
		if next == nil {
			break
		}
		pageKey = next
	}
	if len(seen) != total {
		t.Fatalf("walked %d profiles, want %d", len(seen), total)
	}
	for id := range want {
		if !seen[id] {
			t.Fatalf("profile %s never appeared", id)
		}
	}
}

func RunListPagination_StaleKey(t *testing.T, newRepos Factory) {
	t.Helper()
	ctx := context.Background()
	repos := open(t, newRepos)

	rec := individualrepoport.Record{
		Record: baseRecord(domain.ProfileTypeIndividual, "Stina Lund"),
	}
	if err := repos.Individuals.Create(ctx, rec); err != nil {
		t.Fatalf("Create: %v", err)
	}
	stale := domain.ProfileID(uuid.NewString())
	hits, err := repos.Individuals.List(ctx, individualrepoport.Filter{
		PageKey: &stale,
		Limit:   21,
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("hits=%+v, want empty page for stale key", hits)
	}

	// Keys are opaque to clients; one that is not even id-shaped reads the
	// same as a stale one.
	garbage := domain.ProfileID("not-a-key")
	hits, err = repos.Individuals.List(ctx, individualrepoport.Filter{
		PageKey: &garbage,
		Limit:   21,
	})
	if err != nil {
		t.Fatalf("List with malformed key: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("hits=%+v, want empty page for malformed key", hits)
	}
}

// RunLookupMalformedID verifies that ids which are not even id-shaped read
// as absent rather than failing the lookup.
func RunLookupMalformedID(t *testing.T, newRepos Factory) {
	t.Helper()
	ctx := context.Background()
	repos := open(t, newRepos)

	bad := domain.ProfileID("not-an-id")

	if _, err := repos.Profiles.GetByID(ctx, bad); !errors.Is(err, profilerepoport.ErrNotFound) {
		t.Fatalf("Profiles.GetByID err=%v, want ErrNotFound", err)
	}
	if _, err := repos.Profiles.GetTypeByID(ctx, bad); !errors.Is(err, profilerepoport.ErrNotFound) {
		t.Fatalf("Profiles.GetTypeByID err=%v, want ErrNotFound", err)
	}
	if _, err := repos.Individuals.GetByID(ctx, bad); !errors.Is(err, profilerepoport.ErrNotFound) {
		t.Fatalf("Individuals.GetByID err=%v, want ErrNotFound", err)
	}
	if _, err := repos.Organizations.GetReferenceByID(ctx, bad); !errors.Is(err, profilerepoport.ErrNotFound) {
		t.Fatalf("Organizations.GetReferenceByID err=%v, want ErrNotFound", err)
	}
	if _, err := repos.Venues.GetByID(ctx, bad); !errors.Is(err, profilerepoport.ErrNotFound) {
		t.Fatalf("Venues.GetByID err=%v, want ErrNotFound", err)
	}
	if _, err := repos.Images.GetByID(ctx, domain.ImageID("not-an-id")); !errors.Is(err, imagerepoport.ErrNotFound) {
		t.Fatalf("Images.GetByID err=%v, want ErrNotFound", err)
	}

	if removed, err := repos.Profiles.Delete(ctx, bad); err != nil || removed {
		t.Fatalf("Profiles.Delete removed=%v err=%v, want false, nil", removed, err)
	}
	if removed, err := repos.Venues.Delete(ctx, bad); err != nil || removed {
		t.Fatalf("Venues.Delete removed=%v err=%v, want false, nil", removed, err)
	}

	if _, err := repos.Venues.GetAncestors(ctx, bad); !errors.Is(err, profilerepoport.ErrNotFound) {
		t.Fatalf("GetAncestors err=%v, want ErrNotFound", err)
	}
	if _, err := repos.Venues.GetChildren(ctx, bad); !errors.Is(err, profilerepoport.ErrNotFound) {
		t.Fatalf("GetChildren err=%v, want ErrNotFound", err)
	}

	rec := individualrepoport.Record{
		Record:        baseRecord(domain.ProfileTypeIndividual, "Stina Lund"),
		Organizations: []individualrepoport.Edge{{OrganizationID: bad, Title: "Medlem"}},
	}
	if err := repos.Individuals.Create(ctx, rec); !errors.Is(err, individualrepoport.ErrEdgeTargetNotFound) {
		t.Fatalf("Create with malformed edge target err=%v, want ErrEdgeTargetNotFound", err)
	}
}

// RunMembershipEdgeOrder verifies that edges read back ordered by peer id no
// matter the order they were written in.
func RunMembershipEdgeOrder(t *testing.T, newRepos Factory) {
	t.Helper()
	ctx := context.Background()
	repos := open(t, newRepos)

	orgA := organizationrepoport.Record{Record: baseRecord(domain.ProfileTypeOrganization, "Umeå Lindy Exchange")}
	orgB := organizationrepoport.Record{Record: baseRecord(domain.ProfileTypeOrganization, "Skellefteå Swing")}
	for _, org := range []organizationrepoport.Record{orgA, orgB} {
		if err := repos.Organizations.Create(ctx, org); err != nil {
			t.Fatalf("Create org: %v", err)
		}
	}

	// Write the edges high-id-first so insertion order cannot mask a missing
	// sort.
	edges := []individualrepoport.Edge{
		{OrganizationID: orgA.ID, Title: "Ordförande"},
		{OrganizationID: orgB.ID, Title: "Kassör"},
	}
	if edges[0].OrganizationID < edges[1].OrganizationID {
		edges[0], edges[1] = edges[1], edges[0]
	}

	ind := individualrepoport.Record{
		Record:        baseRecord(domain.ProfileTypeIndividual, "Stina Lund"),
		Organizations: edges,
	}
	if err := repos.Individuals.Create(ctx, ind); err != nil {
		t.Fatalf("Create individual: %v", err)
	}

	got, err := repos.Individuals.GetByID(ctx, ind.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.Organizations) != 2 {
		t.Fatalf("edges=%+v, want 2", got.Organizations)
	}
	if got.Organizations[0].OrganizationID > got.Organizations[1].OrganizationID {
		t.Fatalf("edges out of order: %+v", got.Organizations)
	}

	gotOrg, err := repos.Organizations.GetByID(ctx, orgA.ID)
	if err != nil {
		t.Fatalf("GetByID org: %v", err)
	}
	if len(gotOrg.Members) != 1 || gotOrg.Members[0].IndividualID != ind.ID {
		t.Fatalf("members=%+v", gotOrg.Members)
	}
}

var names = []string{
	"Anna Berg", "Bo Ek", "Cecilia Dahl", "David Ahl", "Elin Falk",
	"Fredrik Holm", "Greta Lind", "Hugo Sand", "Ida Norén", "Johan Åkesson",
	"Karin Öberg", "LarsÄrling",
}
