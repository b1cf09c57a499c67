package memory

import (
	"testing"

	"github.com/dansportalen/directory-api/internal/adapters/contracttest"
)

func factory(t *testing.T) (contracttest.Repos, func()) {
	t.Helper()
	store := NewStore()
	return contracttest.Repos{
		Profiles:      store.Profiles(),
		Individuals:   store.Individuals(),
		Organizations: store.Organizations(),
		Venues:        store.Venues(),
		Images:        store.Images(),
	}, nil
}

func TestContract_ProfileRepo(t *testing.T) {
	contracttest.RunProfileRepo(t, factory)
}

func TestContract_ProfileRepo_InvalidImageRef(t *testing.T) {
	contracttest.RunProfileRepo_InvalidImageRef(t, factory)
}

func TestContract_ProfileRepo_SearchOrdering(t *testing.T) {
	contracttest.RunProfileRepo_SearchOrdering(t, factory)
}

func TestContract_ImageRepo(t *testing.T) {
	contracttest.RunImageRepo(t, factory)
}

func TestContract_IndividualRepo(t *testing.T) {
	contracttest.RunIndividualRepo(t, factory)
}

func TestContract_VenueRepo(t *testing.T) {
	contracttest.RunVenueRepo(t, factory)
}

func TestContract_VenueRepo_Proximity(t *testing.T) {
	contracttest.RunVenueRepo_Proximity(t, factory)
}

func TestContract_ListPagination(t *testing.T) {
	contracttest.RunListPagination(t, factory)
}

func TestContract_ListPagination_StaleKey(t *testing.T) {
	contracttest.RunListPagination_StaleKey(t, factory)
}

func TestContract_LookupMalformedID(t *testing.T) {
	contracttest.RunLookupMalformedID(t, factory)
}

func TestContract_MembershipEdgeOrder(t *testing.T) {
	contracttest.RunMembershipEdgeOrder(t, factory)
}
