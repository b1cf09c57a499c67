package postgres_test

import (
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dansportalen/directory-api/internal/adapters/contracttest"
	pgimage "github.com/dansportalen/directory-api/internal/adapters/postgres/imagerepo"
	pgindividual "github.com/dansportalen/directory-api/internal/adapters/postgres/individualrepo"
	pgorganization "github.com/dansportalen/directory-api/internal/adapters/postgres/organizationrepo"
	pgprofile "github.com/dansportalen/directory-api/internal/adapters/postgres/profilerepo"
	pgvenue "github.com/dansportalen/directory-api/internal/adapters/postgres/venuerepo"
	"github.com/dansportalen/directory-api/internal/adapters/postgres/testutil"
)

func factory(pool *pgxpool.Pool) contracttest.Factory {
	return func(t *testing.T) (contracttest.Repos, func()) {
		t.Helper()
		testutil.Truncate(t, pool)
		return contracttest.Repos{
			Profiles:      pgprofile.NewRepo(pool),
			Individuals:   pgindividual.NewRepo(pool),
			Organizations: pgorganization.NewRepo(pool),
			Venues:        pgvenue.NewRepo(pool),
			Images:        pgimage.NewRepo(pool),
		}, nil
	}
}

func TestContract_ProfileRepo(t *testing.T) {
	contracttest.RunProfileRepo(t, factory(testutil.OpenMigratedPool(t)))
}

func TestContract_ProfileRepo_InvalidImageRef(t *testing.T) {
	contracttest.RunProfileRepo_InvalidImageRef(t, factory(testutil.OpenMigratedPool(t)))
}

func TestContract_ProfileRepo_SearchOrdering(t *testing.T) {
	contracttest.RunProfileRepo_SearchOrdering(t, factory(testutil.OpenMigratedPool(t)))
}

func TestContract_ImageRepo(t *testing.T) {
	contracttest.RunImageRepo(t, factory(testutil.OpenMigratedPool(t)))
}

func TestContract_IndividualRepo(t *testing.T) {
	contracttest.RunIndividualRepo(t, factory(testutil.OpenMigratedPool(t)))
}

func TestContract_VenueRepo(t *testing.T) {
	contracttest.RunVenueRepo(t, factory(testutil.OpenMigratedPool(t)))
}

func TestContract_VenueRepo_Proximity(t *testing.T) {
	contracttest.RunVenueRepo_Proximity(t, factory(testutil.OpenMigratedPool(t)))
}

func TestContract_ListPagination(t *testing.T) {
	contracttest.RunListPagination(t, factory(testutil.OpenMigratedPool(t)))
}

func TestContract_ListPagination_StaleKey(t *testing.T) {
	contracttest.RunListPagination_StaleKey(t, factory(testutil.OpenMigratedPool(t)))
}

func TestContract_LookupMalformedID(t *testing.T) {
	contracttest.RunLookupMalformedID(t, factory(testutil.OpenMigratedPool(t)))
}

func TestContract_MembershipEdgeOrder(t *testing.T) {
	contracttest.RunMembershipEdgeOrder(t, factory(testutil.OpenMigratedPool(t)))
}
