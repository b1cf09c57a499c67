package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dansportalen/directory-api/internal/domain"
	"github.com/dansportalen/directory-api/internal/ports/out/individualrepo"
	"github.com/dansportalen/directory-api/internal/ports/out/profilerepo"
)

func seedIndividual(t *testing.T, store *Store, id domain.ProfileID, name string) {
	t.Helper()
	err := store.Individuals().Create(context.Background(), individualrepo.Record{
		Record: profilerepo.Record{
			ID:   id,
			Type: domain.ProfileTypeIndividual,
			Name: name,
		},
	})
	require.NoError(t, err)
}

func TestList_SwedishCollation(t *testing.T) {
	t.Parallel()

	store := NewStore()
	// Swedish sorts å, ä, ö after z.
	seedIndividual(t, store, "p-3", "Örjan Sund")
	seedIndividual(t, store, "p-1", "Anna Berg")
	seedIndividual(t, store, "p-4", "Åsa Vik")
	seedIndividual(t, store, "p-2", "Zandra Holm")

	hits, err := store.Individuals().List(context.Background(), individualrepo.Filter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, hits, 4)

	got := make([]string, 0, len(hits))
	for _, h := range hits {
		got = append(got, h.Reference.Name)
	}
	assert.Equal(t, []string{"Anna Berg", "Zandra Holm", "Åsa Vik", "Örjan Sund"}, got)
}

func TestList_TieBreakByID(t *testing.T) {
	t.Parallel()

	store := NewStore()
	seedIndividual(t, store, "p-b", "Anna Berg")
	seedIndividual(t, store, "p-a", "Anna Berg")

	hits, err := store.Individuals().List(context.Background(), individualrepo.Filter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, domain.ProfileID("p-a"), hits[0].Reference.ID)
	assert.Equal(t, domain.ProfileID("p-b"), hits[1].Reference.ID)
}

func TestList_SimilarityBeforeName(t *testing.T) {
	t.Parallel()

	store := NewStore()
	seedIndividual(t, store, "p-1", "Stina Lundqvist")
	seedIndividual(t, store, "p-2", "Stina Lund")
	seedIndividual(t, store, "p-3", "Bo Ek")

	q := "Stina Lund"
	hits, err := store.Individuals().List(context.Background(), individualrepo.Filter{
		NameQuery: &q,
		Limit:     10,
	})
	require.NoError(t, err)
	require.Len(t, hits, 2, "unrelated names fall under the similarity threshold")

	assert.Equal(t, domain.ProfileID("p-2"), hits[0].Reference.ID)
	require.NotNil(t, hits[0].Score)
	assert.Equal(t, 1.0, *hits[0].Score)

	assert.Equal(t, domain.ProfileID("p-1"), hits[1].Reference.ID)
	require.NotNil(t, hits[1].Score)
	assert.Less(t, *hits[1].Score, 1.0)
	assert.GreaterOrEqual(t, *hits[1].Score, 0.3)
}

func TestList_PageKeyResumesInclusive(t *testing.T) {
	t.Parallel()

	store := NewStore()
	seedIndividual(t, store, "p-1", "Anna Berg")
	seedIndividual(t, store, "p-2", "Bo Ek")
	seedIndividual(t, store, "p-3", "Cecilia Dahl")

	key := domain.ProfileID("p-2")
	hits, err := store.Individuals().List(context.Background(), individualrepo.Filter{
		PageKey: &key,
		Limit:   10,
	})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, domain.ProfileID("p-2"), hits[0].Reference.ID)
	assert.Equal(t, domain.ProfileID("p-3"), hits[1].Reference.ID)
}

func TestSimilarity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1.0, similarity("Stina Lund", "stina  lund"), "normalized equality is exact")
	assert.Equal(t, 0.0, similarity("", "query"))

	near := similarity("Stina Lundqvist", "Stina Lund")
	unrelated := similarity("Bo Ek", "Stina Lund")
	assert.Greater(t, near, unrelated)
	assert.GreaterOrEqual(t, near, similarityThreshold)
	assert.Less(t, unrelated, similarityThreshold)
}
