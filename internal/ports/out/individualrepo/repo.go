package individualrepo

import (
	"context"

	"github.com/dansportalen/directory-api/internal/domain"
	"github.com/dansportalen/directory-api/internal/ports/out/profilerepo"
)

// Edge is one unresolved membership edge stored from the individual's side.
type Edge struct {
	OrganizationID domain.ProfileID
	Title          string
}

// Record composes the common profile fields with the individual extension.
type Record struct {
	profilerepo.Record

	Tags []domain.IndividualTag
	// Organizations holds at most one edge per organization id.
	Organizations []Edge
}

// ScoredReference is a filtered-list hit. Score is nil when the filter had
// no name query.
type ScoredReference struct {
	Reference domain.IndividualReference
	Score     *float64
}

// Filter selects and pages individuals. See Repository.List.
type Filter struct {
	// NameQuery enables similarity ranking when non-nil.
	NameQuery *string
	// Tags match if ANY listed tag is present (OR).
	Tags []domain.IndividualTag
	// OrganizationIDs require membership in ALL listed organizations (AND).
	OrganizationIDs []domain.ProfileID
	// PageKey resumes the total order at the profile with this id. An id
	// absent from the result set yields an empty page.
	PageKey *domain.ProfileID
	Limit   int
}

// Repository persists individuals. Writes touch the base profile row and the
// extension row inside one transaction; a failure in either part leaves
// neither committed.
type Repository interface {
	Create(ctx context.Context, rec Record) error
	Update(ctx context.Context, rec Record) error

	// GetByID returns ErrNotFound when the id does not exist or when it
	// belongs to a profile of a different type.
	GetByID(ctx context.Context, id domain.ProfileID) (Record, error)
	GetReferenceByID(ctx context.Context, id domain.ProfileID) (domain.IndividualReference, error)

	Delete(ctx context.Context, id domain.ProfileID) (bool, error)

	// List returns hits in the engine's total order: score descending (when
	// a name query is set), name ascending under Swedish collation, id
	// ascending.
	List(ctx context.Context, f Filter) ([]ScoredReference, error)
}
