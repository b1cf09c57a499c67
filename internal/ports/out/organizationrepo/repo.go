package organizationrepo

import (
	"context"

	"github.com/dansportalen/directory-api/internal/domain"
	"github.com/dansportalen/directory-api/internal/ports/out/profilerepo"
)

// Edge is one unresolved membership edge stored from the organization's
// side. It reads and writes the same relation as the individual-side edge.
type Edge struct {
	IndividualID domain.ProfileID
	Title        string
}

// Record composes the common profile fields with the organization extension.
type Record struct {
	profilerepo.Record

	Tags []domain.OrganizationTag
	// Members holds at most one edge per individual id.
	Members []Edge
}

// ScoredReference is a filtered-list hit. Score is nil when the filter had
// no name query.
type ScoredReference struct {
	Reference domain.OrganizationReference
	Score     *float64
}

// Filter selects and pages organizations. See Repository.List.
type Filter struct {
	NameQuery *string
	// Tags match if ANY listed tag is present (OR).
	Tags []domain.OrganizationTag
	// MemberIDs require that ALL listed individuals are members (AND).
	MemberIDs []domain.ProfileID
	// PageKey resumes the total order at the profile with this id.
	PageKey *domain.ProfileID
	Limit   int
}

// Repository persists organizations. Writes touch the base profile row and
// the extension row inside one transaction.
type Repository interface {
	Create(ctx context.Context, rec Record) error
	Update(ctx context.Context, rec Record) error

	// GetByID returns ErrNotFound when the id does not exist or belongs to a
	// profile of a different type.
	GetByID(ctx context.Context, id domain.ProfileID) (Record, error)
	GetReferenceByID(ctx context.Context, id domain.ProfileID) (domain.OrganizationReference, error)

	Delete(ctx context.Context, id domain.ProfileID) (bool, error)

	// List returns hits in the engine's total order (see individualrepo).
	List(ctx context.Context, f Filter) ([]ScoredReference, error)
}
