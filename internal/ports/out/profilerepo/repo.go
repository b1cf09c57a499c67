package profilerepo

import (
	"context"
	"time"

	"github.com/dansportalen/directory-api/internal/domain"
)

// Record is the persistence shape of the common profile fields. Subtype
// repositories embed it in their own records; this repository owns the
// shared identity space.
type Record struct {
	ID   domain.ProfileID
	Type domain.ProfileType

	Name        string
	Description string
	Links       []string
	Images      domain.ImageSet

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ScoredReference is a name-search hit. Score is the [0,1] similarity of the
// profile name against the query; exact equality scores 1.0.
type ScoredReference struct {
	Reference domain.ProfileReference
	Score     float64
}

// Repository provides access to the common profile fields of every profile,
// regardless of subtype.
//
// Result ordering: SearchReferencesByName orders by descending score, then
// name (Swedish collation), then id, so results never tie.
type Repository interface {
	// Create persists the common fields. Every bound image id must resolve to
	// an existing image record; ErrInvalidImageRef otherwise.
	Create(ctx context.Context, rec Record) error

	// Update overwrites the common fields. Tri-state patch semantics are
	// applied by the caller before the write; the repository receives the
	// merged record. ErrNotFound when the id does not exist.
	Update(ctx context.Context, rec Record) error

	GetByID(ctx context.Context, id domain.ProfileID) (Record, error)
	GetReferenceByID(ctx context.Context, id domain.ProfileID) (domain.ProfileReference, error)
	GetTypeByID(ctx context.Context, id domain.ProfileID) (domain.ProfileType, error)

	// Delete removes the profile and cascades to its subtype extension row
	// and edges. It returns whether a row was actually removed.
	Delete(ctx context.Context, id domain.ProfileID) (bool, error)

	// SearchReferencesByName returns similarity-ranked references across all
	// profile types for a non-empty query.
	SearchReferencesByName(ctx context.Context, query string, limit, offset int) ([]ScoredReference, error)

	// CountImageReferences reports how many profile image slots currently
	// bind the given image.
	CountImageReferences(ctx context.Context, id domain.ImageID) (int, error)
}
