package venuerepo

import (
	"context"

	"github.com/dansportalen/directory-api/internal/domain"
	"github.com/dansportalen/directory-api/internal/ports/out/profilerepo"
)

// Record composes the common profile fields with the venue extension.
type Record struct {
	profilerepo.Record

	Coords            domain.Coords
	PermanentlyClosed bool
	ParentID          *domain.ProfileID
}

// ScoredReference is a filtered-list hit. Score is nil when the filter had
// no name query.
type ScoredReference struct {
	Reference domain.VenueReference
	Score     *float64
}

// ProximityHit is a venue within a proximity search radius.
type ProximityHit struct {
	Reference      domain.VenueReference
	DistanceMeters float64
}

// Filter selects and pages venues. See Repository.List.
type Filter struct {
	NameQuery *string
	// PageKey resumes the total order at the profile with this id.
	PageKey *domain.ProfileID
	Limit   int
}

// Repository persists venues and their hierarchy.
//
// The parent/child graph is a forest. Structural writes run the full-depth
// cycle check inside the write transaction and serialize against each other,
// so two concurrent re-parentings cannot jointly form a cycle.
type Repository interface {
	// Create persists the record. ErrParentNotFound when ParentID does not
	// reference an existing venue.
	Create(ctx context.Context, rec Record) error

	// Update overwrites the record. A ParentID change that would make the
	// venue its own ancestor fails with a *CycleError.
	Update(ctx context.Context, rec Record) error

	// GetByID returns ErrNotFound when the id does not exist or belongs to a
	// profile of a different type.
	GetByID(ctx context.Context, id domain.ProfileID) (Record, error)
	GetReferenceByID(ctx context.Context, id domain.ProfileID) (domain.VenueReference, error)

	Delete(ctx context.Context, id domain.ProfileID) (bool, error)

	// GetAncestors walks parent links from the venue to its root, returned
	// root-first. A parent deleted mid-walk truncates the chain.
	GetAncestors(ctx context.Context, id domain.ProfileID) ([]domain.VenueReference, error)

	// GetChildren returns direct children only, unordered.
	GetChildren(ctx context.Context, id domain.ProfileID) ([]domain.VenueReference, error)

	// List returns hits in the engine's total order (see individualrepo).
	List(ctx context.Context, f Filter) ([]ScoredReference, error)

	// SearchByProximity returns venues within maxMeters of origin, ascending
	// by distance.
	SearchByProximity(ctx context.Context, origin domain.Coords, maxMeters float64) ([]ProximityHit, error)
}
