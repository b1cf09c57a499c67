// Package profiles composes the three subtype services behind the shared
// profile identity space. Callers that only hold an id and do not know the
// profile's type go through this service; it resolves the stored type and
// dispatches.
package profiles

import (
	"context"
	"errors"
	"strings"

	"github.com/dansportalen/directory-api/internal/app/individuals"
	"github.com/dansportalen/directory-api/internal/app/organizations"
	"github.com/dansportalen/directory-api/internal/app/venues"
	"github.com/dansportalen/directory-api/internal/domain"
	"github.com/dansportalen/directory-api/internal/ports/out/profilerepo"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// View is the full representation of a profile of any type. Exactly one of
// the three fields is set.
type View struct {
	Individual   *domain.Individual
	Organization *domain.Organization
	Venue        *domain.Venue
}

// Type returns the type of whichever subtype view is set.
func (v View) Type() domain.ProfileType {
	switch {
	case v.Individual != nil:
		return domain.ProfileTypeIndividual
	case v.Organization != nil:
		return domain.ProfileTypeOrganization
	default:
		return domain.ProfileTypeVenue
	}
}

// PatchInput carries the decoded patch for every subtype; the service applies
// the one matching the stored type. Type, when supplied, must match the
// stored type.
type PatchInput struct {
	Type *domain.ProfileType

	Individual   individuals.PatchInput
	Organization organizations.PatchInput
	Venue        venues.PatchInput
}

type Service struct {
	repo profilerepo.Repository

	individuals   *individuals.Service
	organizations *organizations.Service
	venues        *venues.Service
}

func NewService(
	repo profilerepo.Repository,
	ind *individuals.Service,
	org *organizations.Service,
	ven *venues.Service,
) *Service {
	return &Service{
		repo:          repo,
		individuals:   ind,
		organizations: org,
		venues:        ven,
	}
}

// Get returns the full view of the profile regardless of type, or nil when
// the id does not exist.
func (s *Service) Get(ctx context.Context, id domain.ProfileID) (*View, error) {
	typ, err := s.repo.GetTypeByID(ctx, id)
	if err != nil {
		if errors.Is(err, profilerepo.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	switch typ {
	case domain.ProfileTypeIndividual:
		ind, err := s.individuals.Get(ctx, id)
		if err != nil || ind == nil {
			return nil, err
		}
		return &View{Individual: ind}, nil
	case domain.ProfileTypeOrganization:
		org, err := s.organizations.Get(ctx, id)
		if err != nil || org == nil {
			return nil, err
		}
		return &View{Organization: org}, nil
	case domain.ProfileTypeVenue:
		ven, err := s.venues.Get(ctx, id)
		if err != nil || ven == nil {
			return nil, err
		}
		return &View{Venue: ven}, nil
	}
	return nil, nil
}

// GetReference returns the reduced view of any profile, or nil when absent.
func (s *Service) GetReference(ctx context.Context, id domain.ProfileID) (*domain.ProfileReference, error) {
	ref, err := s.repo.GetReferenceByID(ctx, id)
	if err != nil {
		if errors.Is(err, profilerepo.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ref, nil
}

// Patch resolves the stored type and applies the matching subtype patch.
func (s *Service) Patch(ctx context.Context, id domain.ProfileID, in PatchInput) (*View, error) {
	typ, err := s.repo.GetTypeByID(ctx, id)
	if err != nil {
		if errors.Is(err, profilerepo.ErrNotFound) {
			return nil, &Error{Status: 404, Code: "PROFILE_NOT_FOUND", Message: "profile not found"}
		}
		return nil, err
	}
	if in.Type != nil && *in.Type != typ {
		return nil, &Error{
			Status:  409,
			Code:    "PROFILE_TYPE_IMMUTABLE",
			Message: "profile type cannot change",
			Details: map[string]any{"type": string(*in.Type)},
		}
	}

	switch typ {
	case domain.ProfileTypeIndividual:
		ind, err := s.individuals.Patch(ctx, id, in.Individual)
		if err != nil {
			return nil, err
		}
		return &View{Individual: &ind}, nil
	case domain.ProfileTypeOrganization:
		org, err := s.organizations.Patch(ctx, id, in.Organization)
		if err != nil {
			return nil, err
		}
		return &View{Organization: &org}, nil
	default:
		ven, err := s.venues.Patch(ctx, id, in.Venue)
		if err != nil {
			return nil, err
		}
		return &View{Venue: &ven}, nil
	}
}

// Delete removes the profile of any type. Subtype rows, membership edges and
// venue parent links cascade in the repository.
func (s *Service) Delete(ctx context.Context, id domain.ProfileID) (bool, error) {
	return s.repo.Delete(ctx, id)
}

// SearchReferences ranks profiles of every type by name similarity against
// query. An empty query is a validation error; the zero limit means the
// default page size.
func (s *Service) SearchReferences(ctx context.Context, query string, limit, offset int) ([]profilerepo.ScoredReference, error) {
	query = domain.NormalizeName(strings.TrimSpace(query))
	if query == "" {
		return nil, &Error{
			Status:  422,
			Code:    "VALIDATION_ERROR",
			Message: "invalid query",
			Details: map[string]any{"query": "must not be empty"},
		}
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.SearchReferencesByName(ctx, query, limit, offset)
}
