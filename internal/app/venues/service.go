package venues

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/dansportalen/directory-api/internal/app/profilebase"
	"github.com/dansportalen/directory-api/internal/app/search"
	"github.com/dansportalen/directory-api/internal/domain"
	clockport "github.com/dansportalen/directory-api/internal/ports/out/clock"
	"github.com/dansportalen/directory-api/internal/ports/out/profilerepo"
	"github.com/dansportalen/directory-api/internal/ports/out/venuerepo"
)

// MaxProximityRadiusMeters caps proximity searches. 200km comfortably spans
// any Swedish dance weekend's travel radius.
const MaxProximityRadiusMeters = 200_000

// Service owns venue profiles and their hierarchy.
type Service struct {
	repo venuerepo.Repository
	clk  clockport.Clock

	newProfileID func() domain.ProfileID
}

func NewService(repo venuerepo.Repository, clk clockport.Clock) *Service {
	return &Service{
		repo: repo,
		clk:  clk,
		newProfileID: func() domain.ProfileID {
			return domain.ProfileID(uuid.NewString())
		},
	}
}

// Get returns the full venue view including the derived ancestor chain
// (root-first) and direct children, or nil when the id does not exist or
// belongs to a profile of a different type.
func (s *Service) Get(ctx context.Context, id domain.ProfileID) (*domain.Venue, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, profilerepo.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	v, err := s.resolve(ctx, rec)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// GetReference returns the reduced view, or nil with the same semantics as Get.
func (s *Service) GetReference(ctx context.Context, id domain.ProfileID) (*domain.VenueReference, error) {
	ref, err := s.repo.GetReferenceByID(ctx, id)
	if err != nil {
		if errors.Is(err, profilerepo.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ref, nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (domain.Venue, error) {
	now := s.clk.Now()
	base, iss := profilebase.NewRecord(s.newProfileID(), domain.ProfileTypeVenue, in.CreateFields, now)
	if iss != nil {
		return domain.Venue{}, validationError(iss)
	}
	if !in.Coords.Valid() {
		return domain.Venue{}, invalidCoords()
	}

	rec := venuerepo.Record{
		Record:            base,
		Coords:            in.Coords,
		PermanentlyClosed: in.PermanentlyClosed,
		ParentID:          in.ParentID,
	}
	// A fresh node has no children, so inserting under any existing parent
	// can never form a cycle.
	if err := s.repo.Create(ctx, rec); err != nil {
		return domain.Venue{}, mapRepoError(err)
	}
	return s.resolve(ctx, rec)
}

func (s *Service) Patch(ctx context.Context, id domain.ProfileID, in PatchInput) (domain.Venue, error) {
	if in.Type != nil && *in.Type != domain.ProfileTypeVenue {
		return domain.Venue{}, &Error{
			Status:  409,
			Code:    "PROFILE_TYPE_IMMUTABLE",
			Message: "profile type cannot change",
			Details: map[string]any{"type": string(*in.Type)},
		}
	}

	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, profilerepo.ErrNotFound) {
			return domain.Venue{}, notFound()
		}
		return domain.Venue{}, err
	}

	if iss := profilebase.ApplyPatch(&rec.Record, in.Patch); iss != nil {
		return domain.Venue{}, validationError(iss)
	}
	if in.Coords.IsSpecified() {
		if in.Coords.IsNull() {
			return domain.Venue{}, &Error{
				Status:  422,
				Code:    "VALIDATION_ERROR",
				Message: "invalid coords",
				Details: map[string]any{"coords": "cannot be null"},
			}
		}
		if !in.Coords.Value().Valid() {
			return domain.Venue{}, invalidCoords()
		}
		rec.Coords = in.Coords.Value()
	}
	if in.PermanentlyClosed.IsSpecified() && !in.PermanentlyClosed.IsNull() {
		rec.PermanentlyClosed = in.PermanentlyClosed.Value()
	}
	if in.ParentID.IsSpecified() {
		if in.ParentID.IsNull() {
			rec.ParentID = nil
		} else {
			pid := in.ParentID.Value()
			rec.ParentID = &pid
		}
	}

	rec.UpdatedAt = s.clk.Now()
	if err := s.repo.Update(ctx, rec); err != nil {
		return domain.Venue{}, mapRepoError(err)
	}
	return s.resolve(ctx, rec)
}

// Delete removes the venue; its direct children become roots.
func (s *Service) Delete(ctx context.Context, id domain.ProfileID) (bool, error) {
	return s.repo.Delete(ctx, id)
}

// List returns one page of the filtered directory listing.
func (s *Service) List(ctx context.Context, in ListInput) (search.Page[venuerepo.ScoredReference], error) {
	hits, err := s.repo.List(ctx, venuerepo.Filter{
		NameQuery: in.NameQuery,
		PageKey:   in.PageKey,
		Limit:     search.FetchLimit(search.PageSize),
	})
	if err != nil {
		return search.Page[venuerepo.ScoredReference]{}, err
	}
	return search.NewPage(hits, search.PageSize, func(h venuerepo.ScoredReference) domain.ProfileID {
		return h.Reference.ID
	}), nil
}

// Nearby returns venues within maxMeters of origin, closest first.
func (s *Service) Nearby(ctx context.Context, origin domain.Coords, maxMeters float64) ([]venuerepo.ProximityHit, error) {
	if !origin.Valid() {
		return nil, invalidCoords()
	}
	if maxMeters <= 0 || maxMeters > MaxProximityRadiusMeters {
		return nil, &Error{
			Status:  422,
			Code:    "VALIDATION_ERROR",
			Message: "invalid maxDistance",
			Details: map[string]any{"maxDistance": "must be in (0, 200000] meters"},
		}
	}
	return s.repo.SearchByProximity(ctx, origin, maxMeters)
}

func (s *Service) resolve(ctx context.Context, rec venuerepo.Record) (domain.Venue, error) {
	ancestors, err := s.repo.GetAncestors(ctx, rec.ID)
	if err != nil {
		return domain.Venue{}, err
	}
	children, err := s.repo.GetChildren(ctx, rec.ID)
	if err != nil {
		return domain.Venue{}, err
	}
	return domain.Venue{
		Profile: domain.Profile{
			ID:          rec.ID,
			Type:        rec.Type,
			Name:        rec.Name,
			Description: rec.Description,
			Links:       append([]string(nil), rec.Links...),
			Images:      rec.Images.Clone(),
			CreatedAt:   rec.CreatedAt,
			UpdatedAt:   rec.UpdatedAt,
		},
		Coords:            rec.Coords,
		PermanentlyClosed: rec.PermanentlyClosed,
		ParentID:          rec.ParentID,
		Ancestors:         ancestors,
		Children:          children,
	}, nil
}

func mapRepoError(err error) error {
	ce := (*venuerepo.CycleError)(nil)
	switch {
	case errors.As(err, &ce):
		return &Error{
			Status:  409,
			Code:    "VENUE_HIERARCHY_CYCLE",
			Message: "the new parent would make the venue its own ancestor",
			Details: map[string]any{"profileId": string(ce.OffendingID)},
		}
	case errors.Is(err, venuerepo.ErrParentNotFound):
		return &Error{
			Status:  422,
			Code:    "VALIDATION_ERROR",
			Message: "invalid parentId",
			Details: map[string]any{"parentId": "must reference an existing venue"},
		}
	case errors.Is(err, profilerepo.ErrInvalidImageRef):
		return &Error{Status: 422, Code: "INVALID_IMAGE_REFERENCE", Message: "a supplied image id does not exist"}
	case errors.Is(err, profilerepo.ErrNotFound):
		return notFound()
	}
	return err
}

func notFound() *Error {
	return &Error{Status: 404, Code: "PROFILE_NOT_FOUND", Message: "profile not found"}
}

func validationError(iss *profilebase.Issue) *Error {
	return &Error{
		Status:  422,
		Code:    "VALIDATION_ERROR",
		Message: "invalid " + iss.Field,
		Details: map[string]any{iss.Field: iss.Reason},
	}
}

func invalidCoords() *Error {
	return &Error{
		Status:  422,
		Code:    "VALIDATION_ERROR",
		Message: "invalid coords",
		Details: map[string]any{"coords": "lat must be in [-90,90], lng in [-180,180]"},
	}
}
