package individuals

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dansportalen/directory-api/internal/app/profilebase"
	"github.com/dansportalen/directory-api/internal/app/search"
	"github.com/dansportalen/directory-api/internal/domain"
	clockport "github.com/dansportalen/directory-api/internal/ports/out/clock"
	"github.com/dansportalen/directory-api/internal/ports/out/individualrepo"
	"github.com/dansportalen/directory-api/internal/ports/out/organizationrepo"
	"github.com/dansportalen/directory-api/internal/ports/out/profilerepo"
)

// Service owns individual profiles. Membership edges are resolved through
// the organization repository's reference lookup; an edge whose target has
// vanished is silently dropped rather than failing the read.
type Service struct {
	repo individualrepo.Repository
	orgs organizationrepo.Repository
	clk  clockport.Clock

	newProfileID func() domain.ProfileID
}

func NewService(repo individualrepo.Repository, orgs organizationrepo.Repository, clk clockport.Clock) *Service {
	return &Service{
		repo: repo,
		orgs: orgs,
		clk:  clk,
		newProfileID: func() domain.ProfileID {
			return domain.ProfileID(uuid.NewString())
		},
	}
}

// Get returns the full individual view, or nil when the id does not exist
// or belongs to a profile of a different type.
func (s *Service) Get(ctx context.Context, id domain.ProfileID) (*domain.Individual, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, profilerepo.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	ind, err := s.resolve(ctx, rec)
	if err != nil {
		return nil, err
	}
	return &ind, nil
}

// GetReference returns the reduced view, or nil with the same semantics as Get.
func (s *Service) GetReference(ctx context.Context, id domain.ProfileID) (*domain.IndividualReference, error) {
	ref, err := s.repo.GetReferenceByID(ctx, id)
	if err != nil {
		if errors.Is(err, profilerepo.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ref, nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (domain.Individual, error) {
	now := s.clk.Now()
	base, iss := profilebase.NewRecord(s.newProfileID(), domain.ProfileTypeIndividual, in.CreateFields, now)
	if iss != nil {
		return domain.Individual{}, validationError(iss)
	}

	tags, err := validateTags(in.Tags)
	if err != nil {
		return domain.Individual{}, err
	}
	edges, err := validateEdges(in.Organizations)
	if err != nil {
		return domain.Individual{}, err
	}

	rec := individualrepo.Record{
		Record:        base,
		Tags:          tags,
		Organizations: edges,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return domain.Individual{}, mapRepoError(err)
	}
	return s.resolve(ctx, rec)
}

func (s *Service) Patch(ctx context.Context, id domain.ProfileID, in PatchInput) (domain.Individual, error) {
	if in.Type != nil && *in.Type != domain.ProfileTypeIndividual {
		return domain.Individual{}, &Error{
			Status:  409,
			Code:    "PROFILE_TYPE_IMMUTABLE",
			Message: "profile type cannot change",
			Details: map[string]any{"type": string(*in.Type)},
		}
	}

	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, profilerepo.ErrNotFound) {
			return domain.Individual{}, notFound()
		}
		return domain.Individual{}, err
	}

	if iss := profilebase.ApplyPatch(&rec.Record, in.Patch); iss != nil {
		return domain.Individual{}, validationError(iss)
	}
	if in.Tags.IsSpecified() {
		if in.Tags.IsNull() {
			rec.Tags = nil
		} else {
			tags, err := validateTags(in.Tags.Value())
			if err != nil {
				return domain.Individual{}, err
			}
			rec.Tags = tags
		}
	}
	if in.Organizations.IsSpecified() {
		if in.Organizations.IsNull() {
			rec.Organizations = nil
		} else {
			edges, err := validateEdges(in.Organizations.Value())
			if err != nil {
				return domain.Individual{}, err
			}
			rec.Organizations = edges
		}
	}

	rec.UpdatedAt = s.clk.Now()
	if err := s.repo.Update(ctx, rec); err != nil {
		return domain.Individual{}, mapRepoError(err)
	}
	return s.resolve(ctx, rec)
}

// Delete removes the individual; it reports whether a profile was removed.
// Ids of other profile types are left alone and report false.
func (s *Service) Delete(ctx context.Context, id domain.ProfileID) (bool, error) {
	return s.repo.Delete(ctx, id)
}

// List returns one page of the filtered directory listing.
func (s *Service) List(ctx context.Context, in ListInput) (search.Page[individualrepo.ScoredReference], error) {
	for _, t := range in.Tags {
		if !t.IsValid() {
			return search.Page[individualrepo.ScoredReference]{}, &Error{
				Status:  422,
				Code:    "VALIDATION_ERROR",
				Message: "invalid tag filter",
				Details: map[string]any{"tags": fmt.Sprintf("unknown tag %q", t)},
			}
		}
	}
	hits, err := s.repo.List(ctx, individualrepo.Filter{
		NameQuery:       in.NameQuery,
		Tags:            in.Tags,
		OrganizationIDs: in.OrganizationIDs,
		PageKey:         in.PageKey,
		Limit:           search.FetchLimit(search.PageSize),
	})
	if err != nil {
		return search.Page[individualrepo.ScoredReference]{}, err
	}
	return search.NewPage(hits, search.PageSize, func(h individualrepo.ScoredReference) domain.ProfileID {
		return h.Reference.ID
	}), nil
}

// Tags returns the static tag catalog.
func (s *Service) Tags() []domain.TagDetails {
	return domain.IndividualTagCatalog()
}

func (s *Service) resolve(ctx context.Context, rec individualrepo.Record) (domain.Individual, error) {
	out := domain.Individual{
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
		Tags:          append([]domain.IndividualTag(nil), rec.Tags...),
		Organizations: make([]domain.OrganizationMembership, 0, len(rec.Organizations)),
	}
	for _, e := range rec.Organizations {
		ref, err := s.orgs.GetReferenceByID(ctx, e.OrganizationID)
		if err != nil {
			if errors.Is(err, profilerepo.ErrNotFound) {
				// Peer deleted concurrently; drop the edge.
				continue
			}
			return domain.Individual{}, err
		}
		out.Organizations = append(out.Organizations, domain.OrganizationMembership{
			Organization: ref,
			Title:        e.Title,
		})
	}
	return out, nil
}

func validateTags(tags []domain.IndividualTag) ([]domain.IndividualTag, error) {
	out := make([]domain.IndividualTag, 0, len(tags))
	seen := make(map[domain.IndividualTag]struct{}, len(tags))
	for _, t := range tags {
		if !t.IsValid() {
			return nil, &Error{
				Status:  422,
				Code:    "VALIDATION_ERROR",
				Message: "invalid tags",
				Details: map[string]any{"tags": fmt.Sprintf("unknown tag %q", t)},
			}
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out, nil
}

func validateEdges(edges []OrganizationEdgeInput) ([]individualrepo.Edge, error) {
	out := make([]individualrepo.Edge, 0, len(edges))
	seen := make(map[domain.ProfileID]struct{}, len(edges))
	for _, e := range edges {
		if e.OrganizationID == "" {
			return nil, &Error{
				Status:  422,
				Code:    "VALIDATION_ERROR",
				Message: "invalid organizations",
				Details: map[string]any{"organizations": "organizationId must be non-empty"},
			}
		}
		if _, dup := seen[e.OrganizationID]; dup {
			return nil, &Error{
				Status:  422,
				Code:    "VALIDATION_ERROR",
				Message: "invalid organizations",
				Details: map[string]any{"organizations": fmt.Sprintf("organization %s listed more than once", e.OrganizationID)},
			}
		}
		seen[e.OrganizationID] = struct{}{}
		out = append(out, individualrepo.Edge{
			OrganizationID: e.OrganizationID,
			Title:          strings.TrimSpace(e.Title),
		})
	}
	return out, nil
}

func mapRepoError(err error) error {
	switch {
	case errors.Is(err, profilerepo.ErrInvalidImageRef):
		return &Error{Status: 422, Code: "INVALID_IMAGE_REFERENCE", Message: "a supplied image id does not exist"}
	case errors.Is(err, individualrepo.ErrEdgeTargetNotFound):
		return &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "a listed organization does not exist"}
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
