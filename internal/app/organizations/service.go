package organizations

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

// Service owns organization profiles. Member edges resolve through the
// individual repository's reference lookup, mirroring how individuals
// resolve their organizations: both sides read one stored relation.
type Service struct {
	repo        organizationrepo.Repository
	individuals individualrepo.Repository
	clk         clockport.Clock

	newProfileID func() domain.ProfileID
}

func NewService(repo organizationrepo.Repository, individuals individualrepo.Repository, clk clockport.Clock) *Service {
	return &Service{
		repo:        repo,
		individuals: individuals,
		clk:         clk,
		newProfileID: func() domain.ProfileID {
			return domain.ProfileID(uuid.NewString())
		},
	}
}

// Get returns the full organization view, or nil when the id does not exist
// or belongs to a profile of a different type.
func (s *Service) Get(ctx context.Context, id domain.ProfileID) (*domain.Organization, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, profilerepo.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	org, err := s.resolve(ctx, rec)
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// GetReference returns the reduced view, or nil with the same semantics as Get.
func (s *Service) GetReference(ctx context.Context, id domain.ProfileID) (*domain.OrganizationReference, error) {
	ref, err := s.repo.GetReferenceByID(ctx, id)
	if err != nil {
		if errors.Is(err, profilerepo.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ref, nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (domain.Organization, error) {
	now := s.clk.Now()
	base, iss := profilebase.NewRecord(s.newProfileID(), domain.ProfileTypeOrganization, in.CreateFields, now)
	if iss != nil {
		return domain.Organization{}, validationError(iss)
	}

	tags, err := validateTags(in.Tags)
	if err != nil {
		return domain.Organization{}, err
	}
	edges, err := validateEdges(in.Members)
	if err != nil {
		return domain.Organization{}, err
	}

	rec := organizationrepo.Record{
		Record:  base,
		Tags:    tags,
		Members: edges,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return domain.Organization{}, mapRepoError(err)
	}
	return s.resolve(ctx, rec)
}

func (s *Service) Patch(ctx context.Context, id domain.ProfileID, in PatchInput) (domain.Organization, error) {
	if in.Type != nil && *in.Type != domain.ProfileTypeOrganization {
		return domain.Organization{}, &Error{
			Status:  409,
			Code:    "PROFILE_TYPE_IMMUTABLE",
			Message: "profile type cannot change",
			Details: map[string]any{"type": string(*in.Type)},
		}
	}

	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, profilerepo.ErrNotFound) {
			return domain.Organization{}, notFound()
		}
		return domain.Organization{}, err
	}

	if iss := profilebase.ApplyPatch(&rec.Record, in.Patch); iss != nil {
		return domain.Organization{}, validationError(iss)
	}
	if in.Tags.IsSpecified() {
		if in.Tags.IsNull() {
			rec.Tags = nil
		} else {
			tags, err := validateTags(in.Tags.Value())
			if err != nil {
				return domain.Organization{}, err
			}
			rec.Tags = tags
		}
	}
	if in.Members.IsSpecified() {
		if in.Members.IsNull() {
			rec.Members = nil
		} else {
			edges, err := validateEdges(in.Members.Value())
			if err != nil {
				return domain.Organization{}, err
			}
			rec.Members = edges
		}
	}

	rec.UpdatedAt = s.clk.Now()
	if err := s.repo.Update(ctx, rec); err != nil {
		return domain.Organization{}, mapRepoError(err)
	}
	return s.resolve(ctx, rec)
}

// Delete removes the organization; it reports whether a profile was removed.
func (s *Service) Delete(ctx context.Context, id domain.ProfileID) (bool, error) {
	return s.repo.Delete(ctx, id)
}

// List returns one page of the filtered directory listing.
func (s *Service) List(ctx context.Context, in ListInput) (search.Page[organizationrepo.ScoredReference], error) {
	for _, t := range in.Tags {
		if !t.IsValid() {
			return search.Page[organizationrepo.ScoredReference]{}, &Error{
				Status:  422,
				Code:    "VALIDATION_ERROR",
				Message: "invalid tag filter",
				Details: map[string]any{"tags": fmt.Sprintf("unknown tag %q", t)},
			}
		}
	}
	hits, err := s.repo.List(ctx, organizationrepo.Filter{
		NameQuery: in.NameQuery,
		Tags:      in.Tags,
		MemberIDs: in.MemberIDs,
		PageKey:   in.PageKey,
		Limit:     search.FetchLimit(search.PageSize),
	})
	if err != nil {
		return search.Page[organizationrepo.ScoredReference]{}, err
	}
	return search.NewPage(hits, search.PageSize, func(h organizationrepo.ScoredReference) domain.ProfileID {
		return h.Reference.ID
	}), nil
}

// Tags returns the static tag catalog.
func (s *Service) Tags() []domain.TagDetails {
	return domain.OrganizationTagCatalog()
}

func (s *Service) resolve(ctx context.Context, rec organizationrepo.Record) (domain.Organization, error) {
	out := domain.Organization{
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
		Tags:    append([]domain.OrganizationTag(nil), rec.Tags...),
		Members: make([]domain.OrganizationMember, 0, len(rec.Members)),
	}
	for _, e := range rec.Members {
		ref, err := s.individuals.GetReferenceByID(ctx, e.IndividualID)
		if err != nil {
			if errors.Is(err, profilerepo.ErrNotFound) {
				// Peer deleted concurrently; drop the edge.
				continue
			}
			return domain.Organization{}, err
		}
		out.Members = append(out.Members, domain.OrganizationMember{
			Individual: ref,
			Title:      e.Title,
		})
	}
	return out, nil
}

func validateTags(tags []domain.OrganizationTag) ([]domain.OrganizationTag, error) {
	out := make([]domain.OrganizationTag, 0, len(tags))
	seen := make(map[domain.OrganizationTag]struct{}, len(tags))
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

func validateEdges(edges []MemberEdgeInput) ([]organizationrepo.Edge, error) {
	out := make([]organizationrepo.Edge, 0, len(edges))
	seen := make(map[domain.ProfileID]struct{}, len(edges))
	for _, e := range edges {
		if e.IndividualID == "" {
			return nil, &Error{
				Status:  422,
				Code:    "VALIDATION_ERROR",
				Message: "invalid members",
				Details: map[string]any{"members": "individualId must be non-empty"},
			}
		}
		if _, dup := seen[e.IndividualID]; dup {
			return nil, &Error{
				Status:  422,
				Code:    "VALIDATION_ERROR",
				Message: "invalid members",
				Details: map[string]any{"members": fmt.Sprintf("individual %s listed more than once", e.IndividualID)},
			}
		}
		seen[e.IndividualID] = struct{}{}
		out = append(out, organizationrepo.Edge{
			IndividualID: e.IndividualID,
			Title:        strings.TrimSpace(e.Title),
		})
	}
	return out, nil
}

func mapRepoError(err error) error {
	switch {
	case errors.Is(err, profilerepo.ErrInvalidImageRef):
		return &Error{Status: 422, Code: "INVALID_IMAGE_REFERENCE", Message: "a supplied image id does not exist"}
	case errors.Is(err, organizationrepo.ErrEdgeTargetNotFound):
		return &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "a listed individual does not exist"}
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
