package memory

import (
	"context"
	"sort"

	"github.com/dansportalen/directory-api/internal/domain"
	"github.com/dansportalen/directory-api/internal/ports/out/organizationrepo"
	"github.com/dansportalen/directory-api/internal/ports/out/profilerepo"
)

// OrganizationRepo implements organizationrepo.Repository over the shared
// Store.
type OrganizationRepo struct {
	s *Store
}

func (r *OrganizationRepo) Create(ctx context.Context, rec organizationrepo.Record) error {
	_ = ctx
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.profiles[rec.ID]; ok {
		return profilerepo.ErrAlreadyExists
	}
	if !r.s.imagesExist(rec.Images) {
		return profilerepo.ErrInvalidImageRef
	}
	if err := r.checkEdgesLocked(rec.Members); err != nil {
		return err
	}

	base := cloneBase(rec.Record)
	base.Type = domain.ProfileTypeOrganization
	r.s.profiles[rec.ID] = base
	r.s.organizationTags[rec.ID] = append([]domain.OrganizationTag(nil), rec.Tags...)
	r.writeEdgesLocked(rec.ID, rec.Members)
	return nil
}

func (r *OrganizationRepo) Update(ctx context.Context, rec organizationrepo.Record) error {
	_ = ctx
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.profiles[rec.ID]
	if !ok || existing.Type != domain.ProfileTypeOrganization {
		return profilerepo.ErrNotFound
	}
	if !r.s.imagesExist(rec.Images) {
		return profilerepo.ErrInvalidImageRef
	}
	if err := r.checkEdgesLocked(rec.Members); err != nil {
		return err
	}

	base := cloneBase(rec.Record)
	base.Type = domain.ProfileTypeOrganization
	r.s.profiles[rec.ID] = base
	r.s.organizationTags[rec.ID] = append([]domain.OrganizationTag(nil), rec.Tags...)
	r.writeEdgesLocked(rec.ID, rec.Members)
	return nil
}

func (r *OrganizationRepo) GetByID(ctx context.Context, id domain.ProfileID) (organizationrepo.Record, error) {
	_ = ctx
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	base, ok := r.s.profiles[id]
	if !ok || base.Type != domain.ProfileTypeOrganization {
		return organizationrepo.Record{}, profilerepo.ErrNotFound
	}
	return r.recordLocked(base), nil
}

func (r *OrganizationRepo) GetReferenceByID(ctx context.Context, id domain.ProfileID) (domain.OrganizationReference, error) {
	_ = ctx
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	base, ok := r.s.profiles[id]
	if !ok || base.Type != domain.ProfileTypeOrganization {
		return domain.OrganizationReference{}, profilerepo.ErrNotFound
	}
	return r.referenceLocked(base), nil
}

func (r *OrganizationRepo) Delete(ctx context.Context, id domain.ProfileID) (bool, error) {
	_ = ctx
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	base, ok := r.s.profiles[id]
	if !ok || base.Type != domain.ProfileTypeOrganization {
		return false, nil
	}
	return r.s.deleteProfileLocked(id), nil
}

func (r *OrganizationRepo) List(ctx context.Context, f organizationrepo.Filter) ([]organizationrepo.ScoredReference, error) {
	_ = ctx
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rows := make([]rankedProfile, 0)
	for id, base := range r.s.profiles {
		if base.Type != domain.ProfileTypeOrganization {
			continue
		}
		if len(f.Tags) > 0 && !hasAnyTag(r.s.organizationTags[id], f.Tags) {
			continue
		}
		if !r.hasAllMembersLocked(id, f.MemberIDs) {
			continue
		}
		row := rankedProfile{rec: base}
		if f.NameQuery != nil {
			score := similarity(base.Name, *f.NameQuery)
			if score < similarityThreshold {
				continue
			}
			row.score = &score
		}
		rows = append(rows, row)
	}
	r.s.rankLocked(rows)
	rows = pageRows(rows, f.PageKey, f.Limit)

	out := make([]organizationrepo.ScoredReference, 0, len(rows))
	for _, row := range rows {
		out = append(out, organizationrepo.ScoredReference{
			Reference: r.referenceLocked(row.rec),
			Score:     row.score,
		})
	}
	return out, nil
}

func (r *OrganizationRepo) recordLocked(base profilerepo.Record) organizationrepo.Record {
	edges := make([]organizationrepo.Edge, 0)
	for k, title := range r.s.memberships {
		if k.organizationID == base.ID {
			edges = append(edges, organizationrepo.Edge{IndividualID: k.individualID, Title: title})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		return edges[i].IndividualID < edges[j].IndividualID
	})
	return organizationrepo.Record{
		Record:  cloneBase(base),
		Tags:    append([]domain.OrganizationTag(nil), r.s.organizationTags[base.ID]...),
		Members: edges,
	}
}

func (r *OrganizationRepo) referenceLocked(base profilerepo.Record) domain.OrganizationReference {
	return domain.OrganizationReference{
		ProfileReference: r.s.baseReferenceLocked(base),
		Tags:             append([]domain.OrganizationTag(nil), r.s.organizationTags[base.ID]...),
	}
}

func (r *OrganizationRepo) checkEdgesLocked(edges []organizationrepo.Edge) error {
	for _, e := range edges {
		target, ok := r.s.profiles[e.IndividualID]
		if !ok || target.Type != domain.ProfileTypeIndividual {
			return organizationrepo.ErrEdgeTargetNotFound
		}
	}
	return nil
}

// writeEdgesLocked replaces the organization's side of the membership
// relation.
func (r *OrganizationRepo) writeEdgesLocked(id domain.ProfileID, edges []organizationrepo.Edge) {
	for k := range r.s.memberships {
		if k.organizationID == id {
			delete(r.s.memberships, k)
		}
	}
	for _, e := range edges {
		r.s.memberships[membershipKey{organizationID: id, individualID: e.IndividualID}] = e.Title
	}
}

func (r *OrganizationRepo) hasAllMembersLocked(id domain.ProfileID, memberIDs []domain.ProfileID) bool {
	for _, mid := range memberIDs {
		if _, ok := r.s.memberships[membershipKey{organizationID: id, individualID: mid}]; !ok {
			return false
		}
	}
	return true
}
