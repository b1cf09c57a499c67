package memory

import (
	"context"
	"sort"

	"github.com/dansportalen/directory-api/internal/domain"
	"github.com/dansportalen/directory-api/internal/ports/out/individualrepo"
	"github.com/dansportalen/directory-api/internal/ports/out/profilerepo"
)

// IndividualRepo implements individualrepo.Repository over the shared Store.
type IndividualRepo struct {
	s *Store
}

func (r *IndividualRepo) Create(ctx context.Context, rec individualrepo.Record) error {
	_ = ctx
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.profiles[rec.ID]; ok {
		return profilerepo.ErrAlreadyExists
	}
	if !r.s.imagesExist(rec.Images) {
		return profilerepo.ErrInvalidImageRef
	}
	if err := r.checkEdgesLocked(rec.Organizations); err != nil {
		return err
	}

	base := cloneBase(rec.Record)
	base.Type = domain.ProfileTypeIndividual
	r.s.profiles[rec.ID] = base
	r.s.individualTags[rec.ID] = append([]domain.IndividualTag(nil), rec.Tags...)
	r.writeEdgesLocked(rec.ID, rec.Organizations)
	return nil
}

func (r *IndividualRepo) Update(ctx context.Context, rec individualrepo.Record) error {
	_ = ctx
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.profiles[rec.ID]
	if !ok || existing.Type != domain.ProfileTypeIndividual {
		return profilerepo.ErrNotFound
	}
	if !r.s.imagesExist(rec.Images) {
		return profilerepo.ErrInvalidImageRef
	}
	if err := r.checkEdgesLocked(rec.Organizations); err != nil {
		return err
	}

	base := cloneBase(rec.Record)
	base.Type = domain.ProfileTypeIndividual
	r.s.profiles[rec.ID] = base
	r.s.individualTags[rec.ID] = append([]domain.IndividualTag(nil), rec.Tags...)
	r.writeEdgesLocked(rec.ID, rec.Organizations)
	return nil
}

func (r *IndividualRepo) GetByID(ctx context.Context, id domain.ProfileID) (individualrepo.Record, error) {
	_ = ctx
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	base, ok := r.s.profiles[id]
	if !ok || base.Type != domain.ProfileTypeIndividual {
		return individualrepo.Record{}, profilerepo.ErrNotFound
	}
	return r.recordLocked(base), nil
}

func (r *IndividualRepo) GetReferenceByID(ctx context.Context, id domain.ProfileID) (domain.IndividualReference, error) {
	_ = ctx
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	base, ok := r.s.profiles[id]
	if !ok || base.Type != domain.ProfileTypeIndividual {
		return domain.IndividualReference{}, profilerepo.ErrNotFound
	}
	return r.referenceLocked(base), nil
}

func (r *IndividualRepo) Delete(ctx context.Context, id domain.ProfileID) (bool, error) {
	_ = ctx
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	base, ok := r.s.profiles[id]
	if !ok || base.Type != domain.ProfileTypeIndividual {
		return false, nil
	}
	return r.s.deleteProfileLocked(id), nil
}

func (r *IndividualRepo) List(ctx context.Context, f individualrepo.Filter) ([]individualrepo.ScoredReference, error) {
	_ = ctx
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rows := make([]rankedProfile, 0)
	for id, base := range r.s.profiles {
		if base.Type != domain.ProfileTypeIndividual {
			continue
		}
		if len(f.Tags) > 0 && !hasAnyTag(r.s.individualTags[id], f.Tags) {
			continue
		}
		if !r.memberOfAllLocked(id, f.OrganizationIDs) {
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

	out := make([]individualrepo.ScoredReference, 0, len(rows))
	for _, row := range rows {
		out = append(out, individualrepo.ScoredReference{
			Reference: r.referenceLocked(row.rec),
			Score:     row.score,
		})
	}
	return out, nil
}

func (r *IndividualRepo) recordLocked(base profilerepo.Record) individualrepo.Record {
	edges := make([]individualrepo.Edge, 0)
	for k, title := range r.s.memberships {
		if k.individualID == base.ID {
			edges = append(edges, individualrepo.Edge{OrganizationID: k.organizationID, Title: title})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		return edges[i].OrganizationID < edges[j].OrganizationID
	})
	return individualrepo.Record{
		Record:        cloneBase(base),
		Tags:          append([]domain.IndividualTag(nil), r.s.individualTags[base.ID]...),
		Organizations: edges,
	}
}

func (r *IndividualRepo) referenceLocked(base profilerepo.Record) domain.IndividualReference {
	return domain.IndividualReference{
		ProfileReference: r.s.baseReferenceLocked(base),
		Tags:             append([]domain.IndividualTag(nil), r.s.individualTags[base.ID]...),
	}
}

func (r *IndividualRepo) checkEdgesLocked(edges []individualrepo.Edge) error {
	for _, e := range edges {
		target, ok := r.s.profiles[e.OrganizationID]
		if !ok || target.Type != domain.ProfileTypeOrganization {
			return individualrepo.ErrEdgeTargetNotFound
		}
	}
	return nil
}

// writeEdgesLocked replaces the individual's side of the membership relation.
func (r *IndividualRepo) writeEdgesLocked(id domain.ProfileID, edges []individualrepo.Edge) {
	for k := range r.s.memberships {
		if k.individualID == id {
			delete(r.s.memberships, k)
		}
	}
	for _, e := range edges {
		r.s.memberships[membershipKey{organizationID: e.OrganizationID, individualID: id}] = e.Title
	}
}

func (r *IndividualRepo) memberOfAllLocked(id domain.ProfileID, orgIDs []domain.ProfileID) bool {
	for _, orgID := range orgIDs {
		if _, ok := r.s.memberships[membershipKey{organizationID: orgID, individualID: id}]; !ok {
			return false
		}
	}
	return true
}

func hasAnyTag[T comparable](have, want []T) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}
