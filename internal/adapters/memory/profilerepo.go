package memory

import (
	"context"

	"github.com/dansportalen/directory-api/internal/domain"
	"github.com/dansportalen/directory-api/internal/ports/out/profilerepo"
)

// ProfileRepo implements profilerepo.Repository over the shared Store.
type ProfileRepo struct {
	s *Store
}

func (r *ProfileRepo) Create(ctx context.Context, rec profilerepo.Record) error {
	_ = ctx
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.profiles[rec.ID]; ok {
		return profilerepo.ErrAlreadyExists
	}
	if !r.s.imagesExist(rec.Images) {
		return profilerepo.ErrInvalidImageRef
	}
	r.s.profiles[rec.ID] = cloneBase(rec)
	return nil
}

func (r *ProfileRepo) Update(ctx context.Context, rec profilerepo.Record) error {
	_ = ctx
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.profiles[rec.ID]
	if !ok {
		return profilerepo.ErrNotFound
	}
	if !r.s.imagesExist(rec.Images) {
		return profilerepo.ErrInvalidImageRef
	}
	// The type column never changes through an update.
	rec.Type = existing.Type
	r.s.profiles[rec.ID] = cloneBase(rec)
	return nil
}

func (r *ProfileRepo) GetByID(ctx context.Context, id domain.ProfileID) (profilerepo.Record, error) {
	_ = ctx
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.profiles[id]
	if !ok {
		return profilerepo.Record{}, profilerepo.ErrNotFound
	}
	return cloneBase(rec), nil
}

func (r *ProfileRepo) GetReferenceByID(ctx context.Context, id domain.ProfileID) (domain.ProfileReference, error) {
	_ = ctx
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.profiles[id]
	if !ok {
		return domain.ProfileReference{}, profilerepo.ErrNotFound
	}
	return r.s.baseReferenceLocked(rec), nil
}

func (r *ProfileRepo) GetTypeByID(ctx context.Context, id domain.ProfileID) (domain.ProfileType, error) {
	_ = ctx
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.profiles[id]
	if !ok {
		return "", profilerepo.ErrNotFound
	}
	return rec.Type, nil
}

func (r *ProfileRepo) Delete(ctx context.Context, id domain.ProfileID) (bool, error) {
	_ = ctx
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.deleteProfileLocked(id), nil
}

func (r *ProfileRepo) SearchReferencesByName(ctx context.Context, query string, limit, offset int) ([]profilerepo.ScoredReference, error) {
	_ = ctx
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rows := make([]rankedProfile, 0)
	for _, rec := range r.s.profiles {
		score := similarity(rec.Name, query)
		if score < similarityThreshold {
			continue
		}
		rows = append(rows, rankedProfile{rec: rec, score: &score})
	}
	r.s.rankLocked(rows)

	if offset >= len(rows) {
		return []profilerepo.ScoredReference{}, nil
	}
	rows = rows[offset:]
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	out := make([]profilerepo.ScoredReference, 0, len(rows))
	for _, row := range rows {
		out = append(out, profilerepo.ScoredReference{
			Reference: r.s.baseReferenceLocked(row.rec),
			Score:     *row.score,
		})
	}
	return out, nil
}

func (r *ProfileRepo) CountImageReferences(ctx context.Context, id domain.ImageID) (int, error) {
	_ = ctx
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.countImageReferencesLocked(id), nil
}

func (s *Store) countImageReferencesLocked(id domain.ImageID) int {
	n := 0
	for _, rec := range s.profiles {
		for _, slot := range []*domain.ImageID{rec.Images.CoverID, rec.Images.PosterID, rec.Images.SquareID} {
			if slot != nil && *slot == id {
				n++
			}
		}
	}
	return n
}
