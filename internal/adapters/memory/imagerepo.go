package memory

import (
	"context"

	"github.com/dansportalen/directory-api/internal/domain"
	"github.com/dansportalen/directory-api/internal/ports/out/imagerepo"
)

// ImageRepo implements imagerepo.Repository over the shared Store.
type ImageRepo struct {
	s *Store
}

func (r *ImageRepo) Create(ctx context.Context, rec imagerepo.Record) (imagerepo.Record, error) {
	_ = ctx
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if existingID, ok := r.s.imageIDByExternal[rec.ExternalID]; ok {
		return r.s.images[existingID], nil
	}
	r.s.images[rec.ID] = rec
	r.s.imageIDByExternal[rec.ExternalID] = rec.ID
	return rec, nil
}

func (r *ImageRepo) GetByID(ctx context.Context, id domain.ImageID) (imagerepo.Record, error) {
	_ = ctx
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.images[id]
	if !ok {
		return imagerepo.Record{}, imagerepo.ErrNotFound
	}
	return rec, nil
}

func (r *ImageRepo) GetByExternalID(ctx context.Context, externalID domain.ExternalAssetID) (imagerepo.Record, error) {
	_ = ctx
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id, ok := r.s.imageIDByExternal[externalID]
	if !ok {
		return imagerepo.Record{}, imagerepo.ErrNotFound
	}
	return r.s.images[id], nil
}

func (r *ImageRepo) Delete(ctx context.Context, id domain.ImageID) (bool, error) {
	_ = ctx
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.images[id]
	if !ok {
		return false, nil
	}
	delete(r.s.images, id)
	delete(r.s.imageIDByExternal, rec.ExternalID)

	// Unbind every profile slot that referenced the image.
	for pid, p := range r.s.profiles {
		changed := false
		for _, slot := range []**domain.ImageID{&p.Images.CoverID, &p.Images.PosterID, &p.Images.SquareID} {
			if *slot != nil && **slot == id {
				*slot = nil
				changed = true
			}
		}
		if changed {
			r.s.profiles[pid] = p
		}
	}
	return true, nil
}
