package memory

import (
	"context"
	"math"
	"sort"

	"github.com/dansportalen/directory-api/internal/domain"
	"github.com/dansportalen/directory-api/internal/ports/out/profilerepo"
	"github.com/dansportalen/directory-api/internal/ports/out/venuerepo"
)

const earthRadiusMeters = 6371000

// VenueRepo implements venuerepo.Repository over the shared Store. The store
// mutex serializes structural writes, so the cycle check always observes a
// frozen parent graph.
type VenueRepo struct {
	s *Store
}

func (r *VenueRepo) Create(ctx context.Context, rec venuerepo.Record) error {
	_ = ctx
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.profiles[rec.ID]; ok {
		return profilerepo.ErrAlreadyExists
	}
	if !r.s.imagesExist(rec.Images) {
		return profilerepo.ErrInvalidImageRef
	}
	if err := r.checkParentLocked(rec.ParentID); err != nil {
		return err
	}

	base := cloneBase(rec.Record)
	base.Type = domain.ProfileTypeVenue
	r.s.profiles[rec.ID] = base
	r.s.venues[rec.ID] = venueExt{
		coords:            rec.Coords,
		permanentlyClosed: rec.PermanentlyClosed,
		parentID:          cloneProfileID(rec.ParentID),
	}
	return nil
}

func (r *VenueRepo) Update(ctx context.Context, rec venuerepo.Record) error {
	_ = ctx
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.profiles[rec.ID]
	if !ok || existing.Type != domain.ProfileTypeVenue {
		return profilerepo.ErrNotFound
	}
	if !r.s.imagesExist(rec.Images) {
		return profilerepo.ErrInvalidImageRef
	}
	if err := r.checkParentLocked(rec.ParentID); err != nil {
		return err
	}
	if rec.ParentID != nil {
		// Walk up from the new parent; reaching the venue itself means the
		// re-parenting would close a cycle.
		for cur := rec.ParentID; cur != nil; {
			if *cur == rec.ID {
				return &venuerepo.CycleError{OffendingID: rec.ID}
			}
			ext, ok := r.s.venues[*cur]
			if !ok {
				break
			}
			cur = ext.parentID
		}
	}

	base := cloneBase(rec.Record)
	base.Type = domain.ProfileTypeVenue
	r.s.profiles[rec.ID] = base
	r.s.venues[rec.ID] = venueExt{
		coords:            rec.Coords,
		permanentlyClosed: rec.PermanentlyClosed,
		parentID:          cloneProfileID(rec.ParentID),
	}
	return nil
}

func (r *VenueRepo) GetByID(ctx context.Context, id domain.ProfileID) (venuerepo.Record, error) {
	_ = ctx
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	base, ok := r.s.profiles[id]
	if !ok || base.Type != domain.ProfileTypeVenue {
		return venuerepo.Record{}, profilerepo.ErrNotFound
	}
	ext := r.s.venues[id]
	return venuerepo.Record{
		Record:            cloneBase(base),
		Coords:            ext.coords,
		PermanentlyClosed: ext.permanentlyClosed,
		ParentID:          cloneProfileID(ext.parentID),
	}, nil
}

func (r *VenueRepo) GetReferenceByID(ctx context.Context, id domain.ProfileID) (domain.VenueReference, error) {
	_ = ctx
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	base, ok := r.s.profiles[id]
	if !ok || base.Type != domain.ProfileTypeVenue {
		return domain.VenueReference{}, profilerepo.ErrNotFound
	}
	return r.referenceLocked(base), nil
}

func (r *VenueRepo) Delete(ctx context.Context, id domain.ProfileID) (bool, error) {
	_ = ctx
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	base, ok := r.s.profiles[id]
	if !ok || base.Type != domain.ProfileTypeVenue {
		return false, nil
	}
	return r.s.deleteProfileLocked(id), nil
}

func (r *VenueRepo) GetAncestors(ctx context.Context, id domain.ProfileID) ([]domain.VenueReference, error) {
	_ = ctx
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ext, ok := r.s.venues[id]
	if !ok {
		return nil, profilerepo.ErrNotFound
	}

	chain := make([]domain.VenueReference, 0)
	seen := map[domain.ProfileID]bool{id: true}
	for cur := ext.parentID; cur != nil; {
		if seen[*cur] {
			break
		}
		seen[*cur] = true
		base, ok := r.s.profiles[*cur]
		if !ok {
			break
		}
		chain = append(chain, r.referenceLocked(base))
		next := r.s.venues[*cur].parentID
		cur = next
	}

	// The walk collected parent-first; callers want root-first.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

func (r *VenueRepo) GetChildren(ctx context.Context, id domain.ProfileID) ([]domain.VenueReference, error) {
	_ = ctx
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.venues[id]; !ok {
		return nil, profilerepo.ErrNotFound
	}

	out := make([]domain.VenueReference, 0)
	for cid, ext := range r.s.venues {
		if ext.parentID != nil && *ext.parentID == id {
			out = append(out, r.referenceLocked(r.s.profiles[cid]))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return r.s.compareNames(out[i].Name, out[j].Name, out[i].ID, out[j].ID) < 0
	})
	return out, nil
}

func (r *VenueRepo) List(ctx context.Context, f venuerepo.Filter) ([]venuerepo.ScoredReference, error) {
	_ = ctx
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rows := make([]rankedProfile, 0)
	for _, base := range r.s.profiles {
		if base.Type != domain.ProfileTypeVenue {
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

	out := make([]venuerepo.ScoredReference, 0, len(rows))
	for _, row := range rows {
		out = append(out, venuerepo.ScoredReference{
			Reference: r.referenceLocked(row.rec),
			Score:     row.score,
		})
	}
	return out, nil
}

func (r *VenueRepo) SearchByProximity(ctx context.Context, origin domain.Coords, maxMeters float64) ([]venuerepo.ProximityHit, error) {
	_ = ctx
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]venuerepo.ProximityHit, 0)
	for id, ext := range r.s.venues {
		d := haversineMeters(origin, ext.coords)
		if d > maxMeters {
			continue
		}
		out = append(out, venuerepo.ProximityHit{
			Reference:      r.referenceLocked(r.s.profiles[id]),
			DistanceMeters: d,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DistanceMeters != out[j].DistanceMeters {
			return out[i].DistanceMeters < out[j].DistanceMeters
		}
		return out[i].Reference.ID < out[j].Reference.ID
	})
	return out, nil
}

func (r *VenueRepo) referenceLocked(base profilerepo.Record) domain.VenueReference {
	ext := r.s.venues[base.ID]
	return domain.VenueReference{
		ProfileReference:  r.s.baseReferenceLocked(base),
		Coords:            ext.coords,
		PermanentlyClosed: ext.permanentlyClosed,
	}
}

func (r *VenueRepo) checkParentLocked(parentID *domain.ProfileID) error {
	if parentID == nil {
		return nil
	}
	if _, ok := r.s.venues[*parentID]; !ok {
		return venuerepo.ErrParentNotFound
	}
	return nil
}

func haversineMeters(a, b domain.Coords) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}
