// Package memory holds the in-memory persistence backend. All repositories
// share one Store so that cross-profile concerns (the common identity space,
// membership edges, image reference counts) behave like they do on a real
// database.
package memory

import (
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/dansportalen/directory-api/internal/domain"
	"github.com/dansportalen/directory-api/internal/ports/out/imagerepo"
	"github.com/dansportalen/directory-api/internal/ports/out/profilerepo"
)

// Store is the shared state behind the in-memory repositories.
// It is safe for concurrent use.
type Store struct {
	// One mutex serializes everything. The collator is stateful, and the
	// venue cycle check must observe a frozen parent graph, so reads that
	// sort or walk take the same lock as writes.
	mu sync.Mutex

	profiles map[domain.ProfileID]profilerepo.Record

	individualTags   map[domain.ProfileID][]domain.IndividualTag
	organizationTags map[domain.ProfileID][]domain.OrganizationTag
	venues           map[domain.ProfileID]venueExt

	// memberships is the single edge relation; both subtype repositories
	// read and write it.
	memberships map[membershipKey]string

	images            map[domain.ImageID]imagerepo.Record
	imageIDByExternal map[domain.ExternalAssetID]domain.ImageID

	collator *collate.Collator
}

type venueExt struct {
	coords            domain.Coords
	permanentlyClosed bool
	parentID          *domain.ProfileID
}

type membershipKey struct {
	organizationID domain.ProfileID
	individualID   domain.ProfileID
}

func NewStore() *Store {
	return &Store{
		profiles:          make(map[domain.ProfileID]profilerepo.Record),
		individualTags:    make(map[domain.ProfileID][]domain.IndividualTag),
		organizationTags:  make(map[domain.ProfileID][]domain.OrganizationTag),
		venues:            make(map[domain.ProfileID]venueExt),
		memberships:       make(map[membershipKey]string),
		images:            make(map[domain.ImageID]imagerepo.Record),
		imageIDByExternal: make(map[domain.ExternalAssetID]domain.ImageID),
		collator:          collate.New(language.Swedish),
	}
}

func (s *Store) Profiles() *ProfileRepo           { return &ProfileRepo{s: s} }
func (s *Store) Individuals() *IndividualRepo     { return &IndividualRepo{s: s} }
func (s *Store) Organizations() *OrganizationRepo { return &OrganizationRepo{s: s} }
func (s *Store) Venues() *VenueRepo               { return &VenueRepo{s: s} }
func (s *Store) Images() *ImageRepo               { return &ImageRepo{s: s} }

// compareNames orders by the Swedish collation, breaking ties by id.
// Callers hold s.mu.
func (s *Store) compareNames(aName, bName string, aID, bID domain.ProfileID) int {
	if c := s.collator.CompareString(aName, bName); c != 0 {
		return c
	}
	switch {
	case aID < bID:
		return -1
	case aID > bID:
		return 1
	}
	return 0
}

// imagesExist reports whether every bound slot resolves to a known image.
// Callers hold s.mu.
func (s *Store) imagesExist(set domain.ImageSet) bool {
	for _, id := range []*domain.ImageID{set.CoverID, set.PosterID, set.SquareID} {
		if id == nil {
			continue
		}
		if _, ok := s.images[*id]; !ok {
			return false
		}
	}
	return true
}

// deleteProfileLocked removes the profile, its extension state, and every
// membership edge it participates in. Venue children of a deleted venue
// become roots. Callers hold s.mu.
func (s *Store) deleteProfileLocked(id domain.ProfileID) bool {
	rec, ok := s.profiles[id]
	if !ok {
		return false
	}
	delete(s.profiles, id)

	switch rec.Type {
	case domain.ProfileTypeIndividual:
		delete(s.individualTags, id)
		for k := range s.memberships {
			if k.individualID == id {
				delete(s.memberships, k)
			}
		}
	case domain.ProfileTypeOrganization:
		delete(s.organizationTags, id)
		for k := range s.memberships {
			if k.organizationID == id {
				delete(s.memberships, k)
			}
		}
	case domain.ProfileTypeVenue:
		delete(s.venues, id)
		for cid, ext := range s.venues {
			if ext.parentID != nil && *ext.parentID == id {
				ext.parentID = nil
				s.venues[cid] = ext
			}
		}
	}
	return true
}

func (s *Store) baseReferenceLocked(rec profilerepo.Record) domain.ProfileReference {
	return domain.ProfileReference{
		ID:     rec.ID,
		Type:   rec.Type,
		Name:   rec.Name,
		Images: rec.Images.Clone(),
	}
}

func cloneBase(rec profilerepo.Record) profilerepo.Record {
	out := rec
	out.Links = append([]string(nil), rec.Links...)
	out.Images = rec.Images.Clone()
	return out
}

func cloneProfileID(p *domain.ProfileID) *domain.ProfileID {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
