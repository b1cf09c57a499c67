package domain

import "time"

type ProfileType string

const (
	ProfileTypeIndividual   ProfileType = "individual"
	ProfileTypeOrganization ProfileType = "organization"
	ProfileTypeVenue        ProfileType = "venue"
)

// IsValid reports whether t is one of the known profile types.
func (t ProfileType) IsValid() bool {
	switch t {
	case ProfileTypeIndividual, ProfileTypeOrganization, ProfileTypeVenue:
		return true
	}
	return false
}

const (
	// MaxNameLength bounds the trimmed profile name.
	MaxNameLength = 100
	// MaxDescriptionLength bounds the profile description.
	MaxDescriptionLength = 2000
)

// ImageSet is the set of optional image bindings every profile carries.
// A nil id means the slot is unbound.
type ImageSet struct {
	CoverID  *ImageID
	PosterID *ImageID
	SquareID *ImageID
}

// Clone returns a deep copy of the set.
func (s ImageSet) Clone() ImageSet {
	return ImageSet{
		CoverID:  cloneImageID(s.CoverID),
		PosterID: cloneImageID(s.PosterID),
		SquareID: cloneImageID(s.SquareID),
	}
}

func cloneImageID(p *ImageID) *ImageID {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Profile holds the common fields shared by every profile type.
type Profile struct {
	ID   ProfileID
	Type ProfileType

	Name        string
	Description string
	// Links is an ordered list of unique absolute URLs.
	Links  []string
	Images ImageSet

	CreatedAt time.Time
	UpdatedAt time.Time
}
