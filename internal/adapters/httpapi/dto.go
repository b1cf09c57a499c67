package httpapi

import (
	"time"

	"github.com/dansportalen/directory-api/internal/app/profiles"
	"github.com/dansportalen/directory-api/internal/domain"
)

type imageSetDTO struct {
	Cover  *string `json:"cover"`
	Poster *string `json:"poster"`
	Square *string `json:"square"`
}

type coordsDTO struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// profileReferenceDTO is the reduced polymorphic view used in search
// results, memberships and hierarchy listings. Subtype fields are populated
// per Type.
type profileReferenceDTO struct {
	ID     string      `json:"id"`
	Type   string      `json:"type"`
	Name   string      `json:"name"`
	Images imageSetDTO `json:"images"`

	Tags              []string   `json:"tags,omitempty"`
	Coords            *coordsDTO `json:"coords,omitempty"`
	PermanentlyClosed *bool      `json:"permanentlyClosed,omitempty"`

	Score *float64 `json:"score,omitempty"`
}

type membershipDTO struct {
	Organization profileReferenceDTO `json:"organization"`
	Title        string              `json:"title"`
}

type memberDTO struct {
	Individual profileReferenceDTO `json:"individual"`
	Title      string              `json:"title"`
}

// profileDTO is the full polymorphic profile payload.
type profileDTO struct {
	ID          string      `json:"id"`
	Type        string      `json:"type"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Links       []string    `json:"links"`
	Images      imageSetDTO `json:"images"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`

	// individual / organization
	Tags          []string        `json:"tags,omitempty"`
	Organizations []membershipDTO `json:"organizations,omitempty"`
	Members       []memberDTO     `json:"members,omitempty"`

	// venue
	Coords            *coordsDTO            `json:"coords,omitempty"`
	PermanentlyClosed *bool                 `json:"permanentlyClosed,omitempty"`
	ParentID          *string               `json:"parentId,omitempty"`
	Ancestors         []profileReferenceDTO `json:"ancestors,omitempty"`
	Children          []profileReferenceDTO `json:"children,omitempty"`
}

type pageDTO struct {
	Items       []profileReferenceDTO `json:"items"`
	NextPageKey *string               `json:"nextPageKey"`
}

type proximityHitDTO struct {
	Venue          profileReferenceDTO `json:"venue"`
	DistanceMeters float64             `json:"distanceMeters"`
}

type imageDTO struct {
	ID         string    `json:"id"`
	ExternalID string    `json:"externalId"`
	Variant    string    `json:"variant"`
	CreatedAt  time.Time `json:"createdAt"`
}

type uploadSlotDTO struct {
	ExternalID string `json:"externalId"`
	UploadURL  string `json:"uploadUrl"`
}

type tagDetailsDTO struct {
	Tag         string `json:"tag"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

func imageSetFromDomain(s domain.ImageSet) imageSetDTO {
	return imageSetDTO{
		Cover:  imageIDString(s.CoverID),
		Poster: imageIDString(s.PosterID),
		Square: imageIDString(s.SquareID),
	}
}

func imageIDString(id *domain.ImageID) *string {
	if id == nil {
		return nil
	}
	s := string(*id)
	return &s
}

func baseReferenceFromDomain(ref domain.ProfileReference) profileReferenceDTO {
	return profileReferenceDTO{
		ID:     string(ref.ID),
		Type:   string(ref.Type),
		Name:   ref.Name,
		Images: imageSetFromDomain(ref.Images),
	}
}

func individualReferenceFromDomain(ref domain.IndividualReference) profileReferenceDTO {
	out := baseReferenceFromDomain(ref.ProfileReference)
	out.Tags = tagsToStrings(ref.Tags)
	return out
}

func organizationReferenceFromDomain(ref domain.OrganizationReference) profileReferenceDTO {
	out := baseReferenceFromDomain(ref.ProfileReference)
	out.Tags = tagsToStrings(ref.Tags)
	return out
}

func venueReferenceFromDomain(ref domain.VenueReference) profileReferenceDTO {
	out := baseReferenceFromDomain(ref.ProfileReference)
	c := coordsDTO{Lat: ref.Coords.Lat, Lng: ref.Coords.Lng}
	out.Coords = &c
	closed := ref.PermanentlyClosed
	out.PermanentlyClosed = &closed
	return out
}

func baseProfileDTO(p domain.Profile) profileDTO {
	links := p.Links
	if links == nil {
		links = []string{}
	}
	return profileDTO{
		ID:          string(p.ID),
		Type:        string(p.Type),
		Name:        p.Name,
		Description: p.Description,
		Links:       links,
		Images:      imageSetFromDomain(p.Images),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func individualFromDomain(ind domain.Individual) profileDTO {
	out := baseProfileDTO(ind.Profile)
	out.Tags = tagsToStrings(ind.Tags)
	out.Organizations = make([]membershipDTO, 0, len(ind.Organizations))
	for _, m := range ind.Organizations {
		out.Organizations = append(out.Organizations, membershipDTO{
			Organization: organizationReferenceFromDomain(m.Organization),
			Title:        m.Title,
		})
	}
	return out
}

func organizationFromDomain(org domain.Organization) profileDTO {
	out := baseProfileDTO(org.Profile)
	out.Tags = tagsToStrings(org.Tags)
	out.Members = make([]memberDTO, 0, len(org.Members))
	for _, m := range org.Members {
		out.Members = append(out.Members, memberDTO{
			Individual: individualReferenceFromDomain(m.Individual),
			Title:      m.Title,
		})
	}
	return out
}

func venueFromDomain(v domain.Venue) profileDTO {
	out := baseProfileDTO(v.Profile)
	c := coordsDTO{Lat: v.Coords.Lat, Lng: v.Coords.Lng}
	out.Coords = &c
	closed := v.PermanentlyClosed
	out.PermanentlyClosed = &closed
	if v.ParentID != nil {
		s := string(*v.ParentID)
		out.ParentID = &s
	}
	out.Ancestors = make([]profileReferenceDTO, 0, len(v.Ancestors))
	for _, a := range v.Ancestors {
		out.Ancestors = append(out.Ancestors, venueReferenceFromDomain(a))
	}
	out.Children = make([]profileReferenceDTO, 0, len(v.Children))
	for _, child := range v.Children {
		out.Children = append(out.Children, venueReferenceFromDomain(child))
	}
	return out
}

func profileViewDTO(v profiles.View) profileDTO {
	switch {
	case v.Individual != nil:
		return individualFromDomain(*v.Individual)
	case v.Organization != nil:
		return organizationFromDomain(*v.Organization)
	default:
		return venueFromDomain(*v.Venue)
	}
}

func imageFromDomain(img domain.Image) imageDTO {
	return imageDTO{
		ID:         string(img.ID),
		ExternalID: string(img.ExternalID),
		Variant:    string(img.Variant),
		CreatedAt:  img.CreatedAt,
	}
}

func tagCatalogDTO(catalog []domain.TagDetails) []tagDetailsDTO {
	out := make([]tagDetailsDTO, 0, len(catalog))
	for _, td := range catalog {
		out = append(out, tagDetailsDTO{Tag: td.Tag, Label: td.Label, Description: td.Description})
	}
	return out
}

func tagsToStrings[T ~string](tags []T) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, string(t))
	}
	return out
}

func pageKeyString(key *domain.ProfileID) *string {
	if key == nil {
		return nil
	}
	s := string(*key)
	return &s
}
