package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/oapi-codegen/nullable"

	"github.com/dansportalen/directory-api/internal/app/field"
	"github.com/dansportalen/directory-api/internal/app/individuals"
	"github.com/dansportalen/directory-api/internal/app/organizations"
	"github.com/dansportalen/directory-api/internal/app/profilebase"
	"github.com/dansportalen/directory-api/internal/app/venues"
	"github.com/dansportalen/directory-api/internal/domain"
)

// decodeBody strictly decodes a JSON request body. A decode failure is the
// caller's 422.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "malformed request body", map[string]any{
			"reason": err.Error(),
		})
		return false
	}
	return true
}

type imageSetCreateDTO struct {
	Cover  *string `json:"cover"`
	Poster *string `json:"poster"`
	Square *string `json:"square"`
}

func (d *imageSetCreateDTO) toDomain() domain.ImageSet {
	if d == nil {
		return domain.ImageSet{}
	}
	return domain.ImageSet{
		CoverID:  imageIDFromString(d.Cover),
		PosterID: imageIDFromString(d.Poster),
		SquareID: imageIDFromString(d.Square),
	}
}

func imageIDFromString(s *string) *domain.ImageID {
	if s == nil {
		return nil
	}
	id := domain.ImageID(*s)
	return &id
}

type organizationEdgeDTO struct {
	OrganizationID string `json:"organizationId"`
	Title          string `json:"title"`
}

type memberEdgeDTO struct {
	IndividualID string `json:"individualId"`
	Title        string `json:"title"`
}

type createProfileRequest struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Links       []string           `json:"links"`
	Images      *imageSetCreateDTO `json:"images"`

	// individual / organization
	Tags          []string              `json:"tags"`
	Organizations []organizationEdgeDTO `json:"organizations"`
	Members       []memberEdgeDTO       `json:"members"`

	// venue
	Coords            *coordsDTO `json:"coords"`
	PermanentlyClosed bool       `json:"permanentlyClosed"`
	ParentID          *string    `json:"parentId"`
}

func (req createProfileRequest) createFields() profilebase.CreateFields {
	return profilebase.CreateFields{
		Name:        req.Name,
		Description: req.Description,
		Links:       req.Links,
		Images:      req.Images.toDomain(),
	}
}

// patchProfileRequest covers the PATCH body of every profile type. Nullable
// fields distinguish omitted (no change) from explicit null (reset).
type patchProfileRequest struct {
	Type        *string                     `json:"type,omitempty"`
	Name        nullable.Nullable[string]   `json:"name,omitempty"`
	Description nullable.Nullable[string]   `json:"description,omitempty"`
	Links       nullable.Nullable[[]string] `json:"links,omitempty"`
	Images      *imageSetPatchDTO           `json:"images,omitempty"`

	Tags          nullable.Nullable[[]string]              `json:"tags,omitempty"`
	Organizations nullable.Nullable[[]organizationEdgeDTO] `json:"organizations,omitempty"`
	Members       nullable.Nullable[[]memberEdgeDTO]       `json:"members,omitempty"`

	Coords            nullable.Nullable[coordsDTO] `json:"coords,omitempty"`
	PermanentlyClosed nullable.Nullable[bool]      `json:"permanentlyClosed,omitempty"`
	ParentID          nullable.Nullable[string]    `json:"parentId,omitempty"`
}

type imageSetPatchDTO struct {
	Cover  nullable.Nullable[string] `json:"cover,omitempty"`
	Poster nullable.Nullable[string] `json:"poster,omitempty"`
	Square nullable.Nullable[string] `json:"square,omitempty"`
}

// triState converts a wire nullable into the app-layer optional, mapping the
// present value through f.
func triState[T, U any](n nullable.Nullable[T], f func(T) U) field.Optional[U] {
	if !n.IsSpecified() {
		return field.Unspecified[U]()
	}
	if n.IsNull() {
		return field.Null[U]()
	}
	v, err := n.Get()
	if err != nil {
		return field.Null[U]()
	}
	return field.Some(f(v))
}

func ident[T any](v T) T { return v }

func (req patchProfileRequest) profileType() *domain.ProfileType {
	if req.Type == nil {
		return nil
	}
	t := domain.ProfileType(*req.Type)
	return &t
}

func (req patchProfileRequest) basePatch() profilebase.Patch {
	p := profilebase.Patch{
		Name:        triState(req.Name, ident[string]),
		Description: triState(req.Description, ident[string]),
		Links:       triState(req.Links, ident[[]string]),
	}
	if req.Images != nil {
		p.Images = &profilebase.ImagesPatch{
			CoverID:  triState(req.Images.Cover, func(s string) domain.ImageID { return domain.ImageID(s) }),
			PosterID: triState(req.Images.Poster, func(s string) domain.ImageID { return domain.ImageID(s) }),
			SquareID: triState(req.Images.Square, func(s string) domain.ImageID { return domain.ImageID(s) }),
		}
	}
	return p
}

func (req patchProfileRequest) individualPatch() individuals.PatchInput {
	return individuals.PatchInput{
		Type:  req.profileType(),
		Patch: req.basePatch(),
		Tags: triState(req.Tags, func(ss []string) []domain.IndividualTag {
			out := make([]domain.IndividualTag, 0, len(ss))
			for _, s := range ss {
				out = append(out, domain.IndividualTag(s))
			}
			return out
		}),
		Organizations: triState(req.Organizations, func(es []organizationEdgeDTO) []individuals.OrganizationEdgeInput {
			out := make([]individuals.OrganizationEdgeInput, 0, len(es))
			for _, e := range es {
				out = append(out, individuals.OrganizationEdgeInput{
					OrganizationID: domain.ProfileID(e.OrganizationID),
					Title:          e.Title,
				})
			}
			return out
		}),
	}
}

func (req patchProfileRequest) organizationPatch() organizations.PatchInput {
	return organizations.PatchInput{
		Type:  req.profileType(),
		Patch: req.basePatch(),
		Tags: triState(req.Tags, func(ss []string) []domain.OrganizationTag {
			out := make([]domain.OrganizationTag, 0, len(ss))
			for _, s := range ss {
				out = append(out, domain.OrganizationTag(s))
			}
			return out
		}),
		Members: triState(req.Members, func(es []memberEdgeDTO) []organizations.MemberEdgeInput {
			out := make([]organizations.MemberEdgeInput, 0, len(es))
			for _, e := range es {
				out = append(out, organizations.MemberEdgeInput{
					IndividualID: domain.ProfileID(e.IndividualID),
					Title:        e.Title,
				})
			}
			return out
		}),
	}
}

func (req patchProfileRequest) venuePatch() venues.PatchInput {
	return venues.PatchInput{
		Type:  req.profileType(),
		Patch: req.basePatch(),
		Coords: triState(req.Coords, func(c coordsDTO) domain.Coords {
			return domain.Coords{Lat: c.Lat, Lng: c.Lng}
		}),
		PermanentlyClosed: triState(req.PermanentlyClosed, ident[bool]),
		ParentID: triState(req.ParentID, func(s string) domain.ProfileID {
			return domain.ProfileID(s)
		}),
	}
}
