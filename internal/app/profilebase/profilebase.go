// Package profilebase validates and patches the fields every profile type
// shares. The subtype services own their extensions; the rules for name,
// description, links and image bindings live here so the three services
// cannot drift apart.
package profilebase

import (
	"fmt"
	"net/url"
	"time"

	"github.com/dansportalen/directory-api/internal/app/field"
	"github.com/dansportalen/directory-api/internal/domain"
	"github.com/dansportalen/directory-api/internal/ports/out/profilerepo"
)

// Issue names a rejected field and the reason. Services translate it into
// their validation error shape.
type Issue struct {
	Field  string
	Reason string
}

// Name normalizes and validates a profile name.
func Name(raw string) (string, *Issue) {
	name := domain.NormalizeName(raw)
	if name == "" {
		return "", &Issue{Field: "name", Reason: "must be non-empty"}
	}
	if len([]rune(name)) > domain.MaxNameLength {
		return "", &Issue{Field: "name", Reason: fmt.Sprintf("must be at most %d characters", domain.MaxNameLength)}
	}
	return name, nil
}

// Description validates a profile description.
func Description(s string) *Issue {
	if len([]rune(s)) > domain.MaxDescriptionLength {
		return &Issue{Field: "description", Reason: fmt.Sprintf("must be at most %d characters", domain.MaxDescriptionLength)}
	}
	return nil
}

// Links validates that every link is an absolute http(s) URL and that the
// list holds no duplicates. Order is preserved.
func Links(links []string) ([]string, *Issue) {
	out := make([]string, 0, len(links))
	seen := make(map[string]struct{}, len(links))
	for _, l := range links {
		u, err := url.Parse(l)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, &Issue{Field: "links", Reason: fmt.Sprintf("%q is not an absolute http(s) URL", l)}
		}
		if _, dup := seen[l]; dup {
			return nil, &Issue{Field: "links", Reason: fmt.Sprintf("%q appears more than once", l)}
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out, nil
}

// CreateFields are the caller-supplied common fields of a create model.
type CreateFields struct {
	Name        string
	Description string
	Links       []string
	Images      domain.ImageSet
}

// NewRecord validates CreateFields into a base record.
func NewRecord(id domain.ProfileID, typ domain.ProfileType, f CreateFields, now time.Time) (profilerepo.Record, *Issue) {
	name, iss := Name(f.Name)
	if iss != nil {
		return profilerepo.Record{}, iss
	}
	if iss := Description(f.Description); iss != nil {
		return profilerepo.Record{}, iss
	}
	links, iss := Links(f.Links)
	if iss != nil {
		return profilerepo.Record{}, iss
	}
	return profilerepo.Record{
		ID:          id,
		Type:        typ,
		Name:        name,
		Description: f.Description,
		Links:       links,
		Images:      f.Images.Clone(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ImagesPatch carries the tri-state image slot fields of a PATCH: an
// unspecified slot is untouched, null unlinks, a value rebinds.
type ImagesPatch struct {
	CoverID  field.Optional[domain.ImageID]
	PosterID field.Optional[domain.ImageID]
	SquareID field.Optional[domain.ImageID]
}

// Patch carries the common PATCH fields.
type Patch struct {
	Name        field.Optional[string]
	Description field.Optional[string]
	Links       field.Optional[[]string]
	Images      *ImagesPatch
}

// ApplyPatch merges p into rec. Only specified fields change. Name cannot be
// null; description and links reset to their defaults when null.
func ApplyPatch(rec *profilerepo.Record, p Patch) *Issue {
	if p.Name.IsSpecified() {
		if p.Name.IsNull() {
			return &Issue{Field: "name", Reason: "cannot be null"}
		}
		name, iss := Name(p.Name.Value())
		if iss != nil {
			return iss
		}
		rec.Name = name
	}

	if p.Description.IsSpecified() {
		if p.Description.IsNull() {
			rec.Description = ""
		} else {
			if iss := Description(p.Description.Value()); iss != nil {
				return iss
			}
			rec.Description = p.Description.Value()
		}
	}

	if p.Links.IsSpecified() {
		if p.Links.IsNull() {
			rec.Links = nil
		} else {
			links, iss := Links(p.Links.Value())
			if iss != nil {
				return iss
			}
			rec.Links = links
		}
	}

	if p.Images != nil {
		applySlot(&rec.Images.CoverID, p.Images.CoverID)
		applySlot(&rec.Images.PosterID, p.Images.PosterID)
		applySlot(&rec.Images.SquareID, p.Images.SquareID)
	}
	return nil
}

func applySlot(dst **domain.ImageID, o field.Optional[domain.ImageID]) {
	if !o.IsSpecified() {
		return
	}
	if o.IsNull() {
		*dst = nil
		return
	}
	v := o.Value()
	*dst = &v
}
