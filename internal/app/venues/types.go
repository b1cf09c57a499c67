package venues

import (
	"github.com/dansportalen/directory-api/internal/app/field"
	"github.com/dansportalen/directory-api/internal/app/profilebase"
	"github.com/dansportalen/directory-api/internal/domain"
)

type CreateInput struct {
	profilebase.CreateFields

	Coords            domain.Coords
	PermanentlyClosed bool
	ParentID          *domain.ProfileID
}

// PatchInput follows tri-state semantics: unspecified fields are untouched.
// ParentID set to null detaches the venue into a root.
type PatchInput struct {
	Type *domain.ProfileType

	profilebase.Patch

	Coords            field.Optional[domain.Coords]
	PermanentlyClosed field.Optional[bool]
	ParentID          field.Optional[domain.ProfileID]
}

type ListInput struct {
	NameQuery *string
	PageKey   *domain.ProfileID
}
