package individuals

import (
	"github.com/dansportalen/directory-api/internal/app/field"
	"github.com/dansportalen/directory-api/internal/app/profilebase"
	"github.com/dansportalen/directory-api/internal/domain"
)

// OrganizationEdgeInput is one membership edge as supplied by a caller.
type OrganizationEdgeInput struct {
	OrganizationID domain.ProfileID
	Title          string
}

type CreateInput struct {
	profilebase.CreateFields

	Tags          []domain.IndividualTag
	Organizations []OrganizationEdgeInput
}

// PatchInput follows tri-state semantics: unspecified fields are untouched.
// Type, when supplied, must match the stored type; it can never change.
type PatchInput struct {
	Type *domain.ProfileType

	profilebase.Patch

	Tags          field.Optional[[]domain.IndividualTag]
	Organizations field.Optional[[]OrganizationEdgeInput]
}

type ListInput struct {
	NameQuery       *string
	Tags            []domain.IndividualTag
	OrganizationIDs []domain.ProfileID
	PageKey         *domain.ProfileID
}
