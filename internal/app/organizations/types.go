package organizations

import (
	"github.com/dansportalen/directory-api/internal/app/field"
	"github.com/dansportalen/directory-api/internal/app/profilebase"
	"github.com/dansportalen/directory-api/internal/domain"
)

// MemberEdgeInput is one membership edge as supplied by a caller.
type MemberEdgeInput struct {
	IndividualID domain.ProfileID
	Title        string
}

type CreateInput struct {
	profilebase.CreateFields

	Tags    []domain.OrganizationTag
	Members []MemberEdgeInput
}

// PatchInput follows tri-state semantics: unspecified fields are untouched.
type PatchInput struct {
	Type *domain.ProfileType

	profilebase.Patch

	Tags    field.Optional[[]domain.OrganizationTag]
	Members field.Optional[[]MemberEdgeInput]
}

type ListInput struct {
	NameQuery *string
	Tags      []domain.OrganizationTag
	MemberIDs []domain.ProfileID
	PageKey   *domain.ProfileID
}
