package domain

type OrganizationTag string

const (
	OrganizationTagAssociation OrganizationTag = "dance-association"
	OrganizationTagFestival    OrganizationTag = "festival"
	OrganizationTagBand        OrganizationTag = "band"
	OrganizationTagSchool      OrganizationTag = "school"
	OrganizationTagCommunity   OrganizationTag = "community"
)

// IsValid reports whether t is a known organization tag.
func (t OrganizationTag) IsValid() bool {
	switch t {
	case OrganizationTagAssociation, OrganizationTagFestival,
		OrganizationTagBand, OrganizationTagSchool, OrganizationTagCommunity:
		return true
	}
	return false
}

// OrganizationMember is one resolved membership edge seen from the
// organization's side. It is the inverse view of OrganizationMembership:
// both read the same stored relation.
type OrganizationMember struct {
	Individual IndividualReference
	Title      string
}

// Organization is the full view of an organization profile.
type Organization struct {
	Profile

	Tags []OrganizationTag
	// Members lists the organization's members; each individual appears at
	// most once.
	Members []OrganizationMember
}
