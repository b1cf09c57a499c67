package domain

type IndividualTag string

const (
	IndividualTagDancer       IndividualTag = "dancer"
	IndividualTagInstructor   IndividualTag = "instructor"
	IndividualTagMusician     IndividualTag = "musician"
	IndividualTagDJ           IndividualTag = "dj"
	IndividualTagOrganizer    IndividualTag = "organizer"
	IndividualTagPhotographer IndividualTag = "photographer"
)

// IsValid reports whether t is a known individual tag.
func (t IndividualTag) IsValid() bool {
	switch t {
	case IndividualTagDancer, IndividualTagInstructor, IndividualTagMusician,
		IndividualTagDJ, IndividualTagOrganizer, IndividualTagPhotographer:
		return true
	}
	return false
}

// OrganizationMembership is one resolved edge from an individual to an
// organization, seen from the individual's side.
type OrganizationMembership struct {
	Organization OrganizationReference
	Title        string
}

// Individual is the full view of an individual profile.
type Individual struct {
	Profile

	Tags []IndividualTag
	// Organizations lists the individual's memberships; each organization
	// appears at most once.
	Organizations []OrganizationMembership
}
