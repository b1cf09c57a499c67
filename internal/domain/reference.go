package domain

// ProfileReference is the reduced shape of a profile used when embedding one
// profile inside another's payload. It deliberately omits description and
// links so embedding can never recurse unboundedly.
type ProfileReference struct {
	ID     ProfileID
	Type   ProfileType
	Name   string
	Images ImageSet
}

// IndividualReference adds the individual's tags to the base reference.
type IndividualReference struct {
	ProfileReference

	Tags []IndividualTag
}

// OrganizationReference adds the organization's tags to the base reference.
type OrganizationReference struct {
	ProfileReference

	Tags []OrganizationTag
}

// VenueReference adds the venue-distinguishing fields to the base reference.
type VenueReference struct {
	ProfileReference

	Coords            Coords
	PermanentlyClosed bool
}
