package domain

// Coords is a WGS84 coordinate pair.
type Coords struct {
	Lat float64
	Lng float64
}

// Valid reports whether the pair is inside the legal ranges.
func (c Coords) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// Venue is the full view of a venue profile.
//
// Venues form a forest through ParentID. Ancestors and Children are derived
// on read: Ancestors is ordered from the root down to the immediate parent,
// Children holds direct children only.
type Venue struct {
	Profile

	Coords            Coords
	PermanentlyClosed bool
	ParentID          *ProfileID

	Ancestors []VenueReference
	Children  []VenueReference
}
