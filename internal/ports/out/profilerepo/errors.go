package profilerepo

import "errors"

var (
	// ErrNotFound indicates the requested profile does not exist (or, for
	// subtype repositories, exists under a different type).
	ErrNotFound = errors.New("profile not found")

	// ErrAlreadyExists indicates a profile already exists with the given id.
	ErrAlreadyExists = errors.New("profile already exists")

	// ErrInvalidImageRef indicates a bound image id does not resolve to an
	// existing image record.
	ErrInvalidImageRef = errors.New("image reference does not exist")
)
