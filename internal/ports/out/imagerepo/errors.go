package imagerepo

import "errors"

// ErrNotFound indicates the requested image record does not exist.
var ErrNotFound = errors.New("image not found")
