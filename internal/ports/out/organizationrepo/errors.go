package organizationrepo

import "errors"

// ErrEdgeTargetNotFound indicates a membership edge references an individual
// profile that does not exist.
var ErrEdgeTargetNotFound = errors.New("edge target individual not found")
