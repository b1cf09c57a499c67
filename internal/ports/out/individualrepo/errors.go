package individualrepo

import "errors"

// ErrEdgeTargetNotFound indicates a membership edge references an
// organization profile that does not exist.
var ErrEdgeTargetNotFound = errors.New("edge target organization not found")
