package venuerepo

import (
	"errors"
	"fmt"

	"github.com/dansportalen/directory-api/internal/domain"
)

// ErrParentNotFound indicates ParentID does not reference an existing venue.
var ErrParentNotFound = errors.New("parent venue not found")

// CycleError indicates a structural update would make a venue its own
// ancestor. OffendingID is the profile whose re-parenting was rejected.
type CycleError struct {
	OffendingID domain.ProfileID
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("venue hierarchy cycle: profile %s would become its own ancestor", e.OffendingID)
}
