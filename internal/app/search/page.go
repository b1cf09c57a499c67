// Package search holds the shared shape of filtered, cursor-paginated
// listings. Each subtype service instantiates it with its own reference
// type; the repositories produce the total order, this package cuts it into
// pages.
package search

import "github.com/dansportalen/directory-api/internal/domain"

// PageSize is the fixed server-side page size for every filtered listing.
const PageSize = 20

// Page is one page of a filtered listing. NextPageKey is nil on the last
// page; otherwise it is the id at which the next page resumes.
type Page[T any] struct {
	Items       []T
	NextPageKey *domain.ProfileID
}

// FetchLimit is the repository fetch size for one page: one extra item past
// the page size detects whether a further page exists.
func FetchLimit(pageSize int) int { return pageSize + 1 }

// NewPage cuts repository results (fetched with FetchLimit) into a page.
// When an extra item is present it is dropped from the page and its id
// becomes the next page key.
func NewPage[T any](items []T, pageSize int, id func(T) domain.ProfileID) Page[T] {
	if len(items) <= pageSize {
		return Page[T]{Items: items}
	}
	next := id(items[pageSize])
	return Page[T]{
		Items:       items[:pageSize],
		NextPageKey: &next,
	}
}
