package search

import (
	"fmt"
	"testing"

	"github.com/dansportalen/directory-api/internal/domain"
)

func ids(n int) []domain.ProfileID {
	out := make([]domain.ProfileID, n)
	for i := range out {
		out[i] = domain.ProfileID(fmt.Sprintf("id-%03d", i))
	}
	return out
}

func TestNewPage_LastPage(t *testing.T) {
	t.Parallel()

	items := ids(5)
	page := NewPage(items, PageSize, func(id domain.ProfileID) domain.ProfileID { return id })
	if len(page.Items) != 5 || page.NextPageKey != nil {
		t.Fatalf("page=%+v, want all items and no next key", page)
	}
}

func TestNewPage_FullPageWithMore(t *testing.T) {
	t.Parallel()

	items := ids(FetchLimit(PageSize))
	page := NewPage(items, PageSize, func(id domain.ProfileID) domain.ProfileID { return id })
	if len(page.Items) != PageSize {
		t.Fatalf("len=%d, want %d", len(page.Items), PageSize)
	}
	if page.NextPageKey == nil || *page.NextPageKey != items[PageSize] {
		t.Fatalf("nextPageKey=%v, want the extra item's id", page.NextPageKey)
	}
	for _, it := range page.Items {
		if it == *page.NextPageKey {
			t.Fatalf("next page key %s also appears in the page", it)
		}
	}
}

func TestNewPage_ExactPageSize(t *testing.T) {
	t.Parallel()

	items := ids(PageSize)
	page := NewPage(items, PageSize, func(id domain.ProfileID) domain.ProfileID { return id })
	if len(page.Items) != PageSize || page.NextPageKey != nil {
		t.Fatalf("page=%+v, want full page and no next key", page)
	}
}
