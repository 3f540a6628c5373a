// Package movies holds the paging and sorting state of the movie list.
package movies

import (
	"strings"

	"github.com/five82/marquee/internal/api"
)

// Browser tracks which page of the catalogue is shown and how it is sorted.
// It does no I/O: callers build a request with Query, run it, and hand the
// result back to Apply along with the sequence number Query returned.
type Browser struct {
	page      int
	pageSize  int
	sortKey   string
	direction Direction

	searchKey  string
	searchTerm string

	records []api.Movie
	total   int // -1 when the server did not report a count
	loaded  bool
	seq     uint64
}

// NewBrowser starts on page 1 sorted by DefaultSortKey ascending.
func NewBrowser(pageSize int) *Browser {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Browser{
		page:      1,
		pageSize:  pageSize,
		sortKey:   DefaultSortKey,
		direction: Ascending,
		searchKey: DefaultSearchKey,
		total:     -1,
	}
}

// Query returns the request for the current state. Each call gets a new
// sequence number; only the response to the latest query is applied.
func (b *Browser) Query() (uint64, api.MovieQuery) {
	b.seq++
	q := api.MovieQuery{
		Page:       b.page,
		PageSize:   b.pageSize,
		SortKey:    b.sortKey,
		SortValue:  int(b.direction),
		TotalCount: true,
	}
	if b.searchTerm != "" {
		q.SearchKey, q.SearchTerm = b.searchKey, b.searchTerm
	}
	return b.seq, q
}

// Current reports whether seq belongs to the latest query. Failed requests
// use it to decide whether their error is still worth showing.
func (b *Browser) Current(seq uint64) bool {
	return seq == b.seq
}

// Apply replaces the displayed records with page. Responses to superseded
// queries are dropped and Apply reports false.
func (b *Browser) Apply(seq uint64, page api.MoviePage) bool {
	if !b.Current(seq) {
		return false
	}
	b.records = page.Data
	if page.TotalCount != nil {
		b.total = *page.TotalCount
	} else {
		b.total = -1
	}
	b.loaded = true
	return true
}

// ToggleSort flips the direction when key is already active, otherwise makes
// key active and ascending. The page is left alone. Columns the server cannot
// sort by are rejected.
func (b *Browser) ToggleSort(key string) bool {
	col, ok := LookupColumn(key)
	if !ok || !col.Sortable {
		return false
	}
	if key == b.sortKey {
		b.direction = b.direction.Flip()
		return true
	}
	b.sortKey = key
	b.direction = Ascending
	return true
}

// CycleSort activates the next sortable column, ascending.
func (b *Browser) CycleSort() string {
	var sortable []string
	current := -1
	for _, c := range Columns {
		if !c.Sortable {
			continue
		}
		if c.Key == b.sortKey {
			current = len(sortable)
		}
		sortable = append(sortable, c.Key)
	}
	next := sortable[(current+1)%len(sortable)]
	b.ToggleSort(next)
	return next
}

// SetSort restores a saved sort. Unknown or unsortable keys are ignored.
func (b *Browser) SetSort(key string, dir Direction) bool {
	col, ok := LookupColumn(key)
	if !ok || !col.Sortable {
		return false
	}
	if dir != Descending {
		dir = Ascending
	}
	b.sortKey = key
	b.direction = dir
	return true
}

// SetSearch filters by term on key and returns to page 1. An empty term
// clears the filter. Keys the server cannot search are rejected.
func (b *Browser) SetSearch(key, term string) bool {
	col, ok := LookupColumn(key)
	if !ok || !col.Searchable {
		return false
	}
	b.searchKey = key
	b.searchTerm = strings.TrimSpace(term)
	b.page = 1
	b.total = -1
	b.loaded = false
	return true
}

// Search returns the search column and term. The term is empty when no
// filter is active.
func (b *Browser) Search() (key, term string) {
	return b.searchKey, b.searchTerm
}

// TotalPages is derived from the reported total. Without one, the current
// page counts as the last unless it came back full.
func (b *Browser) TotalPages() int {
	if b.total >= 0 {
		pages := (b.total + b.pageSize - 1) / b.pageSize
		if pages < 1 {
			pages = 1
		}
		return pages
	}
	if b.loaded && len(b.records) >= b.pageSize {
		return b.page + 1
	}
	return b.page
}

// HasNext reports whether a page follows the current one.
func (b *Browser) HasNext() bool { return b.page < b.TotalPages() }

// HasPrev reports whether the current page is past the first.
func (b *Browser) HasPrev() bool { return b.page > 1 }

// NextPage advances one page when there is one.
func (b *Browser) NextPage() bool {
	if !b.HasNext() {
		return false
	}
	b.page++
	return true
}

// PrevPage goes back one page when there is one.
func (b *Browser) PrevPage() bool {
	if !b.HasPrev() {
		return false
	}
	b.page--
	return true
}

// Page returns the 1-based current page.
func (b *Browser) Page() int { return b.page }

// PageSize returns the number of records requested per page.
func (b *Browser) PageSize() int { return b.pageSize }

// SortKey returns the active sort column key.
func (b *Browser) SortKey() string { return b.sortKey }

// SortDirection returns the active sort direction.
func (b *Browser) SortDirection() Direction { return b.direction }

// Records returns the movies of the last applied page.
func (b *Browser) Records() []api.Movie { return b.records }

// Loaded reports whether any page has been applied since the last reset.
func (b *Browser) Loaded() bool { return b.loaded }

// Total returns the reported record count, if any.
func (b *Browser) Total() (int, bool) {
	return b.total, b.total >= 0
}
