// Package pagination describes paged slices of query results.
package pagination

import "math"

// DefaultPerPage is the page size used by Default.
const DefaultPerPage = 25

// Paging selects one page of a result set. Pages are 1-based.
type Paging struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// All selects every item in a single page.
func All() Paging {
	return Paging{Page: 1, PerPage: math.MaxInt}
}

// Default selects the first page of DefaultPerPage items.
func Default() Paging {
	return Paging{Page: 1, PerPage: DefaultPerPage}
}

// Normalize returns a copy with non-positive values replaced by defaults.
func (p Paging) Normalize() Paging {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = DefaultPerPage
	}
	return p
}

// FirstIndex returns the zero-based index of the first item on the page,
// saturating at math.MaxInt.
func (p Paging) FirstIndex() int {
	p = p.Normalize()
	if p.Page-1 > math.MaxInt/p.PerPage {
		return math.MaxInt
	}
	return (p.Page - 1) * p.PerPage
}

// Exists reports whether the page holds at least one item out of total.
func (p Paging) Exists(total int) bool {
	return p.FirstIndex() < total
}

// Page is one page of items plus enough metadata to navigate the rest.
type Page[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"total_count"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
}

// NewPage wraps items already sliced by the caller.
func NewPage[T any](items []T, total int, paging Paging) Page[T] {
	paging = paging.Normalize()
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:      items,
		TotalCount: total,
		Page:       paging.Page,
		PageSize:   paging.PerPage,
	}
}

// Paginate slices all according to paging.
func Paginate[T any](all []T, paging Paging) Page[T] {
	paging = paging.Normalize()
	start := paging.FirstIndex()
	if start >= len(all) {
		return NewPage([]T{}, len(all), paging)
	}
	end := len(all)
	if paging.PerPage < end-start {
		end = start + paging.PerPage
	}
	items := make([]T, end-start)
	copy(items, all[start:end])
	return NewPage(items, len(all), paging)
}

// PageCount returns the number of pages needed for TotalCount items.
func (p Page[T]) PageCount() int {
	if p.PageSize <= 0 || p.TotalCount <= 0 {
		return 0
	}
	return (p.TotalCount-1)/p.PageSize + 1
}

// HasNext reports whether another page follows this one.
func (p Page[T]) HasNext() bool {
	return p.Page < p.PageCount()
}

// HasPrevious reports whether a page precedes this one.
func (p Page[T]) HasPrevious() bool {
	return p.Page > 1
}
