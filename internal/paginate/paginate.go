// Package paginate splits a listing into fixed-size pages.
//
// The page number comes straight from the query string (?page=3), so it is
// never trusted: anything that is not a number shows the first page, and a
// number past the end shows the last page. A listing with no items still
// has exactly one (empty) page, so templates never deal with "page 0 of 0".
package paginate

import "strconv"

// Page is one window of a listing plus what a template needs to draw the
// pager links.
type Page[T any] struct {
	Items      []T
	Number     int // 1-based
	NumPages   int
	TotalItems int
	PerPage    int
}

// Window describes which slice of the listing to fetch for a page.
type Window struct {
	Number int
	Limit  int
	Offset int
}

// Resolve turns the raw ?page= value into a concrete window, given how many
// items exist in total.
func Resolve(raw string, total, perPage int) Window {
	if perPage <= 0 {
		perPage = 1
	}
	numPages := NumPages(total, perPage)

	n, err := strconv.Atoi(raw)
	switch {
	case err != nil:
		n = 1
	case n < 1:
		n = numPages
	case n > numPages:
		n = numPages
	}

	return Window{Number: n, Limit: perPage, Offset: (n - 1) * perPage}
}

// NumPages is the number of pages needed for total items. Never less than 1.
func NumPages(total, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 1
	}
	return (total + perPage - 1) / perPage
}

// New assembles a Page from the items fetched for w.
func New[T any](items []T, w Window, total int) Page[T] {
	return Page[T]{
		Items:      items,
		Number:     w.Number,
		NumPages:   NumPages(total, w.Limit),
		TotalItems: total,
		PerPage:    w.Limit,
	}
}

func (p Page[T]) HasPrevious() bool { return p.Number > 1 }
func (p Page[T]) HasNext() bool     { return p.Number < p.NumPages }
func (p Page[T]) HasOtherPages() bool {
	return p.NumPages > 1
}
func (p Page[T]) PreviousNumber() int { return p.Number - 1 }
func (p Page[T]) NextNumber() int     { return p.Number + 1 }

// PageRange lists every page number, for the numbered links in the pager.
func (p Page[T]) PageRange() []int {
	r := make([]int, p.NumPages)
	for i := range r {
		r[i] = i + 1
	}
	return r
}
