// Package page implements pagination math and the paged result envelope.
package page

// Totals computes the page count for a match set. A zero match set has zero
// pages.
func Totals(totalCount, pageSize int) int {
	if totalCount <= 0 || pageSize <= 0 {
		return 0
	}
	return (totalCount + pageSize - 1) / pageSize
}

// Slice returns the 1-based page of items. A page past the end is empty,
// not an error.
func Slice[T any](items []T, pageNumber, pageSize int) []T {
	start := (pageNumber - 1) * pageSize
	if start >= len(items) {
		return nil
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// Links holds navigation URLs for a page. Prev and Next are empty on the
// first and last page respectively.
type Links struct {
	Self  string `json:"Self"`
	First string `json:"First"`
	Last  string `json:"Last,omitempty"`
	Prev  string `json:"Prev,omitempty"`
	Next  string `json:"Next,omitempty"`
}

// Page is the result envelope returned to the caller. Totals reflect the
// full match set, not the returned slice.
type Page struct {
	PageNumber int              `json:"PageNumber"`
	PageSize   int              `json:"PageSize"`
	TotalPages int              `json:"TotalPages"`
	TotalCount int              `json:"TotalCount"`
	Seed       string           `json:"Seed,omitempty"`
	Items      []map[string]any `json:"Items"`
	Links      Links            `json:"Links"`
}

// New assembles the envelope for one page of projected documents.
func New(items []map[string]any, pageNumber, pageSize, totalCount int, seed string) Page {
	if items == nil {
		items = []map[string]any{}
	}
	return Page{
		PageNumber: pageNumber,
		PageSize:   pageSize,
		TotalPages: Totals(totalCount, pageSize),
		TotalCount: totalCount,
		Seed:       seed,
		Items:      items,
	}
}
