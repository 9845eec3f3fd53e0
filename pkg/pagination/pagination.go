// Package pagination implements the page-number/items-per-page scheme the
// admin and member UIs already speak.
package pagination

import (
	"net/url"
	"strconv"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page is a validated pagination request.
type Page struct {
	Number int
	Size   int
}

// Parse reads itemsPerPage and pageNo query parameters, coercing missing or
// nonsense values to defaults instead of erroring — list endpoints should
// never 400 on pagination.
func Parse(query url.Values) Page {
	page := Page{Number: 1, Size: DefaultPageSize}
	if v := query.Get("pageNo"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page.Number = n
		}
	}
	if v := query.Get("itemsPerPage"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page.Size = n
		}
	}
	if page.Size > MaxPageSize {
		page.Size = MaxPageSize
	}
	return page
}

// Offset converts the page into a row offset.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Slice bounds-checks a full result set down to one page.
func Slice[T any](items []T, p Page) []T {
	start := p.Offset()
	if start >= len(items) {
		return nil
	}
	end := start + p.Size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// Meta is the pagination block of the response envelope.
type Meta struct {
	CurrentPage  int `json:"currentPage"`
	ItemsPerPage int `json:"itemsPerPage"`
	TotalItems   int `json:"totalItems"`
	TotalPages   int `json:"totalPages"`
}

// MetaFor computes response metadata for a page over total items.
func MetaFor(p Page, total int) Meta {
	pages := total / p.Size
	if total%p.Size != 0 {
		pages++
	}
	return Meta{
		CurrentPage:  p.Number,
		ItemsPerPage: p.Size,
		TotalItems:   total,
		TotalPages:   pages,
	}
}
