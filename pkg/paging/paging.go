// Package paging slices the sorted record listing into pages.
package paging

import (
	"strconv"
)

const (
	// DefaultPage is used when the page parameter is absent or not a positive integer
	DefaultPage = 1
	// DefaultPageSize is used when the pageSize parameter is absent or not a positive integer
	DefaultPageSize = 9
)

// Info describes the position of a page within the full listing
type Info struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"pageSize"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// Parse turns raw query parameters into a positive page and pageSize,
// falling back to the defaults for anything non-numeric or non-positive.
func Parse(pageRaw, pageSizeRaw string) (page, pageSize int) {
	page = DefaultPage
	if v, err := strconv.Atoi(pageRaw); err == nil && v > 0 {
		page = v
	}
	pageSize = DefaultPageSize
	if v, err := strconv.Atoi(pageSizeRaw); err == nil && v > 0 {
		pageSize = v
	}
	return page, pageSize
}

// Paginate returns the slice of items belonging to the requested page.
// The bounds are [(page-1)*pageSize, page*pageSize) clipped to the listing,
// so an out of range page yields an empty page, not an error.
func Paginate(items []string, page, pageSize int) ([]string, Info) {
	total := len(items)
	totalPages := (total + pageSize - 1) / pageSize

	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	pageItems := make([]string, 0, end-start)
	pageItems = append(pageItems, items[start:end]...)

	return pageItems, Info{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}
