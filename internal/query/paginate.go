package query

import "careersetu/listing-service/internal/model"

// DefaultPageSize matches the screen default; the admissions grid used 6.
const DefaultPageSize = 20

// Page is one slice of a filtered, sorted listing set.
//
// Invariants: PageNumber ∈ [1, TotalPages] and TotalPages ≥ 1, even when the
// set is empty.
type Page struct {
	Items      []model.Listing `json:"items"`
	PageNumber int             `json:"pageNumber"`
	PageSize   int             `json:"pageSize"`
	TotalPages int             `json:"totalPages"`
	TotalCount int             `json:"totalCount"`
}

// Paginate slices listings into the requested page, clamping pageNumber into
// range first. Out-of-range requests never produce an error or an
// inconsistent count — a filter that shrank the set simply lands the caller
// on the last page.
func Paginate(listings []model.Listing, pageNumber, pageSize int) Page {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	total := len(listings)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	if pageNumber < 1 {
		pageNumber = 1
	}
	if pageNumber > totalPages {
		pageNumber = totalPages
	}

	start := (pageNumber - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	items := make([]model.Listing, end-start)
	copy(items, listings[start:end])

	return Page{
		Items:      items,
		PageNumber: pageNumber,
		PageSize:   pageSize,
		TotalPages: totalPages,
		TotalCount: total,
	}
}
