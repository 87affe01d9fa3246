package search

import "github.com/alex-user-go/nearby/internal/search/types"

// DefaultPageLimit is the page size used when Paginate gets no limit.
const DefaultPageLimit = 20

// Paginate returns the page'th slice (0-based) of data. The page is clamped to
// the available range and an empty data set still has one (empty) page.
func Paginate(page, limit int, data []types.Hotel) types.Page {
	if limit <= 0 {
		limit = DefaultPageLimit
	}

	totalPages := max((len(data)+limit-1)/limit, 1)
	page = min(max(page, 0), totalPages-1) + 1

	offset := max((page-1)*limit, 0)
	end := min(offset+limit, len(data))
	items := make([]types.Hotel, 0, max(end-offset, 0))
	if offset < end {
		items = append(items, data[offset:end]...)
	}

	return types.Page{
		Page:       page,
		TotalPages: totalPages,
		Items:      items,
	}
}
