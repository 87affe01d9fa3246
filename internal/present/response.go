// Package present renders search results, either as a structured JSON page or
// as a human-readable listing.
package present

import (
	"github.com/alex-user-go/nearby/internal/search/types"
)

// Response is the structured form of one result page.
type Response struct {
	OrderBy types.Order   `json:"orderby"`
	Page    int           `json:"page"`
	Pages   int           `json:"pages"`
	Data    []types.Hotel `json:"data"`
}

// NewResponse wraps a page for machine consumption.
func NewResponse(order types.Order, page types.Page) Response {
	data := page.Items
	if data == nil {
		data = []types.Hotel{}
	}
	return Response{
		OrderBy: order,
		Page:    page.Page,
		Pages:   page.TotalPages,
		Data:    data,
	}
}
