package search

import (
	"cmp"
	"slices"

	"github.com/alex-user-go/nearby/internal/geo"
	"github.com/alex-user-go/nearby/internal/search/types"
)

// Normalizer turns raw listing records into hotels carrying their distance
// from Origin.
type Normalizer struct {
	Origin   geo.Point
	Distance geo.DistanceFunc
}

// Normalize builds a Hotel from one raw record. Distance is in kilometers.
// Unparseable or negative prices become 0.
func (n Normalizer) Normalize(raw types.RawHotel) types.Hotel {
	distance := n.Distance
	if distance == nil {
		distance = geo.DistanceBetween
	}

	to := geo.Point{Lat: coerceFloat(raw.Latitude), Lon: coerceFloat(raw.Longitude)}
	price := max(coerceFloat(raw.Price), 0)

	return types.Hotel{
		Name:     raw.Name,
		Distance: distance(n.Origin, to, geo.Kilometers),
		Price:    price,
	}
}

// NormalizeAll normalizes every record, keeping their order.
func (n Normalizer) NormalizeAll(raws []types.RawHotel) []types.Hotel {
	hotels := make([]types.Hotel, 0, len(raws))
	for _, raw := range raws {
		hotels = append(hotels, n.Normalize(raw))
	}
	return hotels
}

// Sort returns hotels ordered by the given criterion, nearest or cheapest
// first. The sort is stable and the input slice is left untouched.
func Sort(order types.Order, hotels []types.Hotel) []types.Hotel {
	key := func(h types.Hotel) float64 { return h.Distance }
	if order == types.OrderPricePerNight {
		key = func(h types.Hotel) float64 { return h.Price }
	}

	sorted := slices.Clone(hotels)
	slices.SortStableFunc(sorted, func(a, b types.Hotel) int {
		return cmp.Compare(key(a), key(b))
	})
	return sorted
}
