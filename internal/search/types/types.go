package types

import "strings"

// Order is the criterion used to sort search results.
type Order string

const (
	// OrderProximity sorts by distance from the origin, nearest first.
	OrderProximity Order = "proximity"
	// OrderPricePerNight sorts by nightly price, cheapest first.
	OrderPricePerNight Order = "price_per_night"
)

// ParseOrder maps s to an Order. Unrecognized values fall back to
// OrderProximity.
func ParseOrder(s string) Order {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(OrderPricePerNight), "price night":
		return OrderPricePerNight
	default:
		return OrderProximity
	}
}

// RawHotel is a listing entry as received from a source:
// (name, latitude, longitude, price).
type RawHotel struct {
	Name      string
	Latitude  string
	Longitude string
	Price     string
}

// Hotel represents a normalized hotel. Distance is in kilometers.
type Hotel struct {
	Name     string  `json:"hotel"`
	Distance float64 `json:"km"`
	Price    float64 `json:"price"`
}

// Page is a slice of an ordered result set.
type Page struct {
	Page       int     `json:"page"`
	TotalPages int     `json:"pages"`
	Items      []Hotel `json:"data"`
}
