// Package geo computes distances between geographic coordinates using the
// spherical law of cosines.
package geo

import (
	"math"
	"strings"
)

// Unit is a distance unit.
type Unit string

const (
	// Kilometers reports distances in km.
	Kilometers Unit = "km"
	// Miles reports distances in statute miles.
	Miles Unit = "miles"
)

const (
	// nauticalMilesPerDegree times statuteMilesPerNauticalMile converts an arc in
	// degrees to statute miles.
	nauticalMilesPerDegree      = 60
	statuteMilesPerNauticalMile = 1.1515
	kilometersPerMile           = 1.609344
)

// ParseUnit maps "km" and "kilometers" to Kilometers. Anything else is Miles.
func ParseUnit(s string) Unit {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "km", "kilometers", "kilometres":
		return Kilometers
	default:
		return Miles
	}
}

// Point is a WGS 84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Abs drops the hemisphere sign of both coordinates.
func (p Point) Abs() Point {
	return Point{Lat: math.Abs(p.Lat), Lon: math.Abs(p.Lon)}
}

// DistanceFunc computes the distance between two points in the given unit.
type DistanceFunc func(from, to Point, unit Unit) float64

// DistanceBetween computes the distance between the absolute values of both
// points' coordinates, rounded to two decimals. Hemisphere signs are discarded,
// so points mirrored across the equator or the prime meridian coincide.
func DistanceBetween(from, to Point, unit Unit) float64 {
	return GreatCircle(from.Abs(), to.Abs(), unit)
}

// GreatCircle computes the signed great-circle distance between two points,
// rounded to two decimals.
func GreatCircle(from, to Point, unit Unit) float64 {
	lat1, lat2 := radians(from.Lat), radians(to.Lat)
	theta := radians(from.Lon - to.Lon)

	cosAngle := math.Sin(lat1)*math.Sin(lat2) + math.Cos(lat1)*math.Cos(lat2)*math.Cos(theta)
	// Rounding can push coincident or antipodal points just outside acos' domain.
	cosAngle = math.Max(-1, math.Min(1, cosAngle))

	miles := degrees(math.Acos(cosAngle)) * nauticalMilesPerDegree * statuteMilesPerNauticalMile
	if unit == Kilometers {
		return round2(miles * kilometersPerMile)
	}
	return round2(miles)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
