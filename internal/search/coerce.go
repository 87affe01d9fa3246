package search

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numericPrefix matches the leading decimal number of a string, the way loose
// numeric coercion reads "12.50 EUR" as 12.5.
var numericPrefix = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// coerceFloat returns the leading number in s, or 0 when there is none.
func coerceFloat(s string) float64 {
	m := numericPrefix.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		// out of range
		return 0
	}
	return v
}

// parseCoordinate parses a caller-supplied coordinate strictly.
func parseCoordinate(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
