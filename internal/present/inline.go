package present

import (
	"strconv"
	"strings"

	"github.com/alex-user-go/nearby/internal/search/types"
)

// Separator precedes every hotel in the inline listing.
const Separator = " • "

// Inline renders hotels as one line, e.g.
// " • Hotel B, 1.97 KM, 80,00 EUR • Hotel A, 0.51 KM, 100,00 EUR".
// An empty list renders as "". Nothing is returned if any price fails to
// format.
func Inline(hotels []types.Hotel, formatter Formatter) (string, error) {
	var b strings.Builder
	for _, h := range hotels {
		line, err := inlineHotel(h, formatter)
		if err != nil {
			return "", err
		}
		b.WriteString(Separator)
		b.WriteString(line)
	}
	return b.String(), nil
}

func inlineHotel(h types.Hotel, formatter Formatter) (string, error) {
	price, err := formatter.Format(h.Price)
	if err != nil {
		return "", err
	}
	return h.Name + ", " + formatKm(h.Distance) + " KM, " + price, nil
}

func formatKm(km float64) string {
	return strconv.FormatFloat(km, 'f', -1, 64)
}
