package present

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/alex-user-go/nearby/internal/search/types"
)

// Table renders a result page as a table followed by a page footer line.
func Table(w io.Writer, page types.Page, formatter Formatter) error {
	table := tablewriter.NewWriter(w)
	table.Header("Hotel", "KM", "Price")

	for _, h := range page.Items {
		price, err := formatter.Format(h.Price)
		if err != nil {
			return err
		}
		if err := table.Append([]string{h.Name, formatKm(h.Distance), price}); err != nil {
			return fmt.Errorf("append row: %w", err)
		}
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	_, err := fmt.Fprintf(w, "page %d of %d\n", page.Page, page.TotalPages)
	return err
}
