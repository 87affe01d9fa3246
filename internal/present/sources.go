package present

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/alex-user-go/nearby/internal/sources"
)

// Sources renders the registered sources as a table, marking the active one.
func Sources(w io.Writer, list []sources.Source, active string) error {
	table := tablewriter.NewWriter(w)
	table.Header("Active", "Name", "Location")

	for _, s := range list {
		mark := ""
		if s.Name == active {
			mark = "*"
		}
		if err := table.Append([]string{mark, s.Name, s.Location}); err != nil {
			return fmt.Errorf("append row: %w", err)
		}
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	return nil
}
