package output

import (
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/metaq/metaq/table"
)

// GridFormatter renders a table as an aligned text grid, the format
// Show() prints. Columns follow the table schema's first-seen field
// order; Null values render as empty cells.
type GridFormatter struct {
	writer io.Writer
}

// NewGridFormatter creates a new grid formatter.
func NewGridFormatter(w io.Writer) *GridFormatter {
	return &GridFormatter{writer: w}
}

// SetOutput changes the output writer.
func (g *GridFormatter) SetOutput(w io.Writer) {
	g.writer = w
}

// Format writes the table as an aligned grid.
func (g *GridFormatter) Format(t *table.Table) error {
	fields := t.Schema()

	w := tablewriter.NewWriter(g.writer)
	w.SetHeader(fields)
	w.SetAutoFormatHeaders(false)
	w.SetAutoWrapText(false)

	for r := range t.Scan() {
		record := make([]string, len(fields))
		for i, f := range fields {
			record[i] = r.Get(f).String()
		}
		w.Append(record)
	}

	w.Render()
	return nil
}
