// Package output provides formatters for rendering result tables.
//
// Supported formats:
//   - Grid: aligned text table (the Show() format)
//   - JSON Lines: one JSON object per row
//   - CSV: comma-separated values with header row
//
// Example usage:
//
//	formatter := output.NewGridFormatter(os.Stdout)
//	if err := formatter.Format(result); err != nil {
//	    log.Fatal(err)
//	}
package output

import (
	"io"

	"github.com/metaq/metaq/table"
)

// Formatter defines the interface for output formatters.
type Formatter interface {
	// Format writes the table in the formatter's specific format
	Format(t *table.Table) error

	// SetOutput changes the output writer
	SetOutput(w io.Writer)
}

// ByName returns the formatter registered under the given name, or
// false for an unknown name.
func ByName(name string, w io.Writer) (Formatter, bool) {
	switch name {
	case "grid", "":
		return NewGridFormatter(w), true
	case "json":
		return NewJSONFormatter(w), true
	case "csv":
		return NewCSVFormatter(w), true
	default:
		return nil, false
	}
}
