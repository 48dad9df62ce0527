package output

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/metaq/metaq/table"
)

// CSVFormatter outputs rows as CSV with a header row.
type CSVFormatter struct {
	writer io.Writer
}

// NewCSVFormatter creates a new CSV formatter.
func NewCSVFormatter(w io.Writer) *CSVFormatter {
	return &CSVFormatter{writer: w}
}

// SetOutput changes the output writer.
func (c *CSVFormatter) SetOutput(w io.Writer) {
	c.writer = w
}

// Format writes the table as CSV. The header follows the schema's
// first-seen field order; Null values become empty cells.
func (c *CSVFormatter) Format(t *table.Table) error {
	csvWriter := csv.NewWriter(c.writer)
	fields := t.Schema()

	if len(fields) > 0 {
		if err := csvWriter.Write(fields); err != nil {
			return err
		}
	}

	for r := range t.Scan() {
		record := make([]string, len(fields))
		for i, f := range fields {
			record[i] = r.Get(f).String()
		}
		if err := csvWriter.Write(record); err != nil {
			return err
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV writer: %w", err)
	}
	return nil
}
