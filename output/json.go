package output

import (
	"encoding/json"
	"io"

	"github.com/metaq/metaq/table"
)

// JSONFormatter outputs rows in JSON Lines format, one object per row.
type JSONFormatter struct {
	writer io.Writer
}

// NewJSONFormatter creates a new JSON Lines formatter.
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{writer: w}
}

// SetOutput changes the output writer.
func (j *JSONFormatter) SetOutput(w io.Writer) {
	j.writer = w
}

// Format writes one JSON object per row. Null values encode as JSON
// null.
func (j *JSONFormatter) Format(t *table.Table) error {
	enc := json.NewEncoder(j.writer)
	for r := range t.Scan() {
		if err := enc.Encode(r.Map()); err != nil {
			return err
		}
	}
	return nil
}
