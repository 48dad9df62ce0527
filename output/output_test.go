package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metaq/metaq/table"
)

func resultTable() *table.Table {
	return table.New("runs", []table.Row{
		table.NewRow().
			Set("iid", table.String("A1")).
			Set("status", table.String("FAILED")).
			Set("duration_sec", table.Int(400)),
		table.NewRow().
			Set("iid", table.String("A2")).
			Set("status", table.String("SUCCESS")).
			Set("duration_sec", table.Int(200)).
			Set("note", table.String("ok")),
	})
}

func TestCSVFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewCSVFormatter(&buf).Format(resultTable()))

	g := goldie.New(t)
	g.Assert(t, "csv", buf.Bytes())
}

func TestCSVFormatter_EmptyTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewCSVFormatter(&buf).Format(table.New("empty", nil)))
	assert.Equal(t, "", buf.String())
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(&buf).Format(resultTable()))

	g := goldie.New(t)
	g.Assert(t, "jsonl", buf.Bytes())
}

func TestGridFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewGridFormatter(&buf).Format(resultTable()))
	out := buf.String()

	// Header columns in schema first-seen order, one line per row.
	for _, field := range []string{"iid", "status", "duration_sec", "note"} {
		assert.Contains(t, out, field)
	}
	assert.Contains(t, out, "A1")
	assert.Contains(t, out, "FAILED")
	assert.Contains(t, out, "400")
	assert.Less(t, strings.Index(out, "iid"), strings.Index(out, "A1"))
}

func TestByName(t *testing.T) {
	var buf bytes.Buffer

	for _, name := range []string{"grid", "json", "csv", ""} {
		_, ok := ByName(name, &buf)
		assert.True(t, ok, name)
	}

	_, ok := ByName("xml", &buf)
	assert.False(t, ok)
}

func TestSetOutput(t *testing.T) {
	var first, second bytes.Buffer
	f := NewJSONFormatter(&first)
	f.SetOutput(&second)

	require.NoError(t, f.Format(resultTable()))
	assert.Empty(t, first.String())
	assert.NotEmpty(t, second.String())
}
