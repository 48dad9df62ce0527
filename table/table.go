// Package table implements the in-memory data model of the engine:
// tagged scalar Values, ordered schema-less Rows, immutable Tables and
// the Database handed over by the loader.
//
// Tables are never mutated in place; every operation returns a new
// Table. A table's schema is not stored, it is the union of field names
// observed across its rows, computed on demand.
package table

import "iter"

// Table is a named, ordered sequence of rows. Row order is insertion
// order unless an explicit ordering stage reorders a derived table.
type Table struct {
	name string
	rows []Row
}

// New creates a table over the given rows. The slice is owned by the
// table afterwards.
func New(name string, rows []Row) *Table {
	return &Table{name: name, rows: rows}
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Row returns the i-th row.
func (t *Table) Row(i int) Row { return t.rows[i] }

// Scan returns a restartable sequence over the table's rows. Each call
// produces a fresh iteration; no state is shared between scans.
func (t *Table) Scan() iter.Seq[Row] {
	return func(yield func(Row) bool) {
		for _, r := range t.rows {
			if !yield(r) {
				return
			}
		}
	}
}

// Schema returns the union of field names across all rows, in
// first-seen order.
func (t *Table) Schema() []string {
	seen := make(map[string]bool)
	var fields []string
	for _, r := range t.rows {
		for _, f := range r.Fields() {
			if !seen[f] {
				seen[f] = true
				fields = append(fields, f)
			}
		}
	}
	return fields
}

// Project returns a new table keeping only the given fields, in the
// given order. Absent fields project to Null.
func (t *Table) Project(fields ...string) *Table {
	rows := make([]Row, 0, len(t.rows))
	for _, r := range t.rows {
		out := NewRow()
		for _, f := range fields {
			out = out.Set(f, r.Get(f))
		}
		rows = append(rows, out)
	}
	return New(t.name, rows)
}

// Append returns a new table with the extra rows added at the end. The
// receiver is untouched.
func (t *Table) Append(rows ...Row) *Table {
	combined := make([]Row, 0, len(t.rows)+len(rows))
	combined = append(combined, t.rows...)
	combined = append(combined, rows...)
	return New(t.name, combined)
}

// All returns the rows as a sequence of field-to-native-value mappings.
func (t *Table) All() []map[string]any {
	out := make([]map[string]any, len(t.rows))
	for i, r := range t.rows {
		out[i] = r.Map()
	}
	return out
}

// Database maps table names to tables. It is built once by the loader
// and treated as immutable for the duration of a query session.
type Database struct {
	names  []string
	tables map[string]*Table
}

// NewDatabase returns an empty database.
func NewDatabase() *Database {
	return &Database{tables: make(map[string]*Table)}
}

// Put registers a table under its name, replacing any previous table
// with the same name.
func (d *Database) Put(t *Table) {
	if _, ok := d.tables[t.Name()]; !ok {
		d.names = append(d.names, t.Name())
	}
	d.tables[t.Name()] = t
}

// Get looks up a table by name.
func (d *Database) Get(name string) (*Table, bool) {
	t, ok := d.tables[name]
	return t, ok
}

// Names returns the table names in registration order.
func (d *Database) Names() []string { return d.names }
