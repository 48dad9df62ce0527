// Package query implements the relational query engine: predicates,
// inner equality joins, grouping with aggregates, an immutable fluent
// plan builder and an SQL front end compiling to the same plans.
package query

import "github.com/metaq/metaq/table"

// Exec compiles and runs an SQL query against the database:
//
//	t, err := query.Exec(db, "SELECT iid, status FROM runs WHERE duration_sec > 300")
func Exec(db *table.Database, text string) (*table.Table, error) {
	q, err := Compile(db, text)
	if err != nil {
		return nil, err
	}
	return q.Run()
}
