package query

import (
	"fmt"
	"io"
	"sort"

	"github.com/metaq/metaq/output"
	"github.com/metaq/metaq/table"
)

// Run executes the plan and returns the result table. Stages apply in
// canonical relational order no matter how the plan was built: filters
// run before joins, grouping before having, ordering before the limit,
// projection last. Input tables are never touched; every stage yields
// a fresh table.
func (q *Query) Run() (*table.Table, error) {
	if q.err != nil {
		return nil, q.err
	}
	if q.src == nil {
		return nil, schemaErrorf("query has no source table")
	}

	cur := q.src
	var err error

	if filter := conjoin(q.filters); filter != nil {
		cur, err = applyFilter(cur, filter)
		if err != nil {
			return nil, fmt.Errorf("WHERE: %w", err)
		}
	}

	for _, step := range q.joins {
		cur, err = multiJoin(cur, step.tables, step.key)
		if err != nil {
			return nil, fmt.Errorf("JOIN: %w", err)
		}
	}

	grouped := q.grouped || len(q.aggs) > 0
	if grouped {
		cur, err = groupAndAggregate(cur, q.groupBy, q.aggs)
		if err != nil {
			return nil, fmt.Errorf("GROUP BY: %w", err)
		}
	}

	if having := conjoin(q.having); having != nil {
		if !grouped {
			return nil, schemaErrorf("HAVING requires a prior GROUP BY")
		}
		cur, err = applyHaving(cur, having)
		if err != nil {
			return nil, fmt.Errorf("HAVING: %w", err)
		}
	}

	if q.orderBy != nil {
		cur, err = applyOrderBy(cur, *q.orderBy)
		if err != nil {
			return nil, fmt.Errorf("ORDER BY: %w", err)
		}
	}

	if q.limit != nil {
		cur = applyLimit(cur, *q.limit)
	}

	if len(q.project) > 0 {
		cur = applyProject(cur, q.project)
	}

	return cur, nil
}

// applyFilter keeps the rows for which the predicate holds.
func applyFilter(t *table.Table, filter Predicate) (*table.Table, error) {
	rows := make([]table.Row, 0, t.Len())
	for r := range t.Scan() {
		match, err := filter.Eval(r)
		if err != nil {
			return nil, err
		}
		if match {
			rows = append(rows, r)
		}
	}
	return table.New(t.Name(), rows), nil
}

// applyOrderBy returns a stably sorted copy of the table. Null values
// sort before everything ascending (after everything descending).
func applyOrderBy(t *table.Table, spec orderSpec) (*table.Table, error) {
	rows := make([]table.Row, 0, t.Len())
	for r := range t.Scan() {
		rows = append(rows, r)
	}

	var sortErr error
	sort.SliceStable(rows, func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		a := rows[i].Get(spec.field)
		b := rows[j].Get(spec.field)

		switch {
		case a.IsNull() && b.IsNull():
			return false
		case a.IsNull():
			return !spec.desc
		case b.IsNull():
			return spec.desc
		}

		cmp, err := table.Compare(a, b)
		if err != nil {
			sortErr = typeErrorf("field %q: %v", spec.field, err)
			return false
		}
		if spec.desc {
			return cmp > 0
		}
		return cmp < 0
	})

	if sortErr != nil {
		return nil, sortErr
	}
	return table.New(t.Name(), rows), nil
}

// applyLimit keeps the first n rows.
func applyLimit(t *table.Table, n int) *table.Table {
	if n > t.Len() {
		n = t.Len()
	}
	rows := make([]table.Row, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, t.Row(i))
	}
	return table.New(t.Name(), rows)
}

// applyProject keeps the requested fields in order, renaming aliased
// ones. Absent fields project to Null.
func applyProject(t *table.Table, fields []projectField) *table.Table {
	rows := make([]table.Row, 0, t.Len())
	for r := range t.Scan() {
		out := table.NewRow()
		for _, f := range fields {
			out = out.Set(f.name(), r.Get(f.field))
		}
		rows = append(rows, out)
	}
	return table.New(t.Name(), rows)
}

func renderGrid(w io.Writer, t *table.Table) error {
	return output.NewGridFormatter(w).Format(t)
}
