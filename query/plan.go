package query

import (
	"io"
	"os"

	"github.com/metaq/metaq/table"
)

// Query is an immutable query plan over a source table. Every builder
// method returns a new plan wrapping the receiver's stages plus the new
// one; the receiver is never mutated, so intermediate plans can be
// shared and extended independently.
//
// Building a plan has no side effects. Execution (All, Run, Show)
// applies the recorded stages in a fixed canonical order regardless of
// the order the builder methods were called:
//
//	Filter -> Join -> GroupAggregate -> Having -> OrderBy -> Limit -> Project
type Query struct {
	src     *table.Table
	err     error
	filters []Predicate
	joins   []joinStep
	grouped bool
	groupBy []string
	aggs    []AggregateSpec
	having  []Predicate
	orderBy *orderSpec
	limit   *int
	project []projectField
}

type joinStep struct {
	tables []*table.Table
	key    string
}

type orderSpec struct {
	field string
	desc  bool
}

type projectField struct {
	field string
	alias string
}

func (f projectField) name() string {
	if f.alias != "" {
		return f.alias
	}
	return f.field
}

// From starts a plan over a source table.
func From(t *table.Table) *Query {
	return &Query{src: t}
}

// clone copies the plan so the receiver stays untouched.
func (q *Query) clone() *Query {
	out := *q
	out.filters = append([]Predicate(nil), q.filters...)
	out.joins = append([]joinStep(nil), q.joins...)
	out.groupBy = append([]string(nil), q.groupBy...)
	out.aggs = append([]AggregateSpec(nil), q.aggs...)
	out.having = append([]Predicate(nil), q.having...)
	out.project = append([]projectField(nil), q.project...)
	return &out
}

// fail records the first build error; it surfaces at execution.
func (q *Query) fail(err error) *Query {
	if q.err == nil {
		q.err = err
	}
	return q
}

// Where adds filter conditions combined with implicit AND, e.g.
//
//	From(t).Where(C("status", "=", "FAILED"), C("duration_sec", ">", 300))
func (q *Query) Where(conds ...Cond) *Query {
	out := q.clone()
	for _, c := range conds {
		p, err := c.predicate()
		if err != nil {
			return out.fail(err)
		}
		out.filters = append(out.filters, p)
	}
	return out
}

// WhereExpr adds a full predicate tree as a filter.
func (q *Query) WhereExpr(p Predicate) *Query {
	out := q.clone()
	out.filters = append(out.filters, p)
	return out
}

// Join records an inner equality join against another table on a
// shared key.
func (q *Query) Join(other *table.Table, key string) *Query {
	return q.MultiJoin([]*table.Table{other}, key)
}

// MultiJoin records an inner equality join folded left-to-right over
// several tables sharing one key.
func (q *Query) MultiJoin(others []*table.Table, key string) *Query {
	out := q.clone()
	out.joins = append(out.joins, joinStep{
		tables: append([]*table.Table(nil), others...),
		key:    key,
	})
	return out
}

// GroupBy records a grouping stage over the given fields. With no
// explicit Aggregate specs the stage derives the default aggregates:
// COUNT plus SUM/MIN/MAX/AVG for every numeric non-group field.
func (q *Query) GroupBy(fields ...string) *Query {
	out := q.clone()
	out.grouped = true
	out.groupBy = append(out.groupBy, fields...)
	return out
}

// Aggregate records explicit aggregate specs for the grouping stage.
// With no GroupBy the whole table forms a single partition.
func (q *Query) Aggregate(specs ...AggregateSpec) *Query {
	out := q.clone()
	out.grouped = true
	out.aggs = append(out.aggs, specs...)
	return out
}

// Having adds post-aggregation filter conditions (implicit AND). Only
// valid downstream of a grouping stage.
func (q *Query) Having(conds ...Cond) *Query {
	out := q.clone()
	for _, c := range conds {
		p, err := c.predicate()
		if err != nil {
			return out.fail(err)
		}
		out.having = append(out.having, p)
	}
	return out
}

// HavingExpr adds a full predicate tree as a post-aggregation filter.
func (q *Query) HavingExpr(p Predicate) *Query {
	out := q.clone()
	out.having = append(out.having, p)
	return out
}

// OrderBy records a sort on one field. The sort is stable; Null values
// order before everything ascending.
func (q *Query) OrderBy(field string, desc bool) *Query {
	out := q.clone()
	out.orderBy = &orderSpec{field: field, desc: desc}
	return out
}

// Limit caps the number of result rows.
func (q *Query) Limit(n int) *Query {
	out := q.clone()
	if n < 0 {
		n = 0
	}
	out.limit = &n
	return out
}

// Select records a final projection to the given fields.
func (q *Query) Select(fields ...string) *Query {
	out := q.clone()
	for _, f := range fields {
		out.project = append(out.project, projectField{field: f})
	}
	return out
}

// SelectAs records a projection of one field under an output alias.
func (q *Query) SelectAs(field, alias string) *Query {
	out := q.clone()
	out.project = append(out.project, projectField{field: field, alias: alias})
	return out
}

// All executes the plan and returns the resulting rows as
// field-name-to-value mappings.
func (q *Query) All() ([]map[string]any, error) {
	t, err := q.Run()
	if err != nil {
		return nil, err
	}
	return t.All(), nil
}

// Show executes the plan and renders the result as an aligned text
// grid on stdout. The rows are exactly those All would return.
func (q *Query) Show() error {
	return q.Render(os.Stdout)
}

// Render executes the plan and renders the result grid to w.
func (q *Query) Render(w io.Writer) error {
	t, err := q.Run()
	if err != nil {
		return err
	}
	return renderGrid(w, t)
}
