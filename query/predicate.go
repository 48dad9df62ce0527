package query

import (
	"fmt"
	"strings"

	"github.com/metaq/metaq/table"
)

// Op is a comparison operator.
type Op int

const (
	OpEq Op = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpContains
)

// String returns the SQL spelling of the operator.
func (o Op) String() string {
	switch o {
	case OpEq:
		return "="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpContains:
		return "contains"
	default:
		return "?"
	}
}

// ParseOp parses an operator's text form.
func ParseOp(s string) (Op, error) {
	switch s {
	case "=", "==":
		return OpEq, nil
	case "!=", "<>":
		return OpNe, nil
	case "<":
		return OpLt, nil
	case "<=":
		return OpLe, nil
	case ">":
		return OpGt, nil
	case ">=":
		return OpGe, nil
	case "contains":
		return OpContains, nil
	default:
		return 0, fmt.Errorf("unknown operator %q", s)
	}
}

// Predicate is a boolean expression evaluated per row.
type Predicate interface {
	Eval(r table.Row) (bool, error)
}

// Comparison compares one row field against a literal value.
//
// Equality and inequality never fail: cross-kind pairs are simply
// unequal, and an absent field reads as Null. Ordering comparisons
// against Null are false without error; ordering values of
// incomparable kinds is a TypeError. The contains operator is a
// case-insensitive substring match over string values; any other kind
// on either side is false, never an error.
type Comparison struct {
	Field string
	Op    Op
	Value table.Value
}

func (c Comparison) Eval(r table.Row) (bool, error) {
	v := r.Get(c.Field)

	switch c.Op {
	case OpEq:
		return v.Equal(c.Value), nil
	case OpNe:
		return !v.Equal(c.Value), nil
	case OpContains:
		if v.Kind() != table.KindString || c.Value.Kind() != table.KindString {
			return false, nil
		}
		return strings.Contains(strings.ToLower(v.Str()), strings.ToLower(c.Value.Str())), nil
	}

	if v.IsNull() || c.Value.IsNull() {
		return false, nil
	}
	cmp, err := table.Compare(v, c.Value)
	if err != nil {
		return false, typeErrorf("field %q: %v", c.Field, err)
	}
	switch c.Op {
	case OpLt:
		return cmp < 0, nil
	case OpLe:
		return cmp <= 0, nil
	case OpGt:
		return cmp > 0, nil
	case OpGe:
		return cmp >= 0, nil
	default:
		return false, typeErrorf("field %q: unknown operator %v", c.Field, c.Op)
	}
}

// And is a short-circuit conjunction.
type And struct {
	Left, Right Predicate
}

func (a And) Eval(r table.Row) (bool, error) {
	ok, err := a.Left.Eval(r)
	if err != nil || !ok {
		return false, err
	}
	return a.Right.Eval(r)
}

// Or is a short-circuit disjunction.
type Or struct {
	Left, Right Predicate
}

func (o Or) Eval(r table.Row) (bool, error) {
	ok, err := o.Left.Eval(r)
	if err != nil || ok {
		return ok, err
	}
	return o.Right.Eval(r)
}

// Not negates its inner predicate.
type Not struct {
	Inner Predicate
}

func (n Not) Eval(r table.Row) (bool, error) {
	ok, err := n.Inner.Eval(r)
	return !ok, err
}

// Group wraps a parenthesized subexpression. It changes nothing about
// evaluation, only precedence during parsing.
type Group struct {
	Inner Predicate
}

func (g Group) Eval(r table.Row) (bool, error) {
	return g.Inner.Eval(r)
}

// Cond is a builder-facing condition: field, operator text and a native
// Go literal. Invalid operators and unsupported literal types surface
// when the plan executes.
type Cond struct {
	Field string
	Op    string
	Value any
}

// C is shorthand for a Cond literal:
//
//	q.Where(C("status", "=", "FAILED"))
func C(field, op string, value any) Cond {
	return Cond{Field: field, Op: op, Value: value}
}

func (c Cond) predicate() (Predicate, error) {
	op, err := ParseOp(c.Op)
	if err != nil {
		return nil, err
	}
	v, err := table.FromGo(c.Value)
	if err != nil {
		return nil, fmt.Errorf("condition on %q: %w", c.Field, err)
	}
	return Comparison{Field: c.Field, Op: op, Value: v}, nil
}

// conjoin folds predicates into a single And tree. It returns nil for
// an empty slice.
func conjoin(preds []Predicate) Predicate {
	if len(preds) == 0 {
		return nil
	}
	p := preds[0]
	for _, next := range preds[1:] {
		p = And{Left: p, Right: next}
	}
	return p
}

// predicateFields collects every field name the predicate references.
func predicateFields(p Predicate, out map[string]bool) {
	switch v := p.(type) {
	case Comparison:
		out[v.Field] = true
	case And:
		predicateFields(v.Left, out)
		predicateFields(v.Right, out)
	case Or:
		predicateFields(v.Left, out)
		predicateFields(v.Right, out)
	case Not:
		predicateFields(v.Inner, out)
	case Group:
		predicateFields(v.Inner, out)
	}
}
