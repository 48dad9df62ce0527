package query

import (
	"strconv"
	"strings"
	"time"

	"github.com/metaq/metaq/table"
)

// AggFunc identifies an aggregate function.
type AggFunc int

const (
	AggCount AggFunc = iota
	AggSum
	AggAvg
	AggMin
	AggMax
)

// String returns the SQL spelling of the function.
func (f AggFunc) String() string {
	switch f {
	case AggCount:
		return "COUNT"
	case AggSum:
		return "SUM"
	case AggAvg:
		return "AVG"
	case AggMin:
		return "MIN"
	case AggMax:
		return "MAX"
	default:
		return "AGG"
	}
}

// AggregateSpec requests one aggregate over a partition. Field "*" is
// the COUNT wildcard meaning "row count".
type AggregateSpec struct {
	Func  AggFunc
	Field string
	Alias string
}

// Count requests COUNT(*).
func Count() AggregateSpec { return AggregateSpec{Func: AggCount, Field: "*"} }

// CountOf requests COUNT(field), counting non-Null values.
func CountOf(field string) AggregateSpec { return AggregateSpec{Func: AggCount, Field: field} }

// Sum requests SUM(field).
func Sum(field string) AggregateSpec { return AggregateSpec{Func: AggSum, Field: field} }

// Avg requests AVG(field).
func Avg(field string) AggregateSpec { return AggregateSpec{Func: AggAvg, Field: field} }

// Min requests MIN(field).
func Min(field string) AggregateSpec { return AggregateSpec{Func: AggMin, Field: field} }

// Max requests MAX(field).
func Max(field string) AggregateSpec { return AggregateSpec{Func: AggMax, Field: field} }

// OutName returns the result field name: the alias if set, COUNT for
// the wildcard count, otherwise FUNC_field (e.g. SUM_rows_in).
func (s AggregateSpec) OutName() string {
	if s.Alias != "" {
		return s.Alias
	}
	if s.Func == AggCount && s.Field == "*" {
		return "COUNT"
	}
	return s.Func.String() + "_" + s.Field
}

// specFromName recognizes the aggregate output naming convention in a
// bare column reference (COUNT, SUM_amount, ...), so grouped queries can
// select auto-derived aggregates by name.
func specFromName(name string) (AggregateSpec, bool) {
	if name == "COUNT" {
		return Count(), true
	}
	for _, f := range []AggFunc{AggCount, AggSum, AggAvg, AggMin, AggMax} {
		prefix := f.String() + "_"
		if strings.HasPrefix(name, prefix) && len(name) > len(prefix) {
			return AggregateSpec{Func: f, Field: name[len(prefix):]}, true
		}
	}
	return AggregateSpec{}, false
}

// DayField is the derived grouping pseudo-field: the date portion of
// the table's single timestamp field.
const DayField = "day"

var timestampLayouts = []string{
	"2006-01-02T15:04:05",
	time.RFC3339,
}

func parseTimestamp(v table.Value) (time.Time, bool) {
	if v.Kind() != table.KindString {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, v.Str()); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// resolveTimestampField finds the one field whose non-Null values all
// parse as timestamps. Zero or several candidates is a SchemaError.
func resolveTimestampField(t *table.Table) (string, error) {
	var candidates []string
	for _, field := range t.Schema() {
		nonNull := 0
		allParse := true
		for r := range t.Scan() {
			v := r.Get(field)
			if v.IsNull() {
				continue
			}
			nonNull++
			if _, ok := parseTimestamp(v); !ok {
				allParse = false
				break
			}
		}
		if nonNull > 0 && allParse {
			candidates = append(candidates, field)
		}
	}
	switch len(candidates) {
	case 1:
		return candidates[0], nil
	case 0:
		return "", schemaErrorf("GROUP BY %s: no timestamp field in table %q", DayField, t.Name())
	default:
		return "", schemaErrorf("GROUP BY %s: ambiguous timestamp field in table %q (%s)",
			DayField, t.Name(), strings.Join(candidates, ", "))
	}
}

type partition struct {
	values []table.Value
	rows   []table.Row
}

// groupAndAggregate partitions rows by the tuple of values at the
// group fields and collapses each partition into one output row: the
// group key values plus one field per aggregate. Null is a valid,
// distinct key value. Output groups appear in first-seen order of each
// distinct key tuple.
//
// With no group fields, the whole table forms a single partition (bare
// aggregate queries). With no explicit specs, the default aggregates
// are derived: COUNT plus SUM/MIN/MAX/AVG per numeric non-group field.
func groupAndAggregate(t *table.Table, groupFields []string, specs []AggregateSpec) (*table.Table, error) {
	// The day pseudo-field is derived from the table's timestamp field
	// unless the rows actually carry a day field.
	dayDerived := false
	tsField := ""
	for _, f := range groupFields {
		if f == DayField && !schemaHas(t, DayField) {
			field, err := resolveTimestampField(t)
			if err != nil {
				return nil, err
			}
			dayDerived, tsField = true, field
			break
		}
	}

	keyValue := func(r table.Row, field string) table.Value {
		if dayDerived && field == DayField {
			v := r.Get(tsField)
			if ts, ok := parseTimestamp(v); ok {
				return table.String(ts.Format("2006-01-02"))
			}
			return table.Null()
		}
		return r.Get(field)
	}

	// Partition in first-seen key order.
	var order []string
	parts := make(map[string]*partition)
	for r := range t.Scan() {
		values := make([]table.Value, len(groupFields))
		for i, f := range groupFields {
			values[i] = keyValue(r, f)
		}
		key := encodeKey(values)
		p, ok := parts[key]
		if !ok {
			p = &partition{values: values}
			parts[key] = p
			order = append(order, key)
		}
		p.rows = append(p.rows, r)
	}

	// A bare aggregate query aggregates even an empty table: one
	// partition, COUNT = 0.
	if len(groupFields) == 0 && len(order) == 0 {
		key := encodeKey(nil)
		parts[key] = &partition{}
		order = append(order, key)
	}

	if len(specs) == 0 {
		specs = defaultAggregates(t, groupFields)
	}

	rows := make([]table.Row, 0, len(order))
	for _, key := range order {
		p := parts[key]
		out := table.NewRow()
		for i, f := range groupFields {
			out = out.Set(f, p.values[i])
		}
		for _, spec := range specs {
			v, err := computeAggregate(spec, p.rows)
			if err != nil {
				return nil, err
			}
			out = out.Set(spec.OutName(), v)
		}
		rows = append(rows, out)
	}

	return table.New(t.Name(), rows), nil
}

// encodeKey builds a collision-safe string key from a value tuple.
// Each element is written as kind, payload length and payload, so the
// encoding stays injective for payloads containing any byte, and the
// kind keeps Int(1), Float(1) and String("1") distinct.
func encodeKey(values []table.Value) string {
	var b strings.Builder
	for _, v := range values {
		s := v.String()
		b.WriteByte(byte('0' + v.Kind()))
		b.WriteString(strconv.Itoa(len(s)))
		b.WriteByte(':')
		b.WriteString(s)
	}
	return b.String()
}

// defaultAggregates derives the implicit aggregate set used when a
// grouping stage has no explicit specs: COUNT plus SUM/MIN/MAX/AVG for
// every non-group field whose non-Null values are all numeric.
func defaultAggregates(t *table.Table, groupFields []string) []AggregateSpec {
	grouped := make(map[string]bool, len(groupFields))
	for _, f := range groupFields {
		grouped[f] = true
	}

	specs := []AggregateSpec{Count()}
	for _, field := range t.Schema() {
		if grouped[field] {
			continue
		}
		nonNull := 0
		numeric := true
		for r := range t.Scan() {
			v := r.Get(field)
			if v.IsNull() {
				continue
			}
			nonNull++
			if !v.IsNumeric() {
				numeric = false
				break
			}
		}
		if nonNull == 0 || !numeric {
			continue
		}
		specs = append(specs,
			Sum(field), Min(field), Max(field), Avg(field))
	}
	return specs
}

// computeAggregate evaluates one aggregate over a partition's rows.
// Null values are skipped; any other non-numeric value under SUM/AVG,
// or a mixed-tag field under MIN/MAX, is a TypeError. An empty input
// set yields Null (COUNT yields 0).
func computeAggregate(spec AggregateSpec, rows []table.Row) (table.Value, error) {
	if spec.Func == AggCount {
		if spec.Field == "*" {
			return table.Int(int64(len(rows))), nil
		}
		n := int64(0)
		for _, r := range rows {
			if !r.Get(spec.Field).IsNull() {
				n++
			}
		}
		return table.Int(n), nil
	}

	switch spec.Func {
	case AggSum, AggAvg:
		sum := 0.0
		sumInt := int64(0)
		allInt := true
		n := 0
		for _, r := range rows {
			v := r.Get(spec.Field)
			if v.IsNull() {
				continue
			}
			if !v.IsNumeric() {
				return table.Null(), typeErrorf("%s(%s): non-numeric %s value",
					spec.Func, spec.Field, v.Kind())
			}
			if v.Kind() == table.KindInt {
				sumInt += v.Int()
			} else {
				allInt = false
			}
			sum += v.Float()
			n++
		}
		if n == 0 {
			return table.Null(), nil
		}
		if spec.Func == AggAvg {
			return table.Float(sum / float64(n)), nil
		}
		if allInt {
			return table.Int(sumInt), nil
		}
		return table.Float(sum), nil

	case AggMin, AggMax:
		var cur table.Value
		found := false
		for _, r := range rows {
			v := r.Get(spec.Field)
			if v.IsNull() {
				continue
			}
			if !found {
				cur, found = v, true
				continue
			}
			cmp, err := table.Compare(v, cur)
			if err != nil {
				return table.Null(), typeErrorf("%s(%s): %v", spec.Func, spec.Field, err)
			}
			if (spec.Func == AggMin && cmp < 0) || (spec.Func == AggMax && cmp > 0) {
				cur = v
			}
		}
		if !found {
			return table.Null(), nil
		}
		return cur, nil

	default:
		return table.Null(), schemaErrorf("unknown aggregate function %v", spec.Func)
	}
}

// applyHaving filters aggregated rows. Every field the predicate
// references must have been produced by the grouping stage; anything
// else is a SchemaError, never a silent Null comparison.
func applyHaving(t *table.Table, having Predicate) (*table.Table, error) {
	produced := make(map[string]bool)
	for _, f := range t.Schema() {
		produced[f] = true
	}

	referenced := make(map[string]bool)
	predicateFields(having, referenced)
	for f := range referenced {
		if !produced[f] {
			return nil, schemaErrorf("HAVING references %q, which the grouping stage did not produce", f)
		}
	}

	return applyFilter(t, having)
}

func schemaHas(t *table.Table, field string) bool {
	for _, f := range t.Schema() {
		if f == field {
			return true
		}
	}
	return false
}
