package query

import "github.com/metaq/metaq/table"

// join performs an inner equality join of two tables on a shared key.
// For each left row, every right row whose key value is equal (by
// Value equality) is paired. Merged rows keep the left fields in order
// followed by the right fields; the key is kept once from the left, and
// right fields colliding with left field names are suffixed with the
// right table's name. Rows without a match on either side are dropped;
// there is no outer join mode.
//
// A key field absent from one side yields no pairs for that row, so a
// completely absent key field in one table produces an empty result,
// not an error.
func join(left, right *table.Table, key string) (*table.Table, error) {
	suffix := right.Name()
	if suffix == "" {
		suffix = "right"
	}

	var rows []table.Row
	for l := range left.Scan() {
		lv := l.Get(key)
		for r := range right.Scan() {
			if !r.Has(key) || !l.Has(key) {
				continue
			}
			if !lv.Equal(r.Get(key)) {
				continue
			}
			rows = append(rows, mergeRows(l, r, key, suffix))
		}
	}

	return table.New(left.Name(), rows), nil
}

// multiJoin folds join left-to-right over the given tables.
func multiJoin(base *table.Table, others []*table.Table, key string) (*table.Table, error) {
	cur := base
	var err error
	for _, t := range others {
		cur, err = join(cur, t, key)
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}

// mergeRows combines a left and right row. The left row's fields come
// first, so the output carries the left row's iid.
func mergeRows(left, right table.Row, key, suffix string) table.Row {
	out := left
	for _, f := range right.Fields() {
		if f == key {
			continue
		}
		name := f
		for out.Has(name) {
			name = name + "_" + suffix
		}
		out = out.Set(name, right.Get(f))
	}
	return out
}
