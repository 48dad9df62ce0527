package table

// IIDField is the identity field present on every loaded row. It names
// the source record, typically the originating folder.
const IIDField = "iid"

// Row is an ordered mapping from field name to Value. Rows are
// schema-less: two rows in the same table may carry different fields,
// and reading an absent field yields Null.
type Row struct {
	fields []string
	values map[string]Value
}

// NewRow returns an empty row.
func NewRow() Row {
	return Row{values: make(map[string]Value)}
}

// Set returns a new row with the field assigned, preserving first-set
// order; the receiver is unchanged. Setting an existing field replaces
// its value. Two rows can branch off one base safely.
func (r Row) Set(field string, v Value) Row {
	out := Row{
		fields: make([]string, len(r.fields), len(r.fields)+1),
		values: make(map[string]Value, len(r.values)+1),
	}
	copy(out.fields, r.fields)
	for k, val := range r.values {
		out.values[k] = val
	}
	if _, ok := out.values[field]; !ok {
		out.fields = append(out.fields, field)
	}
	out.values[field] = v
	return out
}

// Get returns the field's value, or Null if the field is absent.
func (r Row) Get(field string) Value {
	if v, ok := r.values[field]; ok {
		return v
	}
	return Null()
}

// Has reports whether the field is present.
func (r Row) Has(field string) bool {
	_, ok := r.values[field]
	return ok
}

// IID returns the row's identity value as a string.
func (r Row) IID() string {
	return r.Get(IIDField).Str()
}

// Fields returns the field names in insertion order. The returned
// slice must not be modified.
func (r Row) Fields() []string { return r.fields }

// Len returns the number of fields.
func (r Row) Len() int { return len(r.fields) }

// Clone returns an independent copy of the row.
func (r Row) Clone() Row {
	out := Row{
		fields: make([]string, len(r.fields)),
		values: make(map[string]Value, len(r.values)),
	}
	copy(out.fields, r.fields)
	for k, v := range r.values {
		out.values[k] = v
	}
	return out
}

// Map returns the row as a field-name-to-native-value mapping, the
// shape returned by All(). Null values map to nil.
func (r Row) Map() map[string]any {
	out := make(map[string]any, len(r.fields))
	for _, f := range r.fields {
		out[f] = r.values[f].Go()
	}
	return out
}
