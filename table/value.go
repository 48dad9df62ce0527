package table

import (
	"fmt"
	"strconv"
)

// Kind identifies the tag of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
)

// String returns the kind name for error messages.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a tagged scalar: Null, Bool, Int, Float or String.
// The zero Value is Null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int wraps an integer.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float wraps a float.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Kind returns the value's tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is Null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsNumeric reports whether the value is Int or Float.
func (v Value) IsNumeric() bool { return v.kind == KindInt || v.kind == KindFloat }

// Bool returns the wrapped boolean (false unless KindBool).
func (v Value) Bool() bool { return v.b }

// Int returns the wrapped integer (0 unless KindInt).
func (v Value) Int() int64 { return v.i }

// Float returns the numeric value as a float64. Ints are promoted.
func (v Value) Float() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.f
}

// Str returns the wrapped string ("" unless KindString).
func (v Value) Str() string { return v.s }

// Go unwraps the value into its native Go representation.
// Null becomes nil.
func (v Value) Go() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	default:
		return nil
	}
}

// FromGo wraps a native Go scalar into a Value. Integer and float
// widths are normalized; nil becomes Null. Non-scalar types are
// rejected.
func FromGo(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(int64(val)), nil
	case int8:
		return Int(int64(val)), nil
	case int16:
		return Int(int64(val)), nil
	case int32:
		return Int(int64(val)), nil
	case int64:
		return Int(val), nil
	case uint:
		return Int(int64(val)), nil
	case uint8:
		return Int(int64(val)), nil
	case uint16:
		return Int(int64(val)), nil
	case uint32:
		return Int(int64(val)), nil
	case uint64:
		return Int(int64(val)), nil
	case float32:
		return Float(float64(val)), nil
	case float64:
		return Float(val), nil
	case string:
		return String(val), nil
	default:
		return Null(), fmt.Errorf("unsupported value type %T", v)
	}
}

// String renders the value in its canonical text form. Null renders as
// the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	default:
		return ""
	}
}

// Equal reports value equality. Int and Float compare numerically;
// every other cross-kind pair is unequal. Null equals Null. Equality
// never fails.
func (v Value) Equal(o Value) bool {
	if v.IsNumeric() && o.IsNumeric() {
		if v.kind == KindInt && o.kind == KindInt {
			return v.i == o.i
		}
		return v.Float() == o.Float()
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindString:
		return v.s == o.s
	default:
		return false
	}
}

// Compare orders two values, returning -1, 0 or +1. Int and Float
// compare numerically; any other cross-kind pair (and Bool, which has
// no ordering) is an error.
func Compare(a, b Value) (int, error) {
	if a.IsNumeric() && b.IsNumeric() {
		if a.kind == KindInt && b.kind == KindInt {
			return compareOrdered(a.i, b.i), nil
		}
		return compareOrdered(a.Float(), b.Float()), nil
	}
	if a.kind != b.kind {
		return 0, fmt.Errorf("cannot order %s against %s", a.kind, b.kind)
	}
	switch a.kind {
	case KindString:
		return compareOrdered(a.s, b.s), nil
	case KindNull:
		return 0, nil
	default:
		return 0, fmt.Errorf("%s values have no ordering", a.kind)
	}
}

func compareOrdered[T int64 | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
