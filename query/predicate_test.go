package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metaq/metaq/table"
)

func evalRow() table.Row {
	return table.NewRow().
		Set("iid", table.String("A1")).
		Set("status", table.String("FAILED")).
		Set("duration_sec", table.Int(400)).
		Set("ratio", table.Float(0.5))
}

func TestComparison_Eval(t *testing.T) {
	tests := []struct {
		name string
		pred Comparison
		want bool
	}{
		{"string equal", Comparison{"status", OpEq, table.String("FAILED")}, true},
		{"string not equal", Comparison{"status", OpNe, table.String("SUCCESS")}, true},
		{"int greater", Comparison{"duration_sec", OpGt, table.Int(300)}, true},
		{"int less false", Comparison{"duration_sec", OpLt, table.Int(300)}, false},
		{"int vs float promotion", Comparison{"duration_sec", OpGe, table.Float(400.0)}, true},
		{"float less", Comparison{"ratio", OpLe, table.Int(1)}, true},
		{"cross kind equality is false", Comparison{"status", OpEq, table.Int(1)}, false},
		{"cross kind inequality is true", Comparison{"status", OpNe, table.Int(1)}, true},
		{"absent field equals null", Comparison{"missing", OpEq, table.Null()}, true},
		{"absent field never orders", Comparison{"missing", OpGt, table.Int(0)}, false},
		{"null literal never orders", Comparison{"duration_sec", OpGt, table.Null()}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.pred.Eval(evalRow())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComparison_Contains(t *testing.T) {
	tests := []struct {
		name string
		pred Comparison
		want bool
	}{
		{"substring match", Comparison{"status", OpContains, table.String("AIL")}, true},
		{"case insensitive", Comparison{"status", OpContains, table.String("fail")}, true},
		{"no match", Comparison{"status", OpContains, table.String("success")}, false},
		{"non-string field is false", Comparison{"duration_sec", OpContains, table.String("4")}, false},
		{"non-string literal is false", Comparison{"status", OpContains, table.Int(1)}, false},
		{"absent field is false", Comparison{"missing", OpContains, table.String("x")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.pred.Eval(evalRow())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCond_Contains(t *testing.T) {
	p, err := C("status", "contains", "fail").predicate()
	require.NoError(t, err)
	got, err := p.Eval(evalRow())
	require.NoError(t, err)
	assert.True(t, got)
}

func TestComparison_OrderingAcrossKindsIsTypeError(t *testing.T) {
	pred := Comparison{"status", OpGt, table.Int(3)}
	_, err := pred.Eval(evalRow())
	require.Error(t, err)
	assert.True(t, IsTypeError(err))
}

func TestBooleanCombinators(t *testing.T) {
	failed := Comparison{"status", OpEq, table.String("FAILED")}
	slow := Comparison{"duration_sec", OpGt, table.Int(300)}
	fast := Comparison{"duration_sec", OpLt, table.Int(300)}

	tests := []struct {
		name string
		pred Predicate
		want bool
	}{
		{"and both true", And{failed, slow}, true},
		{"and one false", And{failed, fast}, false},
		{"or one true", Or{fast, slow}, true},
		{"or both false", Or{fast, Not{failed}}, false},
		{"not", Not{fast}, true},
		{"double not", Not{Not{slow}}, true},
		{"group is transparent", Group{And{failed, slow}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.pred.Eval(evalRow())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAnd_ShortCircuits(t *testing.T) {
	// The right side would be a TypeError, but the left side already
	// failed the row.
	pred := And{
		Comparison{"status", OpEq, table.String("SUCCESS")},
		Comparison{"status", OpGt, table.Int(3)},
	}
	got, err := pred.Eval(evalRow())
	require.NoError(t, err)
	assert.False(t, got)
}

func TestCond_Predicate(t *testing.T) {
	p, err := C("duration_sec", ">", 300).predicate()
	require.NoError(t, err)
	got, err := p.Eval(evalRow())
	require.NoError(t, err)
	assert.True(t, got)
}

func TestCond_InvalidOperator(t *testing.T) {
	_, err := C("x", "~", 1).predicate()
	require.Error(t, err)
}

func TestConjoin(t *testing.T) {
	assert.Nil(t, conjoin(nil))

	p := conjoin([]Predicate{
		Comparison{"status", OpEq, table.String("FAILED")},
		Comparison{"duration_sec", OpGt, table.Int(300)},
	})
	got, err := p.Eval(evalRow())
	require.NoError(t, err)
	assert.True(t, got)
}
