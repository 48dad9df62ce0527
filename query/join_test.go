package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metaq/metaq/table"
)

func execTable() *table.Table {
	return table.New("execution_info", []table.Row{
		table.NewRow().Set("iid", table.String("A1")).Set("status", table.String("FAILED")),
		table.NewRow().Set("iid", table.String("A2")).Set("status", table.String("SUCCESS")),
		table.NewRow().Set("iid", table.String("A3")).Set("status", table.String("SUCCESS")),
	})
}

func statsTable() *table.Table {
	return table.New("stats", []table.Row{
		table.NewRow().Set("iid", table.String("A1")).Set("rows_in", table.Int(10)),
		table.NewRow().Set("iid", table.String("A2")).Set("rows_in", table.Int(20)),
		table.NewRow().Set("iid", table.String("A3")).Set("rows_in", table.Int(30)),
	})
}

func TestJoin_MatchingRows(t *testing.T) {
	got, err := join(execTable(), statsTable(), "iid")
	require.NoError(t, err)
	require.Equal(t, 3, got.Len())

	// Fields from both sides, the key kept once from the left.
	assert.Equal(t, []string{"iid", "status", "rows_in"}, got.Schema())
	assert.Equal(t, "A1", got.Row(0).IID())
	assert.Equal(t, table.Int(10), got.Row(0).Get("rows_in"))
}

func TestJoin_DropsUnmatchedRows(t *testing.T) {
	right := table.New("stats", []table.Row{
		table.NewRow().Set("iid", table.String("A2")).Set("rows_in", table.Int(20)),
	})

	got, err := join(execTable(), right, "iid")
	require.NoError(t, err)
	require.Equal(t, 1, got.Len())
	assert.Equal(t, "A2", got.Row(0).IID())
}

func TestJoin_AbsentKeyYieldsEmptyResult(t *testing.T) {
	right := table.New("stats", []table.Row{
		table.NewRow().Set("run", table.String("A1")),
	})

	got, err := join(execTable(), right, "iid")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
}

func TestJoin_CollidingFieldsGetSuffixed(t *testing.T) {
	right := table.New("stats", []table.Row{
		table.NewRow().Set("iid", table.String("A1")).Set("status", table.String("ARCHIVED")),
	})

	got, err := join(execTable(), right, "iid")
	require.NoError(t, err)
	require.Equal(t, 1, got.Len())

	assert.Equal(t, table.String("FAILED"), got.Row(0).Get("status"))
	assert.Equal(t, table.String("ARCHIVED"), got.Row(0).Get("status_stats"))
}

func TestJoin_OneToMany(t *testing.T) {
	right := table.New("stats", []table.Row{
		table.NewRow().Set("iid", table.String("A1")).Set("rows_in", table.Int(10)),
		table.NewRow().Set("iid", table.String("A1")).Set("rows_in", table.Int(11)),
	})

	got, err := join(execTable(), right, "iid")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Len())
}

func TestMultiJoin_EqualsNestedJoins(t *testing.T) {
	timing := table.New("timing", []table.Row{
		table.NewRow().Set("iid", table.String("A1")).Set("elapsed", table.Int(5)),
		table.NewRow().Set("iid", table.String("A2")).Set("elapsed", table.Int(6)),
		table.NewRow().Set("iid", table.String("A3")).Set("elapsed", table.Int(7)),
	})

	multi, err := multiJoin(execTable(), []*table.Table{statsTable(), timing}, "iid")
	require.NoError(t, err)

	step, err := join(execTable(), statsTable(), "iid")
	require.NoError(t, err)
	nested, err := join(step, timing, "iid")
	require.NoError(t, err)

	assert.Equal(t, nested.All(), multi.All())
}
