package query

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metaq/metaq/table"
)

func testDB() *table.Database {
	db := table.NewDatabase()
	db.Put(table.New("execution_info", []table.Row{
		table.NewRow().Set("iid", table.String("A1")).Set("status", table.String("FAILED")).Set("duration_sec", table.Int(400)),
		table.NewRow().Set("iid", table.String("A2")).Set("status", table.String("SUCCESS")).Set("duration_sec", table.Int(200)),
		table.NewRow().Set("iid", table.String("A3")).Set("status", table.String("SUCCESS")).Set("duration_sec", table.Int(600)),
	}))
	db.Put(table.New("stats", []table.Row{
		table.NewRow().Set("iid", table.String("A1")).Set("rows_in", table.Int(10)),
		table.NewRow().Set("iid", table.String("A2")).Set("rows_in", table.Int(20)),
		table.NewRow().Set("iid", table.String("A3")).Set("rows_in", table.Int(30)),
	}))
	return db
}

func TestExec_SelectStar(t *testing.T) {
	db := testDB()
	got, err := Exec(db, "SELECT * FROM execution_info")
	require.NoError(t, err)

	src, _ := db.Get("execution_info")
	assert.Equal(t, src.All(), got.All())
}

func TestExec_WhereFilters(t *testing.T) {
	got, err := Exec(testDB(), "SELECT iid FROM execution_info WHERE status = 'FAILED' AND duration_sec > 300")
	require.NoError(t, err)

	assert.Equal(t, []map[string]any{{"iid": "A1"}}, got.All())
}

func TestExec_NonASCIIStringLiteral(t *testing.T) {
	db := table.NewDatabase()
	db.Put(table.New("places", []table.Row{
		table.NewRow().Set("iid", table.String("P1")).Set("name", table.String("café")),
		table.NewRow().Set("iid", table.String("P2")).Set("name", table.String("bar")),
	}))

	got, err := Exec(db, "SELECT iid FROM places WHERE name = 'café'")
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"iid": "P1"}}, got.All())
}

func TestExec_BooleanPrecedence(t *testing.T) {
	// NOT binds tighter than AND, AND tighter than OR.
	got, err := Exec(testDB(),
		"SELECT iid FROM execution_info WHERE status = 'FAILED' OR status = 'SUCCESS' AND duration_sec > 300")
	require.NoError(t, err)
	assert.Len(t, got.All(), 2) // A1 (failed), A3 (success and slow)

	got, err = Exec(testDB(),
		"SELECT iid FROM execution_info WHERE NOT status = 'SUCCESS' OR duration_sec = 200")
	require.NoError(t, err)
	assert.Len(t, got.All(), 2) // A1, A2
}

func TestExec_ParenthesesOverridePrecedence(t *testing.T) {
	got, err := Exec(testDB(),
		"SELECT iid FROM execution_info WHERE (status = 'FAILED' OR status = 'SUCCESS') AND duration_sec > 300")
	require.NoError(t, err)
	assert.Len(t, got.All(), 2) // A1, A3
}

func TestExec_JoinUsing(t *testing.T) {
	got, err := Exec(testDB(), "SELECT * FROM execution_info JOIN stats USING(iid)")
	require.NoError(t, err)

	rows := got.All()
	require.Len(t, rows, 3)
	assert.Contains(t, rows[0], "status")
	assert.Contains(t, rows[0], "rows_in")
}

func TestExec_TableAndColumnAliases(t *testing.T) {
	got, err := Exec(testDB(),
		"SELECT e.iid AS run, e.duration_sec FROM execution_info AS e WHERE e.status = 'SUCCESS'")
	require.NoError(t, err)

	rows := got.All()
	require.Len(t, rows, 2)
	assert.Equal(t, map[string]any{"run": "A2", "duration_sec": int64(200)}, rows[0])
}

func TestExec_UnknownAliasIsParseError(t *testing.T) {
	_, err := Exec(testDB(), "SELECT x.iid FROM execution_info AS e")
	require.Error(t, err)
	assert.True(t, IsParseError(err))
}

func TestExec_GroupByWithAggregates(t *testing.T) {
	got, err := Exec(testDB(),
		"SELECT status, COUNT(*), SUM(duration_sec) AS total FROM execution_info GROUP BY status")
	require.NoError(t, err)

	assert.Equal(t, []map[string]any{
		{"status": "FAILED", "COUNT": int64(1), "total": int64(400)},
		{"status": "SUCCESS", "COUNT": int64(2), "total": int64(800)},
	}, got.All())
}

func TestExec_GroupedColumnByNamingConvention(t *testing.T) {
	got, err := Exec(testDB(),
		"SELECT status, SUM_duration_sec FROM execution_info GROUP BY status")
	require.NoError(t, err)

	assert.Equal(t, []map[string]any{
		{"status": "FAILED", "SUM_duration_sec": int64(400)},
		{"status": "SUCCESS", "SUM_duration_sec": int64(800)},
	}, got.All())
}

func TestExec_UngroupedColumnIsSchemaError(t *testing.T) {
	_, err := Exec(testDB(), "SELECT iid FROM execution_info GROUP BY status")
	require.Error(t, err)
	assert.True(t, IsSchemaError(err))
}

func TestExec_Having(t *testing.T) {
	got, err := Exec(testDB(),
		"SELECT status, COUNT(*) FROM execution_info GROUP BY status HAVING COUNT > 1")
	require.NoError(t, err)

	assert.Equal(t, []map[string]any{
		{"status": "SUCCESS", "COUNT": int64(2)},
	}, got.All())
}

func TestExec_HavingWithoutGroupByIsSchemaError(t *testing.T) {
	_, err := Exec(testDB(), "SELECT * FROM execution_info HAVING COUNT > 1")
	require.Error(t, err)
	assert.True(t, IsSchemaError(err))
}

func TestExec_OrderByAndLimit(t *testing.T) {
	got, err := Exec(testDB(),
		"SELECT iid, duration_sec FROM execution_info ORDER BY duration_sec DESC LIMIT 1")
	require.NoError(t, err)

	assert.Equal(t, []map[string]any{
		{"iid": "A3", "duration_sec": int64(600)},
	}, got.All())
}

func TestExec_UnknownTableIsSchemaError(t *testing.T) {
	_, err := Exec(testDB(), "SELECT * FROM nope")
	require.Error(t, err)
	assert.True(t, IsSchemaError(err))
}

func TestCompile_ParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"missing FROM", "SELECT iid"},
		{"missing select list", "SELECT FROM t"},
		{"unterminated string", "SELECT * FROM execution_info WHERE status = 'FAIL"},
		{"unbalanced parens", "SELECT * FROM execution_info WHERE (status = 'FAILED'"},
		{"trailing garbage", "SELECT * FROM execution_info LIMIT 1 extra"},
		{"negative limit", "SELECT * FROM execution_info LIMIT -1"},
		{"missing operator", "SELECT * FROM execution_info WHERE status 'FAILED'"},
		{"bad token", "SELECT * FROM execution_info WHERE status = $"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(testDB(), tt.query)
			require.Error(t, err)
			assert.True(t, IsParseError(err), "want ParseError, got %v", err)
		})
	}
}

func TestCompile_ParseErrorCarriesPosition(t *testing.T) {
	_, err := Compile(testDB(), "SELECT * FROM execution_info LIMIT 1 extra")
	require.Error(t, err)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "extra", pe.Near)
	assert.Equal(t, 37, pe.Pos)
}

func TestCompile_BuildsPlanWithoutExecuting(t *testing.T) {
	db := testDB()
	q, err := Compile(db, "SELECT iid FROM execution_info WHERE duration_sec > 300")
	require.NoError(t, err)

	// Same plan, two executions, same result.
	first, err := q.All()
	require.NoError(t, err)
	second, err := q.All()
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, first, 2)
}
