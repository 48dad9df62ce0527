package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestData(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	write := func(folder, content string) {
		dir := filepath.Join(root, folder)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "metadata.json"), []byte(content), 0o644))
	}
	write("runA", `{"execution_info": {"status": "FAILED", "duration_sec": 400}}`)
	write("runB", `{"execution_info": {"status": "SUCCESS", "duration_sec": 200}}`)
	return root
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestTablesCommand(t *testing.T) {
	data := writeTestData(t)

	out, err := runCommand(t, "--data", data, "tables")
	require.NoError(t, err)

	assert.Contains(t, out, "execution_info (2 rows)")
	assert.Contains(t, out, "iid, status, duration_sec")
}

func TestQueryCommand_Grid(t *testing.T) {
	data := writeTestData(t)

	out, err := runCommand(t, "--data", data, "query",
		"SELECT iid FROM execution_info WHERE duration_sec > 300")
	require.NoError(t, err)

	assert.Contains(t, out, "runA")
	assert.NotContains(t, out, "runB")
}

func TestQueryCommand_JSONFormat(t *testing.T) {
	data := writeTestData(t)

	out, err := runCommand(t, "--data", data, "--format", "json", "query",
		"SELECT iid, status FROM execution_info ORDER BY iid")
	require.NoError(t, err)

	assert.Contains(t, out, `{"iid":"runA","status":"FAILED"}`)
	assert.Contains(t, out, `{"iid":"runB","status":"SUCCESS"}`)
}

func TestQueryCommand_BadSQL(t *testing.T) {
	data := writeTestData(t)

	_, err := runCommand(t, "--data", data, "query", "SELECT FROM")
	require.Error(t, err)
}

func TestRootCommand_RejectsUnknownFormat(t *testing.T) {
	data := writeTestData(t)

	_, err := runCommand(t, "--data", data, "--format", "xml", "tables")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "metaq.yaml"), false)
	require.NoError(t, err)

	assert.Equal(t, "raw_dat", cfg.Data)
	assert.Equal(t, "metadata.json", cfg.MetadataFile)
	assert.Equal(t, "grid", cfg.Format)
}

func TestLoadConfig_ExplicitMissingFileFails(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), true)
	require.Error(t, err)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metaq.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data: /srv/meta\nformat: csv\n"), 0o644))

	cfg, err := LoadConfig(path, true)
	require.NoError(t, err)

	assert.Equal(t, "/srv/meta", cfg.Data)
	assert.Equal(t, "csv", cfg.Format)
	assert.Equal(t, "metadata.json", cfg.MetadataFile)
}

func TestConfigFileFlagIsOverriddenByFlags(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "metaq.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("data: /nowhere\n"), 0o644))

	data := writeTestData(t)
	out, err := runCommand(t, "--config", cfgPath, "--data", data, "tables")
	require.NoError(t, err)
	assert.Contains(t, out, "execution_info")
}
