package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempIni(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "layout.ini")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSQLInsertCommand(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "5,Bob\n")
	got := runCommand(t, "sql_insert", "-t", "customers", "-f", "1:id,2:name", in)
	assert.Equal(t, "INSERT INTO customers ( id, name ) VALUES( '5', 'Bob')\n;\n", got)
}

func TestSQLInsertCommandCustomStatementSeparator(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "5,Bob\n")
	got := runCommand(t, "sql_insert", "-t", "customers", "-f", "1:id,2:name", "-ssep", "|", in)
	assert.Equal(t, "INSERT INTO customers ( id, name ) VALUES( '5', 'Bob')|", got)
}

func TestSQLInsertCommandFromIniFormat(t *testing.T) {
	ini := writeTempIni(t, "[customers]\n1 = id\n2 = name\n")
	in := writeTempCSV(t, "in.csv", "5,Bob\n")
	got := runCommand(t, "sql_insert", "-t", "customers", "-iniformat", ini, "-inisection", "customers", in)
	assert.Equal(t, "INSERT INTO customers ( id, name ) VALUES( '5', 'Bob')\n;\n", got)
}

func TestSQLDeleteCommand(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "5\n")
	got := runCommand(t, "sql_delete", "-t", "customers", "-w", "1:id", in)
	assert.Equal(t, "DELETE FROM customers WHERE id = '5'\n;\n", got)
}

func TestRootCommandBuildsWithoutPanicking(t *testing.T) {
	assert.NotPanics(t, func() {
		root := NewRoot()
		assert.NotNil(t, root)
	})
}
