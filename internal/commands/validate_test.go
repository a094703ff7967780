package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempRules(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestValidateCommandPassMode(t *testing.T) {
	rules := writeTempRules(t, "not_empty 1\nrange 2 0 100\n")
	in := writeTempCSV(t, "in.csv", "name,age\nAlice,30\nBob,\n")
	got := runCommand(t, "validate", "-ifn", "-vf", rules, "-om", "pass", in)
	assert.Equal(t, "Alice,30\n", got)
}

func TestValidateCommandFailMode(t *testing.T) {
	rules := writeTempRules(t, "not_empty 1\nrange 2 0 100\n")
	in := writeTempCSV(t, "in.csv", "name,age\nAlice,30\nBob,\n")
	got := runCommand(t, "validate", "-ifn", "-vf", rules, "-om", "fail", in)
	assert.Equal(t, "Bob,\n", got)
}

func TestValidateCommandReportMode(t *testing.T) {
	rules := writeTempRules(t, "not_empty 1\nrange 2 0 100\n")
	in := writeTempCSV(t, "in.csv", "name,age\nAlice,30\nBob,\n")
	got := runCommand(t, "validate", "-ifn", "-vf", rules, in)
	assert.Contains(t, got, "field: 2 - value must be between")
}

func TestValidateCommandRequiresRulesFile(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "a\n1\n")
	dir := t.TempDir()
	out := filepath.Join(dir, "out.csv")
	root := NewRoot()
	root.SetArgs(NormalizeArgs([]string{"validate", in, "-o", out}))
	root.SetOut(new(nopWriter))
	root.SetErr(new(nopWriter))
	assert.Error(t, root.Execute())
}

func TestValidateCommandUnknownRule(t *testing.T) {
	rules := writeTempRules(t, "no_such_rule 1\n")
	in := writeTempCSV(t, "in.csv", "a\n1\n")
	dir := t.TempDir()
	out := filepath.Join(dir, "out.csv")
	root := NewRoot()
	root.SetArgs(NormalizeArgs([]string{"validate", "-vf", rules, in, "-o", out}))
	root.SetOut(new(nopWriter))
	root.SetErr(new(nopWriter))
	assert.Error(t, root.Execute())
}
