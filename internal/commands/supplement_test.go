package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCommand executes the named sub-command against a freshly built
// root, writing its output to a temp file and returning that file's
// contents. Mirrors how a real invocation is driven: NewRoot(), argv,
// Execute().
func runCommand(t *testing.T, args ...string) string {
	t.Helper()
	dir := t.TempDir()
	out := filepath.Join(dir, "out.csv")
	root := NewRoot()
	root.SetArgs(NormalizeArgs(append(args, "-o", out)))
	root.SetOut(new(nopWriter))
	root.SetErr(new(nopWriter))
	err := root.Execute()
	require.NoError(t, err)
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	return string(b)
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func writeTempCSV(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExcludeCommand(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "a,b,c\n1,2,3\n")
	got := runCommand(t, "exclude", "-f", "2", in)
	assert.Equal(t, "a,c\n1,3\n", got)
}

func TestExcludeCommandReverseFields(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "a,b,c\n1,2,3\n")
	got := runCommand(t, "exclude", "-rf", "1", in)
	assert.Equal(t, "a,b\n1,2\n", got)
}

func TestExcludeCommandRequiresFieldSpec(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "a,b\n1,2\n")
	dir := t.TempDir()
	out := filepath.Join(dir, "out.csv")
	root := NewRoot()
	root.SetArgs(NormalizeArgs([]string{"exclude", in, "-o", out}))
	root.SetOut(new(nopWriter))
	root.SetErr(new(nopWriter))
	assert.Error(t, root.Execute())
}

func TestMapCommand(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "name,status\nalice,A\nbob,B\ncarol,C\n")
	got := runCommand(t, "map", "-ifn", "-f", "2", "-fv", "A,B", "-tv", "Active,Blocked", in)
	assert.Equal(t, "alice,Active\nbob,Blocked\ncarol,C\n", got)
}

func TestMapCommandShorterToListUsesLastEntry(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "v\nA\nB\nZ\n")
	got := runCommand(t, "map", "-ifn", "-fv", "A,B", "-tv", "X", in)
	assert.Equal(t, "X\nX\nZ\n", got)
}

func TestMergeCommand(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "first,last,age\nJohn,Doe,30\n")
	got := runCommand(t, "merge", "-ifn", "-f", "1,2", "-s", " ", in)
	assert.Equal(t, "John Doe,30\n", got)
}

func TestMergeCommandKeepsOriginals(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "first,last\nJohn,Doe\n")
	got := runCommand(t, "merge", "-ifn", "-f", "1,2", "-k", in)
	assert.Equal(t, "John Doe,John,Doe\n", got)
}

func TestSquashCommandDistinctValues(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "dept,name\nsales,alice\nsales,bob\nsales,alice\neng,carol\n")
	got := runCommand(t, "squash", "-ifn", "-k", "1", in)
	assert.Equal(t, "sales,alice|bob\neng,carol\n", got)
}

func TestSquashCommandNumericSum(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "dept,amount\nsales,10\nsales,5\neng,2\n")
	got := runCommand(t, "squash", "-ifn", "-k", "1", "-n", in)
	assert.Equal(t, "sales,15\neng,2\n", got)
}

func TestUniqueCommandDefaultWholeRow(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "a,b\n1,2\n1,2\n3,4\n")
	got := runCommand(t, "unique", "-ifn", in)
	assert.Equal(t, "1,2\n3,4\n", got)
}

func TestUniqueCommandShowDuplicates(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "a,b\n1,2\n1,2\n3,4\n")
	got := runCommand(t, "unique", "-ifn", "-f", "1", "-d", in)
	assert.Equal(t, "1,2\n1,2\n", got)
}

func TestNumberCommandEN(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "amount\n\"1,234.50\"\n")
	got := runCommand(t, "number", "-f", "1", in)
	assert.Equal(t, "amount\n1234.50\n", got)
}

func TestNumberCommandEU(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "amount\n\"1.234,50\"\n")
	got := runCommand(t, "number", "-f", "1", "-fmt", "EU", in)
	assert.Equal(t, "amount\n1234.50\n", got)
}

func TestNumberCommandErrorReplacement(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "amount\nnotanumber\n")
	got := runCommand(t, "number", "-ifn", "-f", "1", "-es", "NA", in)
	assert.Equal(t, "NA\n", got)
}

func TestSplitFixedCommand(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "code\nAB1234\n")
	got := runCommand(t, "split_fixed", "-ifn", "-f", "1", "-p", "1:2,3:4", in)
	assert.Equal(t, "AB,1234\n", got)
}

func TestSplitFixedCommandKeepsOriginal(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "code\nAB1234\n")
	got := runCommand(t, "split_fixed", "-ifn", "-f", "1", "-p", "1:2,3:4", "-k", in)
	assert.Equal(t, "AB,1234,AB1234\n", got)
}

func TestSplitCharCommand(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "name\nJohn Doe\n")
	got := runCommand(t, "split_char", "-f", "1", in)
	assert.Equal(t, "name\nJohn,Doe\n", got)
}

func TestSplitCharCommandAlphaToNumericTransition(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "code\nABC123\n")
	got := runCommand(t, "split_char", "-f", "1", "-tan", in)
	assert.Equal(t, "code\nABC,123\n", got)
}

func TestEvalvarsCommand(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "a,b\n1,2\n")
	got := runCommand(t, "evalvars", in)
	assert.Contains(t, got, "line=")
}

func TestInterCommand(t *testing.T) {
	left := writeTempCSV(t, "left.csv", "a,b\n1,2\n")
	right := writeTempCSV(t, "right.csv", "x,y\nX,Y\n")
	got := runCommand(t, "inter", "-ifn", "-f", "L1,R2", left, right)
	assert.Equal(t, "1,Y\n", got)
}

func TestInterCommandDefaultConcatenates(t *testing.T) {
	left := writeTempCSV(t, "left.csv", "a,b\n1,2\n")
	right := writeTempCSV(t, "right.csv", "x,y\nX,Y\n")
	got := runCommand(t, "inter", "-ifn", left, right)
	assert.Equal(t, "1,2,X,Y\n", got)
}

func TestInterCommandRequiresTwoStreams(t *testing.T) {
	left := writeTempCSV(t, "left.csv", "a,b\n1,2\n")
	dir := t.TempDir()
	out := filepath.Join(dir, "out.csv")
	root := NewRoot()
	root.SetArgs(NormalizeArgs([]string{"inter", left, "-o", out}))
	root.SetOut(new(nopWriter))
	root.SetErr(new(nopWriter))
	assert.Error(t, root.Execute())
}
