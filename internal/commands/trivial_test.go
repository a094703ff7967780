package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEchoCommand(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "a,b\n1,2\n")
	got := runCommand(t, "echo", in)
	assert.Equal(t, "a,b\n1,2\n", got)
}

func TestHeadCommand(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "1\n2\n3\n4\n5\n")
	got := runCommand(t, "head", "-n", "2", in)
	assert.Equal(t, "1\n2\n", got)
}

func TestTailCommand(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "1\n2\n3\n4\n5\n")
	got := runCommand(t, "tail", "-n", "2", in)
	assert.Equal(t, "4\n5\n", got)
}

func TestTailCommandFewerRowsThanLimit(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "1\n2\n")
	got := runCommand(t, "tail", "-n", "5", in)
	assert.Equal(t, "1\n2\n", got)
}

func TestSeqCommand(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "a\nb\nc\n")
	got := runCommand(t, "seq", in)
	assert.Equal(t, "1,a\n2,b\n3,c\n", got)
}

func TestSeqCommandStartIncrementWidth(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "a\nb\n")
	got := runCommand(t, "seq", "-s", "10", "-i", "5", "-w", "3", in)
	assert.Equal(t, "010,a\n015,b\n", got)
}

func TestTrimCommand(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "\"  hello  \",\" world\"\n")
	got := runCommand(t, "trim", in)
	assert.Equal(t, "hello,world\n", got)
}

func TestTrimCommandWidth(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "hello\n")
	got := runCommand(t, "trim", "-w", "3", in)
	assert.Equal(t, "hel\n", got)
}

func TestMoneyCommand(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "1234.5\n")
	got := runCommand(t, "money", "-f", "1", "-s", "$", in)
	assert.Equal(t, "$1,234.50\n", got)
}

func TestMoneyCommandNegative(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "-1234.5\n")
	got := runCommand(t, "money", "-f", "1", in)
	assert.Equal(t, "-1,234.50\n", got)
}

func TestTemplateCommand(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "alice,30\n")
	got := runCommand(t, "template", "-t", "$1 is $2 years old", in)
	assert.Equal(t, "alice is 30 years old\n", got)
}

func TestTemplateCommandRequiresFlag(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "a\n")
	dir := t.TempDir()
	root := NewRoot()
	out := dir + "/out.csv"
	root.SetArgs(NormalizeArgs([]string{"template", in, "-o", out}))
	root.SetOut(new(nopWriter))
	root.SetErr(new(nopWriter))
	assert.Error(t, root.Execute())
}

func TestTimestampCommandDateOnlyFormat(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "a\n")
	got := runCommand(t, "timestamp", "-d", in)
	assert.Regexp(t, `^a,\d{4}-\d{2}-\d{2}\n$`, got)
}

func TestFileInfoCommand(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "a,b\n1,2\n")
	got := runCommand(t, "file_info", "-ifn", "-b", in)
	assert.Regexp(t, `^in\.csv:2,1,2\n$`, got)
}

func TestFileInfoCommandTwoColumns(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "a,b\n1,2\n")
	got := runCommand(t, "file_info", "-ifn", "-b", "-2", in)
	assert.Regexp(t, `^in\.csv,2,1,2\n$`, got)
}

func TestEscapeCommand(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "a,b\n")
	got := runCommand(t, "escape", "-f", "1", in)
	assert.Equal(t, "\"a\",b\n", got)
}

func TestEscapeCommandSQLMode(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "it's,b\n")
	got := runCommand(t, "escape", "-f", "1", "-sql", in)
	assert.Equal(t, "'it''s',b\n", got)
}

func TestPrintfCommand(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "alice,30\n")
	got := runCommand(t, "printf", "-f", `%1: %2\n`, in)
	assert.Equal(t, "alice: 30\n", got)
}

func TestPrintfCommandRequiresFlag(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "a\n")
	dir := t.TempDir()
	root := NewRoot()
	out := dir + "/out.csv"
	root.SetArgs(NormalizeArgs([]string{"printf", in, "-o", out}))
	root.SetOut(new(nopWriter))
	root.SetErr(new(nopWriter))
	assert.Error(t, root.Execute())
}
