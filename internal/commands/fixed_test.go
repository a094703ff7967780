package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadFixedCommand(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "1234Alice\n")
	got := runCommand(t, "read_fixed", "-f", "1:4,5:5", in)
	assert.Equal(t, "1234,Alice\n", got)
}

func TestReadFixedCommandFromIniFormat(t *testing.T) {
	ini := writeTempIni(t, "[layout]\n1 = id, 4\n2 = name, 6\n")
	in := writeTempCSV(t, "in.csv", "1234Alice \n")
	got := runCommand(t, "read_fixed", "-iniformat", ini, "-inisection", "layout", "-rt", in)
	assert.Equal(t, "1234,Alice\n", got)
}

func TestReadFixedCommandRequiresInisectionWithIniformat(t *testing.T) {
	ini := writeTempIni(t, "[layout]\n1 = id, 4\n")
	in := writeTempCSV(t, "in.csv", "1234\n")
	dir := t.TempDir()
	out := dir + "/out.csv"
	root := NewRoot()
	root.SetArgs(NormalizeArgs([]string{"read_fixed", "-iniformat", ini, in, "-o", out}))
	root.SetOut(new(nopWriter))
	root.SetErr(new(nopWriter))
	assert.Error(t, root.Execute())
}
