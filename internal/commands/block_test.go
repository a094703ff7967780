package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlockCommandClosesAndReopens(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "x\nBEGIN\na\nEND\ny\nBEGIN\nz\nEND\nw\n")
	got := runCommand(t, "block", "-be", `$1=="BEGIN"`, "-ee", `$1=="END"`, "-k", in)
	assert.Equal(t, "BEGIN\na\nEND\nBEGIN\nz\nEND\n", got)
}

func TestBlockCommandKeepOutside(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "x\nBEGIN\na\nEND\ny\n")
	got := runCommand(t, "block", "-be", `$1=="BEGIN"`, "-ee", `$1=="END"`, "-r", in)
	assert.Equal(t, "x\ny\n", got)
}
