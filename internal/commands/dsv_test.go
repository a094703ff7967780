package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadDSVCommandBackslashEscaped(t *testing.T) {
	in := writeTempCSV(t, "in.csv", `a\|b|c`+"\n")
	got := runCommand(t, "read_dsv", "-s", "|", in)
	assert.Equal(t, "a|b,c\n", got)
}

func TestReadDSVCommandCSVMode(t *testing.T) {
	in := writeTempCSV(t, "in.csv", `"a|b"|c`+"\n")
	got := runCommand(t, "read_dsv", "-s", "|", "-csv", in)
	assert.Equal(t, "a|b,c\n", got)
}

func TestReadDSVCommandCSVModeDoubledQuote(t *testing.T) {
	in := writeTempCSV(t, "in.csv", `"a""b"|c`+"\n")
	got := runCommand(t, "read_dsv", "-s", "|", "-csv", in)
	assert.Equal(t, `a"b,c`+"\n", got)
}
