package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAtableCommandDefaultNoHeader(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "alice,30\nbob,40\n")
	got := runCommand(t, "atable", in)
	assert.Contains(t, got, "alice")
	assert.Contains(t, got, "bob")
	assert.Contains(t, got, "+")
}

func TestAtableCommandFirstRowAsHeader(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "name,age\nalice,30\n")
	got := runCommand(t, "atable", "-h", "@", in)
	assert.Contains(t, got, "name")
	assert.Contains(t, got, "alice")
}

func TestAtableCommandExplicitHeaders(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "alice,30\n")
	got := runCommand(t, "atable", "-h", "Name,Age", in)
	assert.Contains(t, got, "Name")
	assert.Contains(t, got, "Age")
}
