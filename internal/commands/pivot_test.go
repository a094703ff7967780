package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPivotCommandSum(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "region,product,amount\nEast,Widget,10\nEast,Gadget,5\nWest,Widget,20\n")
	got := runCommand(t, "pivot", "-ifn", "-c", "1", "-r", "2", "-f", "3", in)
	assert.Equal(t, ",East,West\nGadget,5,0\nWidget,10,20\n", got)
}

func TestPivotCommandCount(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "region,product,amount\nEast,Widget,10\nEast,Gadget,5\nWest,Widget,20\n")
	got := runCommand(t, "pivot", "-ifn", "-c", "1", "-r", "2", "-f", "3", "-a", "count", in)
	assert.Equal(t, ",East,West\nGadget,1,0\nWidget,1,1\n", got)
}

func TestPivotCommandAvg(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "region,product,amount\nEast,Widget,10\nEast,Widget,30\nWest,Widget,20\n")
	got := runCommand(t, "pivot", "-ifn", "-c", "1", "-r", "2", "-f", "3", "-a", "avg", in)
	assert.Regexp(t, `^,East,West\nWidget,20(\.0+)?,20(\.0+)?\n$`, got)
}

func TestPivotCommandRequiresAllFields(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "a,b,c\n1,2,3\n")
	dir := t.TempDir()
	out := dir + "/out.csv"
	root := NewRoot()
	root.SetArgs(NormalizeArgs([]string{"pivot", "-c", "1", in, "-o", out}))
	root.SetOut(new(nopWriter))
	root.SetErr(new(nopWriter))
	assert.Error(t, root.Execute())
}

func TestPivotCommandRejectsSameColAndRowField(t *testing.T) {
	in := writeTempCSV(t, "in.csv", "a,b\n1,2\n")
	dir := t.TempDir()
	out := dir + "/out.csv"
	root := NewRoot()
	root.SetArgs(NormalizeArgs([]string{"pivot", "-c", "1", "-r", "1", "-f", "2", in, "-o", out}))
	root.SetOut(new(nopWriter))
	root.SetErr(new(nopWriter))
	assert.Error(t, root.Execute())
}
