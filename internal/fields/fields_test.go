package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	l, err := Parse("1,3-4,6n")
	require.NoError(t, err)
	assert.Equal(t, List{
		{Start: 0, End: 0},
		{Start: 2, End: 3},
		{Start: 5, End: 5, Flag: 'n'},
	}, l)
}

func TestParseEmptyMeansAllFields(t *testing.T) {
	l, err := Parse("  ")
	require.NoError(t, err)
	assert.Nil(t, l)
}

func TestParseRejectsZeroBased(t *testing.T) {
	_, err := Parse("0")
	assert.Error(t, err)
}

func TestIndices(t *testing.T) {
	l, err := Parse("2,4-6")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 4, 5}, l.Indices())
}

func TestAt(t *testing.T) {
	row := []string{"a", "b", "c"}
	assert.Equal(t, "b", At(row, 1))
	assert.Equal(t, "", At(row, 5))
	assert.Equal(t, "", At(row, -1))
}

func TestProject(t *testing.T) {
	row := []string{"a", "b", "c", "d"}
	l, err := Parse("3,1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, Project(row, l))
	assert.Equal(t, row, Project(row, nil))
}

func TestExclude(t *testing.T) {
	row := []string{"a", "b", "c", "d"}
	l, err := Parse("2")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "d"}, Exclude(row, l))
	assert.Nil(t, Exclude(row, nil))
}
