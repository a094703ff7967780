package sortkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	keys, err := Parse("2:D,1:NI")
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, Field{Index: 1, Descending: true}, keys[0])
	assert.Equal(t, Field{Index: 0, Numeric: true, CaseFold: true}, keys[1])
}

func TestCompareLexical(t *testing.T) {
	keys, err := Parse("1")
	require.NoError(t, err)
	assert.Less(t, Compare(keys, []string{"apple"}, []string{"banana"}), 0)
	assert.Equal(t, 0, Compare(keys, []string{"same"}, []string{"same"}))
}

func TestCompareNumericTies(t *testing.T) {
	keys, err := Parse("1:N,2")
	require.NoError(t, err)
	a := []string{"10", "x"}
	b := []string{"9", "a"}
	assert.Greater(t, Compare(keys, a, b), 0, "10 > 9 numerically, not lexically")

	c := []string{"5", "z"}
	d := []string{"5", "a"}
	assert.Greater(t, Compare(keys, c, d), 0, "ties fall through to the second field")
}

func TestCompareDescending(t *testing.T) {
	keys, err := Parse("1:D")
	require.NoError(t, err)
	assert.Greater(t, Compare(keys, []string{"a"}, []string{"b"}), 0)
}

func TestLess(t *testing.T) {
	keys, err := Parse("1:N")
	require.NoError(t, err)
	assert.True(t, Less(keys, []string{"1"}, []string{"2"}))
	assert.False(t, Less(keys, []string{"2"}, []string{"1"}))
}
