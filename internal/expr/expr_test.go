package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evalString(t *testing.T, src string, row []string) string {
	t.Helper()
	p, errMsg := Compile(src)
	require.Empty(t, errMsg, "compile %q", src)
	v, err := Eval(p, &Context{Row: row})
	require.NoError(t, err)
	return v
}

func TestEvalArithmeticPrecedence(t *testing.T) {
	assert.Equal(t, "14", evalString(t, "2+3*4", nil))
	assert.Equal(t, "20", evalString(t, "(2+3)*4", nil))
}

func TestEvalFieldReference(t *testing.T) {
	assert.Equal(t, "b", evalString(t, "$2", []string{"a", "b", "c"}))
}

func TestEvalComparison(t *testing.T) {
	assert.Equal(t, "1", evalString(t, "3 > 2", nil))
	assert.Equal(t, "0", evalString(t, "2 > 3", nil))
}

func TestEvalBuiltins(t *testing.T) {
	assert.Equal(t, "HELLO", evalString(t, `upper("hello")`, nil))
	assert.Equal(t, "5", evalString(t, `len("hello")`, nil))
	assert.Equal(t, "1", evalString(t, `isnum("42.5")`, nil))
	assert.Equal(t, "0", evalString(t, `isnum("abc")`, nil))
}

func TestEvalNamedVars(t *testing.T) {
	p, errMsg := Compile("$line")
	require.Empty(t, errMsg)
	v, err := Eval(p, &Context{Named: map[string]string{"line": "7"}})
	require.NoError(t, err)
	assert.Equal(t, "7", v)
}

func TestEvalErrorOnUnknownFunction(t *testing.T) {
	p, errMsg := Compile("bogus(1)")
	require.Empty(t, errMsg, "unknown function names aren't caught until Eval")
	_, err := Eval(p, &Context{})
	assert.Error(t, err)
}

func TestCompileErrorOnBareIdentifier(t *testing.T) {
	_, errMsg := Compile("foo + 1")
	assert.NotEmpty(t, errMsg)
}

func TestIsNumber(t *testing.T) {
	assert.True(t, IsNumber("42"))
	assert.True(t, IsNumber("-3.5"))
	assert.False(t, IsNumber("abc"))
	assert.False(t, IsNumber(""))
}

func TestTruthy(t *testing.T) {
	assert.True(t, Truthy("1"))
	assert.False(t, Truthy("0"))
	assert.False(t, Truthy(""))
}

func TestIsISODate(t *testing.T) {
	assert.True(t, IsISODate("2024-01-15"))
	assert.False(t, IsISODate("not-a-date"))
}
