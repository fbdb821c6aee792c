package chapters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	available := []Number{6, 1, 3, 2, 8, 5}

	sel, err := Resolve(available, "1..6")
	require.NoError(t, err)

	assert.Equal(t, Set{{1, 6}}, sel.Requested)
	assert.Equal(t, []Number{1, 2, 3, 5, 6}, sel.Found)
	assert.Equal(t, Set{{4, 4}}, sel.Missing)
	assert.Equal(t, Number(8), sel.Last)
	assert.Equal(t, "1-3,5-6", sel.Fragment())

	// input is left untouched
	assert.Equal(t, []Number{6, 1, 3, 2, 8, 5}, available)
}

func TestResolve_Last(t *testing.T) {
	sel, err := Resolve([]Number{1, 2, 3}, "last")
	require.NoError(t, err)

	assert.Equal(t, []Number{3}, sel.Found)
	assert.Equal(t, Set{}, sel.Missing)
	assert.Equal(t, "3", sel.Fragment())
}

func TestResolve_NothingFound(t *testing.T) {
	sel, err := Resolve([]Number{1, 2, 3}, "5..7")
	require.NoError(t, err)

	assert.Empty(t, sel.Found)
	assert.Equal(t, Set{{5, 7}}, sel.Missing)
	assert.Equal(t, "", sel.Fragment())
}

func TestResolve_EmptyExpressionSelectsEverything(t *testing.T) {
	sel, err := Resolve([]Number{3, 1, 2, 2, 10.5}, "  ")
	require.NoError(t, err)

	assert.Equal(t, Set{{1, 10.5}}, sel.Requested)
	assert.Equal(t, []Number{1, 2, 3, 10.5}, sel.Found)
	assert.Equal(t, Set{}, sel.Missing)
	assert.Equal(t, Number(10.5), sel.Last)
	assert.Equal(t, "1-3,10.5", sel.Fragment())
}

func TestResolve_Errors(t *testing.T) {
	_, err := Resolve(nil, "1..3")
	assert.ErrorIs(t, err, ErrNoChapters)

	_, err = Resolve([]Number{1}, "one")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}
