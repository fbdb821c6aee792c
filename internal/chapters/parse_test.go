package chapters

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		expr     string
		last     Number
		expected Set
	}{
		{"single chapter", "3", 10, Set{{3, 3}}},
		{"range", "3..12", 20, Set{{3, 12}}},
		{"reversed range", "12..3", 20, Set{{3, 12}}},
		{"last alone", "last", 3, Set{{3, 3}}},
		{"range to last", "3..last", 40, Set{{3, 40}}},
		{"last as lower bound", "last..5", 40, Set{{5, 40}}},
		{"last is case insensitive", "LAST", 7, Set{{7, 7}}},
		{"list", "3, 12", 20, Set{{3, 3}, {12, 12}}},
		{"range and single", "3..12, 15", 20, Set{{3, 12}, {15, 15}}},
		{"whitespace around tokens", "  3 ..  5 ,7 ", 20, Set{{3, 5}, {7, 7}}},
		{"fractional chapter", "10.5", 20, Set{{10.5, 10.5}}},
		{"fractional bounds", "9.5..10.5", 20, Set{{9.5, 10.5}}},
		{"open upper bound", "5..", 9, Set{{5, 9}}},
		{"open lower bound", "..4", 9, Set{{0, 4}}},
		{"overlapping terms merge", "1..5, 3..8", 20, Set{{1, 8}}},
		{"duplicate terms merge", "4, 4", 20, Set{{4, 4}}},
		{"single on range boundary merges", "1..3, 3", 20, Set{{1, 3}}},
		{"adjacent terms stay apart", "3, 1..2, 6..8", 20, Set{{1, 2}, {3, 3}, {6, 8}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Parse(tt.expr, tt.last)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParse_InvalidFormat(t *testing.T) {
	tests := []struct {
		name string
		expr string
		term string
	}{
		{"empty expression", "", ""},
		{"blank expression", "   ", ""},
		{"garbage", "abc", "abc"},
		{"empty term", "1,,2", ""},
		{"trailing comma", "1,", ""},
		{"too many separators", "1..2..3", "1..2..3"},
		{"bare separator", "..", ".."},
		{"negative number", "-3", "-3"},
		{"signed number", "+3", "+3"},
		{"exponent", "1e3", "1e3"},
		{"hex", "0x10", "0x10"},
		{"nan", "NaN", "NaN"},
		{"inf", "Inf..3", "Inf..3"},
		{"triple dot", "1...5", "1...5"},
		{"dash range", "1-5", "1-5"},
		{"garbage in range", "3..x", "3..x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Parse(tt.expr, 10)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, errors.Is(err, ErrInvalidFormat))

			var formatErr *FormatError
			require.ErrorAs(t, err, &formatErr)
			assert.Equal(t, tt.expr, formatErr.Expr)
			assert.Equal(t, tt.term, formatErr.Term)
			assert.NotEmpty(t, formatErr.Reason)
		})
	}
}

func TestFormatError_Message(t *testing.T) {
	_, err := Parse("3, x", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid chapters format")
	assert.Contains(t, err.Error(), `"x"`)
}

func TestParse_ResultIsNormalized(t *testing.T) {
	result, err := Parse("20..last, 1, 5..2, 3, 30..25", 40)
	require.NoError(t, err)

	for i := 1; i < len(result); i++ {
		assert.Greater(t, result[i].Start, result[i-1].End)
	}
	for _, iv := range result {
		assert.LessOrEqual(t, iv.Start, iv.End)
	}
	assert.Equal(t, Set{{1, 1}, {2, 5}, {20, 40}}, result)
}

func TestParseNumber(t *testing.T) {
	n, err := ParseNumber(" 10.5 ")
	require.NoError(t, err)
	assert.Equal(t, Number(10.5), n)

	n, err = ParseNumber("007")
	require.NoError(t, err)
	assert.Equal(t, Number(7), n)

	for _, bad := range []string{"", "last", "-1", "1e3", "abc", ".5"} {
		_, err := ParseNumber(bad)
		assert.Error(t, err, bad)
	}
}
