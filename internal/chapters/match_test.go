package chapters

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		name      string
		available []Number
		expr      string
		found     []Number
		missing   Set
	}{
		{
			name:      "gap inside range",
			available: []Number{1, 2, 3, 5, 6, 8},
			expr:      "1..6",
			found:     []Number{1, 2, 3, 5, 6},
			missing:   Set{{4, 4}},
		},
		{
			name:      "last chapter",
			available: []Number{1, 2, 3},
			expr:      "last",
			found:     []Number{3},
			missing:   Set{},
		},
		{
			name:      "range beyond available",
			available: []Number{1, 2, 3},
			expr:      "5..7",
			found:     []Number{},
			missing:   Set{{5, 7}},
		},
		{
			name:      "gap before first match",
			available: []Number{4, 5},
			expr:      "1..5",
			found:     []Number{4, 5},
			missing:   Set{{1, 3}},
		},
		{
			name:      "trailing gap",
			available: []Number{1, 2, 3},
			expr:      "2..6",
			found:     []Number{2, 3},
			missing:   Set{{4, 6}},
		},
		{
			name:      "several requested intervals",
			available: []Number{1, 2, 3, 7, 8, 12},
			expr:      "1..4, 7, 10..12",
			found:     []Number{1, 2, 3, 7, 12},
			missing:   Set{{4, 4}, {10, 11}},
		},
		{
			name:      "missing single chapter",
			available: []Number{1, 3},
			expr:      "2",
			found:     []Number{},
			missing:   Set{{2, 2}},
		},
		{
			name:      "empty available list",
			available: nil,
			expr:      "1..3",
			found:     []Number{},
			missing:   Set{{1, 3}},
		},
		{
			name:      "duplicates in available are reported once",
			available: []Number{1, 2, 2, 3},
			expr:      "1..3",
			found:     []Number{1, 2, 3},
			missing:   Set{},
		},
		{
			name:      "found chapter separates misses",
			available: []Number{5},
			expr:      "1..4, 6..8, 5",
			found:     []Number{5},
			missing:   Set{{1, 4}, {6, 8}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requested, err := Parse(tt.expr, Max(tt.available))
			require.NoError(t, err)

			found, missing := Match(tt.available, requested)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.missing, missing)
		})
	}
}

func TestMatch_FractionalBoundaries(t *testing.T) {
	tests := []struct {
		name      string
		available []Number
		requested Set
		found     []Number
		missing   Set
	}{
		{
			name:      "gap ending before a fractional chapter ends at the integer below",
			available: []Number{8, 10.5},
			requested: Set{{8, 10.5}},
			found:     []Number{8, 10.5},
			missing:   Set{{9, 10}},
		},
		{
			name:      "gap starting after a fractional chapter starts at the next integer",
			available: []Number{10.5, 13},
			requested: Set{{10.5, 13}},
			found:     []Number{10.5, 13},
			missing:   Set{{11, 12}},
		},
		{
			name:      "side chapter right after its main chapter is no gap",
			available: []Number{10, 10.5, 11},
			requested: Set{{10, 11}},
			found:     []Number{10, 10.5, 11},
			missing:   Set{},
		},
		{
			name:      "main chapter right after a side chapter is no gap",
			available: []Number{9.5, 10},
			requested: Set{{9.5, 10}},
			found:     []Number{9.5, 10},
			missing:   Set{},
		},
		{
			name:      "leading gap before a fractional first match",
			available: []Number{10.5},
			requested: Set{{10, 10.5}},
			found:     []Number{10.5},
			missing:   Set{{10, 10}},
		},
		{
			name:      "leading gap is clamped to a fractional start",
			available: []Number{10.5},
			requested: Set{{10.2, 10.5}},
			found:     []Number{10.5},
			missing:   Set{{10.2, 10.2}},
		},
		{
			name:      "trailing gap is clamped to a fractional end",
			available: []Number{10},
			requested: Set{{10, 10.5}},
			found:     []Number{10},
			missing:   Set{{10.5, 10.5}},
		},
		{
			name:      "trailing gap after a fractional last match",
			available: []Number{1, 2.5},
			requested: Set{{1, 5}},
			found:     []Number{1, 2.5},
			missing:   Set{{2, 2}, {3, 5}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, missing := Match(tt.available, tt.requested)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.missing, missing)
		})
	}
}

func TestMatch_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(7))

	for round := 0; round < 200; round++ {
		var available []Number
		for n := Number(0); n <= 30; n++ {
			if r.Intn(3) > 0 {
				available = append(available, n)
			}
			if r.Intn(6) == 0 {
				available = append(available, n+0.5)
			}
		}
		requested := Merge(randomIntervals(r, 1+r.Intn(4)))

		found, missing := Match(available, requested)

		// every available chapter inside the request is found, nothing else
		for _, c := range available {
			if requested.Contains(c) {
				assert.Contains(t, found, c)
			} else {
				assert.NotContains(t, found, c)
			}
		}

		// found is ascending and free of repeats
		for i := 1; i < len(found); i++ {
			assert.Less(t, found[i-1], found[i])
		}

		// missing is normalized, lies inside the request and never covers a
		// found chapter
		for i := 1; i < len(missing); i++ {
			assert.Greater(t, missing[i].Start, missing[i-1].End)
		}
		for _, iv := range missing {
			assert.True(t, requested.Contains(iv.Start), "missing %v outside %v", iv, requested)
			assert.True(t, requested.Contains(iv.End), "missing %v outside %v", iv, requested)
		}
		for _, c := range found {
			assert.False(t, missing.Contains(c), "found %v reported missing in %v", c, missing)
		}

		// every integer chapter of the request is accounted for
		for _, iv := range requested {
			for q := iv.Start.ceil(); q <= iv.End; q++ {
				isFound := false
				for _, c := range found {
					if c == q {
						isFound = true
					}
				}
				assert.True(t, isFound || missing.Contains(q), "chapter %v of %v unaccounted", q, requested)
			}
		}
	}
}
