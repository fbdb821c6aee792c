// Package chapters implements chapter range selection: parsing range
// expressions, merging intervals, matching them against the chapters a
// source actually has and rendering the result back into compact notation.
package chapters

import (
	"math"
	"sort"
	"strconv"
)

// Number is a chapter number. Side chapters are fractional (10.5).
type Number float64

// String renders the number without trailing zeros: 12, 10.5.
func (n Number) String() string {
	return strconv.FormatFloat(float64(n), 'f', -1, 64)
}

func (n Number) floor() Number { return Number(math.Floor(float64(n))) }
func (n Number) ceil() Number  { return Number(math.Ceil(float64(n))) }

// Interval is an inclusive request for every chapter in [Start, End],
// whether or not those chapters exist.
type Interval struct {
	Start Number
	End   Number
}

// Single returns the interval covering exactly n.
func Single(n Number) Interval {
	return Interval{Start: n, End: n}
}

// Span returns the interval between a and b in either order.
func Span(a, b Number) Interval {
	if a > b {
		a, b = b, a
	}
	return Interval{Start: a, End: b}
}

// Contains reports whether n lies inside the interval.
func (i Interval) Contains(n Number) bool {
	return i.Start <= n && n <= i.End
}

func (i Interval) String() string {
	if i.Start == i.End {
		return i.Start.String()
	}
	return i.Start.String() + ".." + i.End.String()
}

// Set is a normalized interval sequence: ascending by Start and free of
// overlaps, so that for consecutive intervals the second Start is strictly
// greater than the first End.
type Set []Interval

// Contains reports whether any interval of the set covers n.
func (s Set) Contains(n Number) bool {
	i := sort.Search(len(s), func(i int) bool { return s[i].End >= n })
	return i < len(s) && s[i].Start <= n
}

// Empty reports whether the set requests nothing.
func (s Set) Empty() bool {
	return len(s) == 0
}

func (s Set) String() string {
	return Format(s, "..", ", ")
}

// Max returns the largest number, or 0 for an empty slice.
func Max(numbers []Number) Number {
	var m Number
	for i, n := range numbers {
		if i == 0 || n > m {
			m = n
		}
	}
	return m
}

// Sort orders numbers ascending in place.
func Sort(numbers []Number) {
	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })
}
