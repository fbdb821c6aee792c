package chapters

import (
	"math"
	"strings"
)

// consecutiveTolerance absorbs float rounding when checking n+1 == next.
const consecutiveTolerance = 1e-9

// Format renders a set as "start{rangeSep}end" items joined by listSep.
// Single-chapter intervals render as just the number.
func Format(set Set, rangeSep, listSep string) string {
	var b strings.Builder
	for i, iv := range set {
		if i > 0 {
			b.WriteString(listSep)
		}
		b.WriteString(iv.Start.String())
		if iv.Start != iv.End {
			b.WriteString(rangeSep)
			b.WriteString(iv.End.String())
		}
	}
	return b.String()
}

// FromSorted groups a sorted list of chapters into runs of consecutive
// numbers. [1 2 3 5 6] becomes (1,3) (5,6); 10.5 after 10 starts a new run.
func FromSorted(numbers []Number) Set {
	set := Set{}
	if len(numbers) == 0 {
		return set
	}

	cur := Single(numbers[0])
	for _, n := range numbers[1:] {
		if n == cur.End {
			continue
		}
		if math.Abs(float64(n-(cur.End+1))) < consecutiveTolerance {
			cur.End = n
			continue
		}
		set = append(set, cur)
		cur = Single(n)
	}
	return append(set, cur)
}
