package chapters

import "sort"

// Merge normalizes intervals into a Set. Intervals that overlap or share a
// boundary value are folded together; intervals that are merely adjacent,
// like (1,2) and (3,3), stay apart. The input slice is not modified.
func Merge(intervals []Interval) Set {
	if len(intervals) == 0 {
		return Set{}
	}

	sorted := make([]Interval, len(intervals))
	copy(sorted, intervals)
	if len(sorted) == 1 {
		return Set(sorted)
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	merged := make(Set, 0, len(sorted))
	cur := sorted[0]
	for _, next := range sorted[1:] {
		if next.Start <= cur.End && next.End >= cur.Start {
			cur.Start = min(cur.Start, next.Start)
			cur.End = max(cur.End, next.End)
			continue
		}
		merged = append(merged, cur)
		cur = next
	}
	merged = append(merged, cur)

	return merged
}
