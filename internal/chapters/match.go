package chapters

import "sort"

// Match intersects a request with the chapters a source actually has.
//
// available must be sorted ascending. found lists every available chapter
// covered by requested, ascending and without repeats. missing is the
// normalized set of requested sub-ranges no available chapter satisfies.
//
// Gap bounds are integral where they derive from an available chapter: a gap
// ending before chapter c ends at ceil(c-1) and a gap starting after chapter p
// starts at floor(p+1). A gap before 10.5 therefore ends at 10, and a gap
// after 10.5 starts at 11.
func Match(available []Number, requested Set) (found []Number, missing Set) {
	found = []Number{}
	var gaps []Interval

	for _, req := range requested {
		i := sort.Search(len(available), func(i int) bool { return available[i] >= req.Start })
		if i == len(available) || available[i] > req.End {
			gaps = append(gaps, req)
			continue
		}

		if first := available[i]; first > req.Start {
			gaps = append(gaps, Interval{Start: req.Start, End: max(req.Start, (first - 1).ceil())})
		}

		var prev Number
		matched := false
		for ; i < len(available) && available[i] <= req.End; i++ {
			cur := available[i]
			if matched {
				if cur == prev {
					continue
				}
				if next := (prev + 1).floor(); next < cur {
					gaps = append(gaps, Interval{Start: next, End: (cur - 1).ceil()})
				}
			}
			found = appendUnique(found, cur)
			prev = cur
			matched = true
		}

		if prev < req.End {
			gaps = append(gaps, Interval{Start: min((prev + 1).floor(), req.End), End: req.End})
		}
	}

	return found, Merge(gaps)
}

// appendUnique appends n unless it equals the current tail. Requested
// intervals are disjoint and ascending, so a chapter can only repeat at the
// tail.
func appendUnique(found []Number, n Number) []Number {
	if len(found) > 0 && found[len(found)-1] == n {
		return found
	}
	return append(found, n)
}
