package chapters

import (
	"errors"
	"strings"
)

// ErrNoChapters is returned when a source lists no chapters at all.
var ErrNoChapters = errors.New("no chapters available")

// Selection is the outcome of applying a range expression to a chapter list.
type Selection struct {
	// Requested is the parsed expression, or the whole available range when
	// no expression was given.
	Requested Set
	Found     []Number
	Missing   Set
	// Last is the value "last" resolved to.
	Last Number
}

// Resolve applies expr to the available chapters. An empty expression
// selects every available chapter.
func Resolve(available []Number, expr string) (Selection, error) {
	if len(available) == 0 {
		return Selection{}, ErrNoChapters
	}

	sorted := make([]Number, len(available))
	copy(sorted, available)
	Sort(sorted)
	last := sorted[len(sorted)-1]

	if strings.TrimSpace(expr) == "" {
		found := make([]Number, 0, len(sorted))
		for _, n := range sorted {
			found = appendUnique(found, n)
		}
		return Selection{
			Requested: Set{Interval{Start: sorted[0], End: last}},
			Found:     found,
			Missing:   Set{},
			Last:      last,
		}, nil
	}

	requested, err := Parse(expr, last)
	if err != nil {
		return Selection{}, err
	}

	found, missing := Match(sorted, requested)
	return Selection{
		Requested: requested,
		Found:     found,
		Missing:   missing,
		Last:      last,
	}, nil
}

// Fragment renders the found chapters compactly for file names: "1-3,5".
func (s Selection) Fragment() string {
	return Format(FromSorted(s.Found), "-", ",")
}
