package chapters

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidFormat is matched by every error Parse returns.
var ErrInvalidFormat = errors.New("invalid chapters format")

// LastToken stands for the highest available chapter.
const LastToken = "last"

const rangeSep = ".."

var numberPattern = regexp.MustCompile(`^\d+(\.\d+)?$`)

// FormatError describes why a range expression was rejected.
type FormatError struct {
	Expr   string
	Term   string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Term == "" {
		return fmt.Sprintf("%s %q: %s", ErrInvalidFormat, e.Expr, e.Reason)
	}
	return fmt.Sprintf("%s %q: term %q: %s", ErrInvalidFormat, e.Expr, e.Term, e.Reason)
}

func (e *FormatError) Unwrap() error {
	return ErrInvalidFormat
}

// Parse turns a range expression into a normalized set.
//
// The expression is a comma separated list of terms. A term is a single
// chapter ("7", "10.5", "last") or two of them joined by "..". Reversed bounds
// are swapped. "A.." runs to last and "..B" starts at 0. Whitespace around
// tokens is ignored.
func Parse(expr string, last Number) (Set, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, &FormatError{Expr: expr, Reason: "empty expression"}
	}

	terms := strings.Split(expr, ",")
	intervals := make([]Interval, 0, len(terms))
	for _, raw := range terms {
		term := strings.TrimSpace(raw)
		iv, reason := parseTerm(term, last)
		if reason != "" {
			return nil, &FormatError{Expr: expr, Term: term, Reason: reason}
		}
		intervals = append(intervals, iv)
	}

	return Merge(intervals), nil
}

func parseTerm(term string, last Number) (Interval, string) {
	if term == "" {
		return Interval{}, "empty term"
	}

	parts := strings.Split(term, rangeSep)
	switch len(parts) {
	case 1:
		n, reason := parseToken(parts[0], last)
		if reason != "" {
			return Interval{}, reason
		}
		return Single(n), ""
	case 2:
		lo, hi := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if lo == "" && hi == "" {
			return Interval{}, "range without bounds"
		}
		if lo == "" {
			lo = "0"
		}
		if hi == "" {
			hi = LastToken
		}
		a, reason := parseToken(lo, last)
		if reason != "" {
			return Interval{}, reason
		}
		b, reason := parseToken(hi, last)
		if reason != "" {
			return Interval{}, reason
		}
		return Span(a, b), ""
	default:
		return Interval{}, "too many range separators"
	}
}

func parseToken(token string, last Number) (Number, string) {
	token = strings.TrimSpace(token)
	if strings.EqualFold(token, LastToken) {
		return last, ""
	}
	if !numberPattern.MatchString(token) {
		return 0, fmt.Sprintf("%q is not a chapter number", token)
	}
	f, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, err.Error()
	}
	return Number(f), ""
}

// ParseNumber reads a single plain chapter number such as a chapter
// directory name. "last" is not accepted.
func ParseNumber(s string) (Number, error) {
	s = strings.TrimSpace(s)
	if !numberPattern.MatchString(s) {
		return 0, fmt.Errorf("%q is not a chapter number", s)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return Number(f), nil
}
