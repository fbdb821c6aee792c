package providers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/justchokingaround/mangadl/internal/chapters"
	"github.com/justchokingaround/mangadl/internal/providers/utils"
)

// ErrNotFound is returned when a search or lookup has no result
var ErrNotFound = errors.New("not found")

// Source is where manga, chapters and pages come from: a website or the
// local download directory
type Source interface {
	Name() string

	Search(ctx context.Context, query string) ([]Manga, error)
	Chapters(ctx context.Context, manga Manga) ([]Chapter, error)
	Pages(ctx context.Context, chapter Chapter) ([]Page, error)
}

// Manga is a single search result
type Manga struct {
	// ID identifies the manga at its source
	ID string `json:"id"`
	// Slug names the manga on disk
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// Chapter is one chapter of a manga
type Chapter struct {
	ID     string          `json:"id"`
	Number chapters.Number `json:"number"`
	Title  string          `json:"title,omitempty"`
}

// Page is one image of a chapter. URL may be a local path for offline sources.
type Page struct {
	Number int    `json:"number"`
	URL    string `json:"url"`
}

// AmbiguousError is returned when a query matches several titles and none
// of them exactly
type AmbiguousError struct {
	Query string
	// Candidates are upper-cased titles, best match first
	Candidates []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%q matches %d titles: %s", e.Query, len(e.Candidates), strings.Join(e.Candidates, ", "))
}

// Resolve picks the manga a query refers to. An exact title match (ignoring
// case) wins, a single result wins, otherwise the caller must narrow the
// query down.
func Resolve(query string, results []Manga) (Manga, error) {
	switch len(results) {
	case 0:
		return Manga{}, fmt.Errorf("%q: %w", query, ErrNotFound)
	case 1:
		return results[0], nil
	}

	q := strings.TrimSpace(query)
	for _, m := range results {
		if strings.EqualFold(m.Title, q) {
			return m, nil
		}
	}

	titles := make([]string, len(results))
	for i, m := range results {
		titles[i] = m.Title
	}
	ranked := utils.RankTitles(q, titles)
	for i := range ranked {
		ranked[i] = strings.ToUpper(ranked[i])
	}

	return Manga{}, &AmbiguousError{Query: query, Candidates: ranked}
}

// SortChapters orders chapters by number and drops repeated numbers,
// keeping the first one listed
func SortChapters(list []Chapter) []Chapter {
	sorted := make([]Chapter, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Number < sorted[j].Number })

	result := make([]Chapter, 0, len(sorted))
	for _, c := range sorted {
		if n := len(result); n > 0 && result[n-1].Number == c.Number {
			continue
		}
		result = append(result, c)
	}
	return result
}

// ChapterNumbers projects the chapter numbers in list order
func ChapterNumbers(list []Chapter) []chapters.Number {
	numbers := make([]chapters.Number, len(list))
	for i, c := range list {
		numbers[i] = c.Number
	}
	return numbers
}

// ChapterIndex maps chapter numbers to chapters
func ChapterIndex(list []Chapter) map[chapters.Number]Chapter {
	index := make(map[chapters.Number]Chapter, len(list))
	for _, c := range list {
		if _, ok := index[c.Number]; !ok {
			index[c.Number] = c
		}
	}
	return index
}
