package providers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justchokingaround/mangadl/internal/chapters"
)

func TestResolve(t *testing.T) {
	onePiece := Manga{ID: "1", Slug: "One-Piece", Title: "One Piece"}
	party := Manga{ID: "2", Slug: "One-Piece-Party", Title: "One Piece Party"}
	naruto := Manga{ID: "3", Slug: "Naruto", Title: "Naruto"}

	t.Run("no results", func(t *testing.T) {
		_, err := Resolve("bleach", nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.Contains(t, err.Error(), "bleach")
	})

	t.Run("single result wins even if not exact", func(t *testing.T) {
		m, err := Resolve("one pie", []Manga{party})
		require.NoError(t, err)
		assert.Equal(t, party, m)
	})

	t.Run("exact title ignoring case", func(t *testing.T) {
		m, err := Resolve("  ONE PIECE ", []Manga{party, onePiece, naruto})
		require.NoError(t, err)
		assert.Equal(t, onePiece, m)
	})

	t.Run("ambiguous", func(t *testing.T) {
		_, err := Resolve("one", []Manga{party, naruto, onePiece})
		require.Error(t, err)

		var ambiguous *AmbiguousError
		require.True(t, errors.As(err, &ambiguous))
		assert.Equal(t, "one", ambiguous.Query)
		assert.ElementsMatch(t, []string{"ONE PIECE", "ONE PIECE PARTY", "NARUTO"}, ambiguous.Candidates)
		assert.Equal(t, "NARUTO", ambiguous.Candidates[2])
		assert.Contains(t, err.Error(), "3 titles")
	})
}

func TestSortChapters(t *testing.T) {
	list := []Chapter{
		{ID: "c", Number: 3},
		{ID: "a", Number: 1},
		{ID: "b2", Number: 10.5},
		{ID: "d", Number: 1},
		{ID: "e", Number: 2},
	}

	sorted := SortChapters(list)

	assert.Equal(t, []Chapter{
		{ID: "a", Number: 1},
		{ID: "e", Number: 2},
		{ID: "c", Number: 3},
		{ID: "b2", Number: 10.5},
	}, sorted)
	// input untouched
	assert.Equal(t, "c", list[0].ID)
	assert.Empty(t, SortChapters(nil))
}

func TestChapterNumbers(t *testing.T) {
	list := []Chapter{{ID: "a", Number: 1}, {ID: "b", Number: 2.5}}

	assert.Equal(t, []chapters.Number{1, 2.5}, ChapterNumbers(list))
}

func TestChapterIndex(t *testing.T) {
	list := []Chapter{{ID: "a", Number: 1}, {ID: "b", Number: 2}, {ID: "dup", Number: 1}}

	index := ChapterIndex(list)

	assert.Len(t, index, 2)
	assert.Equal(t, "a", index[1].ID)
	assert.Equal(t, "b", index[2].ID)
}
