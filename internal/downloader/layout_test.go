package downloader

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMangaDir(t *testing.T) {
	root := filepath.Join("downloads", "manga")

	assert.Equal(t, filepath.Join(root, "One-Piece"), MangaDir(root, "One-Piece"))
	assert.Equal(t, filepath.Join(root, "FateZero"), MangaDir(root, "Fate/Zero"))
	assert.Equal(t, filepath.Join(root, "manga"), MangaDir(root, "///"))
}

func TestChapterDir(t *testing.T) {
	assert.Equal(t, filepath.Join("m", "One-Piece", "10.5"), ChapterDir("m", "One-Piece", 10.5))
	assert.Equal(t, filepath.Join("m", "One-Piece", "3"), ChapterDir("m", "One-Piece", 3))
}

func TestPagePath(t *testing.T) {
	assert.Equal(t, filepath.Join("ch", "12.png"), PagePath("ch", 12))
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name  string
		title string
		label string
		ext   string
		want  string
	}{
		{"single chapter", "One Piece", "3", ".pdf", "One Piece 3.pdf"},
		{"range fragment", "One Piece", "1-3,5", ".cbz", "One Piece 1-3,5.cbz"},
		{"extension without dot", "Naruto", "1", "epub", "Naruto 1.epub"},
		{"unsafe title", "Re:Zero?", "2", ".mobi", "Re -Zero 2.mobi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, filepath.Join("out", tt.want), OutputPath("out", tt.title, tt.label, tt.ext))
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"normal", "One Piece", "One Piece"},
		{"slashes", "Fate/Zero", "Fate-Zero"},
		{"colon", "Dr. Stone: Reboot", "Dr. Stone - Reboot"},
		{"wildcards", "What*?", "What"},
		{"quotes", `say "hi"`, "say 'hi'"},
		{"collapse spaces", "a \t\n b", "a b"},
		{"trailing dots", "...Title...", "Title"},
		{"empty", "???", "manga"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilename(tt.input))
		})
	}
}

func TestSanitizeFilename_Long(t *testing.T) {
	long := strings.Repeat("word ", 60)

	result := SanitizeFilename(long)

	assert.LessOrEqual(t, len(result), 200)
	assert.False(t, strings.HasSuffix(result, " "))
}
