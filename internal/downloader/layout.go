package downloader

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/justchokingaround/mangadl/internal/chapters"
	"github.com/justchokingaround/mangadl/internal/providers/utils"
)

// FilenameKeep are the runes besides letters and digits kept in folder names
const FilenameKeep = "_- ."

// PageExt is the extension pages are saved with, whatever their encoding
const PageExt = ".png"

var spaceRun = regexp.MustCompile(`\s+`)

// MangaDir is the folder holding the chapters of a manga
func MangaDir(root, slug string) string {
	name := strings.TrimSpace(utils.StripPath(slug, FilenameKeep))
	if name == "" {
		name = "manga"
	}
	return filepath.Join(root, name)
}

// ChapterDir is the folder holding the pages of a chapter
func ChapterDir(root, slug string, n chapters.Number) string {
	return filepath.Join(MangaDir(root, slug), n.String())
}

// PagePath is the file of a page inside its chapter folder
func PagePath(chapterDir string, page int) string {
	return filepath.Join(chapterDir, fmt.Sprintf("%d%s", page, PageExt))
}

// OutputPath is the converted file "<title> <label><ext>" in root. label is
// a chapter number or a chapter range fragment.
func OutputPath(root, title, label, ext string) string {
	name := SanitizeFilename(strings.TrimSpace(title + " " + label))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return filepath.Join(root, name+ext)
}

// SanitizeFilename removes or replaces invalid characters from a filename
// Replaces filesystem-unsafe characters with safe alternatives
func SanitizeFilename(filename string) string {
	replacements := map[rune]string{
		'/':  "-",
		'\\': "-",
		':':  " -",
		'*':  "",
		'?':  "",
		'"':  "'",
		'<':  "",
		'>':  "",
		'|':  "-",
		'\n': " ",
		'\r': " ",
		'\t': " ",
	}

	var result strings.Builder
	result.Grow(len(filename))

	for _, ch := range filename {
		if replacement, exists := replacements[ch]; exists {
			result.WriteString(replacement)
		} else if !unicode.IsPrint(ch) {
			continue
		} else {
			result.WriteRune(ch)
		}
	}

	cleaned := spaceRun.ReplaceAllString(result.String(), " ")

	// Trim spaces and dots from start/end (problematic on Windows)
	cleaned = strings.Trim(cleaned, " .")

	if cleaned == "" {
		cleaned = "manga"
	}

	// Leave room for the extension and the path
	if len(cleaned) > 200 {
		cleaned = cleaned[:200]
		if lastSpace := strings.LastIndex(cleaned, " "); lastSpace > 150 {
			cleaned = cleaned[:lastSpace]
		}
		cleaned = strings.TrimRight(cleaned, " .-")
	}

	return cleaned
}
