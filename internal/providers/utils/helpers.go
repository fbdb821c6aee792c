package utils

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	whitespaceRegex = regexp.MustCompile(`\s+`)
	nonWordRegex    = regexp.MustCompile(`[^\p{L}\p{N}_]+`)
	seasonRegex     = regexp.MustCompile(`\s*season\s+\d+\s*`)
	partRegex       = regexp.MustCompile(`\s*part\s+\d+\s*`)
)

// CleanText removes extra whitespace and trims a string
func CleanText(text string) string {
	text = whitespaceRegex.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// EncodeTitle turns a title into the folder name it is stored under: every
// run of characters other than letters, digits and underscore becomes a
// single dash. "Dr. Stone" -> "Dr-Stone".
func EncodeTitle(title string) string {
	return nonWordRegex.ReplaceAllString(title, "-")
}

// DecodeTitle is the display form of an encoded title
func DecodeTitle(encoded string) string {
	return strings.ReplaceAll(encoded, "-", " ")
}

// StripPath keeps letters, digits and the runes in keep, dropping the rest.
// It makes titles safe to use as file names.
func StripPath(path string, keep string) string {
	var b strings.Builder
	for _, r := range path {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune(keep, r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ParseInt safely parses a string to int, returning 0 on error
func ParseInt(s string) int {
	val, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return val
}

// TruncateString truncates a string to maxLen runes
// If truncated, appends "..." to the end
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// RemoveDuplicates removes duplicate strings from a slice while preserving order
func RemoveDuplicates(slice []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(slice))

	for _, item := range slice {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}

	return result
}

// NormalizeTitle normalizes a title for comparison
// Removes special characters, converts to lowercase, removes season/part patterns
func NormalizeTitle(title string) string {
	title = strings.ToLower(title)
	title = seasonRegex.ReplaceAllString(title, " ")
	title = partRegex.ReplaceAllString(title, " ")

	// Keep spaces, ASCII alphanumerics and any non-ASCII rune
	result := strings.Builder{}
	for _, r := range title {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == ' ' || r > 127 {
			result.WriteRune(r)
		}
	}

	return CleanText(result.String())
}
