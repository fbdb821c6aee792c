package utils

import (
	"sort"

	"github.com/sahilm/fuzzy"
)

// LevenshteinDistance calculates the Levenshtein distance between two strings
// It returns the minimum number of single-character edits (insertions, deletions, or substitutions)
// required to change one string into the other
func LevenshteinDistance(s1, s2 string) int {
	len1 := len(s1)
	len2 := len(s2)

	matrix := make([][]int, len1+1)
	for i := range matrix {
		matrix[i] = make([]int, len2+1)
	}

	for i := 0; i <= len1; i++ {
		matrix[i][0] = i
	}
	for j := 0; j <= len2; j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len1; i++ {
		for j := 1; j <= len2; j++ {
			cost := 0
			if s1[i-1] != s2[j-1] {
				cost = 1
			}

			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len1][len2]
}

// SimilarityScore calculates a similarity score between two titles (0.0 to 1.0)
// 1.0 means perfect match, 0.0 means completely different
func SimilarityScore(title1, title2 string) float64 {
	norm1 := NormalizeTitle(title1)
	norm2 := NormalizeTitle(title2)

	if norm1 == "" || norm2 == "" {
		return 0.0
	}

	distance := LevenshteinDistance(norm1, norm2)
	maxLen := max(len(norm1), len(norm2))

	return max(1.0-float64(distance)/float64(maxLen), 0)
}

// RankTitles orders titles by how well they match query, best first.
// Titles the fuzzy matcher accepts come first in its order; the rest follow
// by similarity score. Duplicates are dropped, nothing else is.
func RankTitles(query string, titles []string) []string {
	titles = RemoveDuplicates(titles)
	normalized := make([]string, len(titles))
	for i, t := range titles {
		normalized[i] = NormalizeTitle(t)
	}

	ranked := make([]string, 0, len(titles))
	taken := make([]bool, len(titles))
	for _, match := range fuzzy.Find(NormalizeTitle(query), normalized) {
		ranked = append(ranked, titles[match.Index])
		taken[match.Index] = true
	}

	rest := make([]int, 0, len(titles)-len(ranked))
	for i := range titles {
		if !taken[i] {
			rest = append(rest, i)
		}
	}
	sort.SliceStable(rest, func(a, b int) bool {
		return SimilarityScore(query, titles[rest[a]]) > SimilarityScore(query, titles[rest[b]])
	})
	for _, i := range rest {
		ranked = append(ranked, titles[i])
	}

	return ranked
}

// BestMatch returns the index of the title most similar to query, or -1
// when no title reaches minScore
func BestMatch(query string, titles []string, minScore float64) int {
	best, bestScore := -1, minScore
	for i, t := range titles {
		if score := SimilarityScore(query, t); score >= bestScore && (best == -1 || score > bestScore) {
			best, bestScore = i, score
		}
	}
	return best
}
