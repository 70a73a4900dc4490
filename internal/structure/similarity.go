package structure

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// normalizeTitle prepares a title for comparison: NFKC folds the ligature
// and width variants PDF extraction produces, whitespace runs collapse to
// single spaces, and case is dropped.
func normalizeTitle(s string) string {
	s = norm.NFKC.String(s)
	s = strings.Join(strings.Fields(s), " ")
	return strings.ToLower(s)
}

// containsFuzzy checks if text contains the title after normalization.
// Handles common extraction artifacts like extra spaces and case changes.
func containsFuzzy(text, title string) bool {
	t := normalizeTitle(title)
	if t == "" {
		return false
	}
	return strings.Contains(normalizeTitle(text), t)
}

// Similarity scores two titles in [0,1] using Levenshtein distance over
// their normalized forms. Identical titles score 1, disjoint ones 0.
func Similarity(a, b string) float64 {
	na := normalizeTitle(a)
	nb := normalizeTitle(b)
	if na == nb {
		return 1.0
	}
	if na == "" || nb == "" {
		return 0.0
	}

	dist := levenshtein([]rune(na), []rune(nb))
	longer := len([]rune(na))
	if l := len([]rune(nb)); l > longer {
		longer = l
	}
	return 1.0 - float64(dist)/float64(longer)
}

// levenshtein computes the edit distance between two rune slices with a
// rolling two-row table.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

func minInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
