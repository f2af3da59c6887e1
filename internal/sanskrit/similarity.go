package sanskrit

import "github.com/antzucaro/matchr"

// Similarity returns an edit-distance-based similarity score for a and b in
// [0, 1]. Identical strings score 1.0; when either string is empty and they
// differ, the score is 0. Otherwise the score is
//
//	1 - Levenshtein(a, b) / max(runeLen(a), runeLen(b))
//
// with unit insertion, deletion, and substitution costs. The function is
// symmetric: Similarity(a, b) == Similarity(b, a).
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}

	dist := matchr.Levenshtein(a, b)

	la := len([]rune(a))
	lb := len([]rune(b))
	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}

	return 1 - float64(dist)/float64(maxLen)
}
