// Package sanskrit provides text normalization, tokenization, and string
// similarity primitives for Devanagari verse text.
//
// All functions are pure and safe for concurrent use. Normalization is
// idempotent: Normalize(Normalize(s)) == Normalize(s) for every input.
package sanskrit

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// minStrictTokenRunes is the minimum token length (in runes) retained by
// [TokenizeStrict].
const minStrictTokenRunes = 2

// Normalize prepares verse text for comparison. It applies NFC Unicode
// normalization, strips verse-boundary punctuation (danda "।", double danda
// "॥", pipes and citation dots), Devanagari and ASCII digits, collapses
// whitespace runs to single spaces, trims, and lowercases (a no-op for
// Devanagari, but it makes Roman-script comparisons case-insensitive).
func Normalize(text string) string {
	text = norm.NFC.String(text)

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if isStripped(r) {
			continue
		}
		b.WriteRune(r)
	}

	collapsed := strings.Join(strings.Fields(b.String()), " ")
	return strings.ToLower(collapsed)
}

// isStripped reports whether r is removed entirely during normalization:
// dandas, pipes, citation dots, and digits in either script.
func isStripped(r rune) bool {
	switch r {
	case '।', '॥', '|', '॰', '.', ',', ';', ':', '!', '?':
		return true
	}
	if r >= '0' && r <= '9' {
		return true
	}
	// Devanagari digits ०-९ (U+0966–U+096F).
	if r >= 0x0966 && r <= 0x096F {
		return true
	}
	return unicode.IsControl(r)
}

// Tokenize splits text into normalized words, dropping empty tokens.
func Tokenize(text string) []string {
	normalized := Normalize(text)
	if normalized == "" {
		return nil
	}
	return strings.Fields(normalized)
}

// TokenizeStrict is [Tokenize] with short tokens (fewer than two runes)
// filtered out. Single-character fragments are common artifacts of partial
// quoting and carry almost no matching signal.
func TokenizeStrict(text string) []string {
	tokens := Tokenize(text)
	kept := tokens[:0]
	for _, t := range tokens {
		if len([]rune(t)) >= minStrictTokenRunes {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}
