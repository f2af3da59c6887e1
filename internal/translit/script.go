// Package translit converts casual Roman-script phonetic input into
// Devanagari so that verse matching always operates on a single script.
//
// The conversion is a two-stage pipeline:
//
//  1. An ordered list of rewrite rules turns loose phonetic English
//     ("ansham", "moksha", "shlokam") into an ITRANS-like scheme string.
//     Rule order is significant and is part of the package contract:
//     later rules may re-match substrings produced by earlier rules, so
//     the list is applied strictly in sequence.
//
//  2. A longest-match scheme renderer maps the ITRANS string to
//     Devanagari, handling inherent vowels, matras, viramas for
//     consonant clusters, and the anusvara/visarga signs.
//
// Transliteration never fails toward the caller: any internal problem
// returns the original input unchanged.
package translit

import "unicode"

// devanagariRange covers the Devanagari Unicode block U+0900–U+097F.
var devanagariRange = &unicode.RangeTable{
	R16: []unicode.Range16{{Lo: 0x0900, Hi: 0x097F, Stride: 1}},
}

// ContainsDevanagari reports whether text contains at least one rune in the
// Devanagari Unicode block.
func ContainsDevanagari(text string) bool {
	for _, r := range text {
		if unicode.Is(devanagariRange, r) {
			return true
		}
	}
	return false
}

// IsRomanScript reports whether text contains Latin letters and no
// Devanagari. Text that is neither (digits, punctuation, other scripts)
// is not considered Roman and is passed through untransliterated.
func IsRomanScript(text string) bool {
	hasLatin := false
	for _, r := range text {
		if unicode.Is(devanagariRange, r) {
			return false
		}
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			hasLatin = true
		}
	}
	return hasLatin
}
