// Package corpus holds the static collection of known verses and the
// read-only index used for starting-letter lookups and random continuation
// selection. The corpus is loaded once at process start and never mutated.
package corpus

import (
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Verse is one immutable corpus entry.
type Verse struct {
	// Text is the full verse in Devanagari, padas joined by line breaks
	// and dandas.
	Text string

	// StartChar is the first significant Devanagari letter of Text,
	// derived at load time.
	StartChar string

	// NextChar is the letter any continuation verse must start with.
	// Taken from the corpus record when present, otherwise derived from
	// the verse tail.
	NextChar string

	// Opening marks the verse as eligible to open a new game.
	Opening bool
}

// devanagariLetter matches independent vowels, consonants, and the extended
// consonant/vocalic ranges. Vowel signs (matras), the virama, anusvara,
// visarga, digits, and dandas are deliberately excluded: the chain
// constraint keys on base letters only.
var devanagariLetter = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x0904, Hi: 0x0939, Stride: 1},
		{Lo: 0x0958, Hi: 0x0961, Stride: 1},
	},
}

// FirstLetter returns the first significant Devanagari letter of text, or
// "" when text contains none.
func FirstLetter(text string) string {
	for _, r := range norm.NFC.String(text) {
		if unicode.Is(devanagariLetter, r) {
			return string(r)
		}
	}
	return ""
}

// LastLetter returns the final significant Devanagari letter of text, or ""
// when text contains none.
//
// The scan walks backwards past whitespace, dandas, digits, citation marks,
// vowel signs, anusvara, visarga, and a trailing virama. A verse ending in
// a killed consonant ("…जगत्") therefore yields the consonant the virama
// attaches to (त), a verse ending in a matra ("…अस्मि") yields the
// consonant carrying it (म), and a verse ending in an independent vowel
// yields that vowel.
func LastLetter(text string) string {
	runes := []rune(norm.NFC.String(text))
	for i := len(runes) - 1; i >= 0; i-- {
		if unicode.Is(devanagariLetter, runes[i]) {
			return string(runes[i])
		}
	}
	return ""
}
