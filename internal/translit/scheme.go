package translit

import "strings"

// virama is the Devanagari schwa-killer U+094D.
const virama = '्'

// maxSchemeToken is the longest ITRANS token in any table below ("kSh", "j~n").
const maxSchemeToken = 3

// consonants maps ITRANS consonant tokens to their Devanagari glyphs.
// kSh and j~n render as conjuncts with an embedded virama.
var consonants = map[string]string{
	"k": "क", "kh": "ख", "g": "ग", "gh": "घ", "~N": "ङ",
	"ch": "च", "Ch": "छ", "j": "ज", "jh": "झ", "~n": "ञ",
	"T": "ट", "Th": "ठ", "D": "ड", "Dh": "ढ", "N": "ण",
	"t": "त", "th": "थ", "d": "द", "dh": "ध", "n": "न",
	"p": "प", "ph": "फ", "b": "ब", "bh": "भ", "m": "म",
	"y": "य", "r": "र", "l": "ल", "v": "व", "w": "व",
	"sh": "श", "Sh": "ष", "s": "स", "h": "ह", "L": "ळ",
	"kSh": "क्ष", "j~n": "ज्ञ",
}

// vowels maps ITRANS vowel tokens to independent vowel letters, used at a
// word start or after another vowel.
var vowels = map[string]string{
	"a": "अ", "A": "आ", "i": "इ", "I": "ई", "u": "उ", "U": "ऊ",
	"R": "ऋ", "e": "ए", "ai": "ऐ", "o": "ओ", "au": "औ",
}

// matras maps ITRANS vowel tokens to dependent vowel signs, used after a
// consonant. The short "a" is inherent and renders as nothing.
var matras = map[string]string{
	"a": "", "A": "ा", "i": "ि", "I": "ी", "u": "ु", "U": "ू",
	"R": "ृ", "e": "े", "ai": "ै", "o": "ो", "au": "ौ",
}

// signs maps post-vowel marks: anusvara and visarga.
var signs = map[string]string{
	"M": "ं", "H": "ः",
}

// renderScheme converts an ITRANS-scheme string to Devanagari using a
// greedy longest-match scan. A consonant followed by a vowel takes the
// vowel's matra form; a consonant followed by anything else (another
// consonant, a sign boundary, end of input) is closed with a virama.
// Runes that match no table (spaces, stray punctuation) are copied through,
// closing any open consonant first.
func renderScheme(scheme string) string {
	runes := []rune(scheme)
	var b strings.Builder
	b.Grow(len(scheme) * 2)

	pending := false // an emitted consonant still awaiting its vowel

	i := 0
	for i < len(runes) {
		matched := false

		maxN := maxSchemeToken
		if rem := len(runes) - i; rem < maxN {
			maxN = rem
		}

		for n := maxN; n >= 1 && !matched; n-- {
			tok := string(runes[i : i+n])

			if glyph, ok := consonants[tok]; ok {
				if pending {
					b.WriteRune(virama)
				}
				b.WriteString(glyph)
				pending = true
				i += n
				matched = true
				break
			}

			if pending {
				if matra, ok := matras[tok]; ok {
					b.WriteString(matra)
					pending = false
					i += n
					matched = true
					break
				}
			} else if vowel, ok := vowels[tok]; ok {
				b.WriteString(vowel)
				i += n
				matched = true
				break
			}

			if sign, ok := signs[tok]; ok {
				// A sign directly after a bare consonant keeps the
				// consonant's inherent vowel ("kaM" and casual "kM"
				// both render कं).
				pending = false
				b.WriteString(sign)
				i += n
				matched = true
				break
			}
		}

		if !matched {
			if pending {
				b.WriteRune(virama)
				pending = false
			}
			b.WriteRune(runes[i])
			i++
		}
	}

	if pending {
		b.WriteRune(virama)
	}

	return b.String()
}
