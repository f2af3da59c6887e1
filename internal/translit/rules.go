package translit

import "regexp"

// rewriteRule is one step of the phonetic-to-ITRANS pipeline. Replacement
// strings use regexp expansion syntax (${1} etc.).
type rewriteRule struct {
	re   *regexp.Regexp
	repl string
}

// phoneticRules normalizes casual phonetic English to ITRANS before
// rendering. The list is ORDERED: longer and more specific patterns come
// before shorter defaults (aspirate digraphs before single consonants,
// long-vowel digraphs before short-vowel fallbacks), and anusvara rules run
// before the vowel-length rules they feed. Reordering entries changes the
// output.
var phoneticRules = []rewriteRule{
	// Retroflex sibilant and aspirated affricate digraphs.
	{regexp.MustCompile(`shh`), "Sh"},
	{regexp.MustCompile(`chh`), "Ch"},

	// Vocalic R ("krishna", "rishi"): at word start, before a consonant,
	// or word-finally.
	{regexp.MustCompile(`\bri`), "R"},
	{regexp.MustCompile(`ri([^aeiou])`), "R${1}"},
	{regexp.MustCompile(`ri\b`), "R"},

	// Nasal assimilation toward velars and labials.
	{regexp.MustCompile(`n([kgc])`), "~N${1}"},
	{regexp.MustCompile(`m([pbm])`), "M${1}"},

	// Word-final m and m-before-consonant become anusvara.
	{regexp.MustCompile(`(\w)m\b`), "${1}M"},
	{regexp.MustCompile(`am([^aeiou])`), "aM${1}"},
	{regexp.MustCompile(`um([^aeiou])`), "uM${1}"},
	{regexp.MustCompile(`im([^aeiou])`), "iM${1}"},

	// Visarga: word-final h after a vowel.
	{regexp.MustCompile(`([aeiou])h\b`), "${1}H"},

	// Honorific shrI.
	{regexp.MustCompile(`shri`), "shrI"},

	// Long-vowel digraphs before the short-vowel defaults of the renderer.
	{regexp.MustCompile(`aa`), "A"},
	{regexp.MustCompile(`ee`), "I"},
	{regexp.MustCompile(`ii`), "I"},
	{regexp.MustCompile(`oo`), "U"},
	{regexp.MustCompile(`uu`), "U"},

	// Velar nasal before a vowel.
	{regexp.MustCompile(`ng([aeiou])`), "N${1}"},

	// Anusvara for n wedged between a consonant cluster.
	{regexp.MustCompile(`(\w)n([^aeioughjkcdtpbmnrlvsy])`), "${1}M${2}"},

	// Common conjunct patterns.
	{regexp.MustCompile(`moksh`), "mokSh"},
	{regexp.MustCompile(`ksh`), "kSh"},
	{regexp.MustCompile(`gya`), "j~na"},
	{regexp.MustCompile(`jna`), "j~na"},
	{regexp.MustCompile(`jn`), "j~n"},
}

// applyRules runs the ordered rewrite pipeline over input.
func applyRules(input string) string {
	out := input
	for _, rule := range phoneticRules {
		out = rule.re.ReplaceAllString(out, rule.repl)
	}
	return out
}
