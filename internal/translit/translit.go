package translit

import "strings"

// Transliterate converts Roman phonetic input to Devanagari. Input that
// already contains Devanagari, or that is not recognisably Roman script, is
// returned unchanged. Transliterate never panics toward the caller: an
// internal failure also yields the original input.
func Transliterate(input string) (out string) {
	if strings.TrimSpace(input) == "" {
		return input
	}
	if ContainsDevanagari(input) {
		return input
	}
	if !IsRomanScript(input) {
		return input
	}

	// The rewrite rules and renderer are total functions, but the
	// passthrough guarantee must hold even if a future rule misbehaves.
	defer func() {
		if recover() != nil {
			out = input
		}
	}()

	scheme := applyRules(strings.ToLower(input))
	return renderScheme(scheme)
}

// ProcessInput prepares raw user input for matching: Devanagari passes
// through trimmed, Roman phonetic text is transliterated.
func ProcessInput(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}
	if ContainsDevanagari(trimmed) {
		return trimmed
	}
	return Transliterate(trimmed)
}
