// Package match resolves free-form Devanagari input to a corpus verse.
//
// Matching is deliberately two-phase. A hard gate first checks that the
// input begins with the required letter — this is the game's defining
// constraint and no amount of fuzzy similarity can override it. Candidate
// verses are then scored by fuzzy multi-word alignment: the first word of
// the input must closely match the first word of the verse (a structural
// requirement for a starting-letter game), and enough of the remaining
// words must align for the verse to qualify. Candidates are ranked by the
// sum of first-word similarity and overall match fraction; the best one is
// accepted only above a combined-score floor, so weak partial matches fall
// through to the remote oracle instead of short-circuiting it.
package match

import (
	"strings"

	"github.com/upsanskritpratibhakhoj/shlokachakra/internal/corpus"
	"github.com/upsanskritpratibhakhoj/shlokachakra/internal/sanskrit"
)

const (
	defaultFirstWordThreshold = 0.70
	defaultWordThreshold      = 0.75
	defaultFractionFloor      = 0.50
	defaultMinMatches         = 3
	defaultScoreFloor         = 1.40
	minInputWords             = 2
)

// Option is a functional option for configuring a [Matcher].
type Option func(*Matcher)

// WithFirstWordThreshold sets the minimum similarity between the input's
// first word and a candidate verse's first word. Default: 0.70.
func WithFirstWordThreshold(t float64) Option {
	return func(m *Matcher) { m.firstWordThreshold = t }
}

// WithWordThreshold sets the per-word similarity above which an input word
// counts as matching some verse word. Default: 0.75.
func WithWordThreshold(t float64) Option {
	return func(m *Matcher) { m.wordThreshold = t }
}

// WithFractionFloor sets the minimum fraction of input words that must
// match for a verse to become a candidate. Default: 0.50.
func WithFractionFloor(f float64) Option {
	return func(m *Matcher) { m.fractionFloor = f }
}

// WithMinMatches sets the absolute match-count requirement; the effective
// requirement is min(n, input word count). Default: 3.
func WithMinMatches(n int) Option {
	return func(m *Matcher) { m.minMatches = n }
}

// WithScoreFloor sets the combined-score floor (first-word similarity plus
// match fraction) the best candidate must exceed. Default: 1.40.
func WithScoreFloor(f float64) Option {
	return func(m *Matcher) { m.scoreFloor = f }
}

// Matcher resolves user input to corpus verses. It is read-only after
// construction and safe for concurrent use.
type Matcher struct {
	index *corpus.Index

	firstWordThreshold float64
	wordThreshold      float64
	fractionFloor      float64
	minMatches         int
	scoreFloor         float64
}

// New returns a Matcher over index with the supplied options applied.
func New(index *corpus.Index, opts ...Option) *Matcher {
	m := &Matcher{
		index:              index,
		firstWordThreshold: defaultFirstWordThreshold,
		wordThreshold:      defaultWordThreshold,
		fractionFloor:      defaultFractionFloor,
		minMatches:         defaultMinMatches,
		scoreFloor:         defaultScoreFloor,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Match resolves input to a corpus verse whose start letter is
// requiredChar. The returned score is the combined ranking score of the
// accepted candidate. When ok is false no verse qualified and the caller
// should fall back to the remote oracle.
func (m *Matcher) Match(input, requiredChar string) (verse corpus.Verse, score float64, ok bool) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" || requiredChar == "" {
		return corpus.Verse{}, 0, false
	}

	// Hard gate: the first significant letter must be the required one.
	if corpus.FirstLetter(trimmed) != requiredChar {
		return corpus.Verse{}, 0, false
	}

	userWords := sanskrit.Tokenize(trimmed)
	if len(userWords) < minInputWords {
		return corpus.Verse{}, 0, false
	}

	var (
		best      corpus.Verse
		bestScore float64
		found     bool
	)

	for _, candidate := range m.index.FindByStartChar(requiredChar) {
		verseWords := sanskrit.Tokenize(candidate.Text)
		if len(verseWords) == 0 {
			continue
		}

		// First-word gating: structurally required, skip otherwise.
		firstSim := sanskrit.Similarity(userWords[0], verseWords[0])
		if firstSim < m.firstWordThreshold {
			continue
		}

		matchCount := 1 // the gated first word counts as matched
		for _, uw := range userWords[1:] {
			if m.wordMatches(uw, verseWords) {
				matchCount++
			}
		}

		fraction := float64(matchCount) / float64(len(userWords))
		required := m.minMatches
		if len(userWords) < required {
			required = len(userWords)
		}
		if fraction < m.fractionFloor || matchCount < required {
			continue
		}

		if combined := firstSim + fraction; combined > bestScore {
			best = candidate
			bestScore = combined
			found = true
		}
	}

	if !found || bestScore <= m.scoreFloor {
		return corpus.Verse{}, 0, false
	}
	return best, bestScore, true
}

// wordMatches reports whether word aligns with at least one verse word
// above the per-word threshold.
func (m *Matcher) wordMatches(word string, verseWords []string) bool {
	for _, vw := range verseWords {
		if sanskrit.Similarity(word, vw) > m.wordThreshold {
			return true
		}
	}
	return false
}
