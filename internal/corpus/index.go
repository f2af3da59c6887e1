package corpus

import (
	"math/rand/v2"

	"github.com/upsanskritpratibhakhoj/shlokachakra/internal/sanskrit"
)

// Index is the read-only verse lookup structure. It is built once by
// [NewIndex] (typically via [Load]) and is safe for any number of
// concurrent readers.
type Index struct {
	verses  []Verse
	byStart map[string][]Verse

	// rng is injectable for deterministic tests. Defaults to the shared
	// top-level source.
	rng func(n int) int
}

// NewIndex builds an Index over verses.
func NewIndex(verses []Verse) *Index {
	idx := &Index{
		verses:  verses,
		byStart: make(map[string][]Verse),
		rng:     rand.IntN,
	}
	for _, v := range verses {
		idx.byStart[v.StartChar] = append(idx.byStart[v.StartChar], v)
	}
	return idx
}

// WithRand replaces the random source used by [Index.RandomStartingWith]
// and [Index.RandomOpening]. Intended for tests; not safe to call after the
// index is shared.
func (idx *Index) WithRand(intN func(n int) int) *Index {
	idx.rng = intN
	return idx
}

// Len returns the number of verses in the corpus.
func (idx *Index) Len() int { return len(idx.verses) }

// Verses returns all corpus entries. Callers must not modify the slice.
func (idx *Index) Verses() []Verse { return idx.verses }

// FindByStartChar returns all verses whose StartChar equals char. The
// result may be empty; its order is unspecified.
func (idx *Index) FindByStartChar(char string) []Verse {
	return idx.byStart[char]
}

// RandomStartingWith picks a uniform-random verse whose StartChar equals
// char and whose normalized text is not in exclude. The second return is
// false when no candidate exists.
func (idx *Index) RandomStartingWith(char string, exclude map[string]struct{}) (Verse, bool) {
	var candidates []Verse
	for _, v := range idx.byStart[char] {
		if _, used := exclude[sanskrit.Normalize(v.Text)]; used {
			continue
		}
		candidates = append(candidates, v)
	}
	if len(candidates) == 0 {
		return Verse{}, false
	}
	return candidates[idx.rng(len(candidates))], true
}

// Openings returns the verses eligible to open a game. When no verse is
// flagged as an opening, every verse is eligible.
func (idx *Index) Openings() []Verse {
	var openings []Verse
	for _, v := range idx.verses {
		if v.Opening {
			openings = append(openings, v)
		}
	}
	if len(openings) == 0 {
		return idx.verses
	}
	return openings
}

// RandomOpening picks a uniform-random opening verse.
func (idx *Index) RandomOpening() Verse {
	openings := idx.Openings()
	return openings[idx.rng(len(openings))]
}

// RandomOpeningStartingWith picks a uniform-random opening verse whose
// StartChar equals char. The second return is false when no opening
// starts with char.
func (idx *Index) RandomOpeningStartingWith(char string) (Verse, bool) {
	var candidates []Verse
	for _, v := range idx.Openings() {
		if v.StartChar == char {
			candidates = append(candidates, v)
		}
	}
	if len(candidates) == 0 {
		return Verse{}, false
	}
	return candidates[idx.rng(len(candidates))], true
}

// Stats returns the number of verses per starting letter.
func (idx *Index) Stats() map[string]int {
	stats := make(map[string]int, len(idx.byStart))
	for char, vs := range idx.byStart {
		stats[char] = len(vs)
	}
	return stats
}
