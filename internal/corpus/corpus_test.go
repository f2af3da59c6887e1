package corpus_test

import (
	"strings"
	"testing"

	"github.com/upsanskritpratibhakhoj/shlokachakra/internal/corpus"
	"github.com/upsanskritpratibhakhoj/shlokachakra/internal/sanskrit"
)

func TestFirstLetter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"धर्मक्षेत्रे कुरुक्षेत्रे", "ध"},
		{"  ॥ १ ॥ अहम्", "अ"},
		{"यत्र योगेश्वरः", "य"},
		{"no devanagari", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := corpus.FirstLetter(tt.in); got != tt.want {
			t.Errorf("FirstLetter(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLastLetter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		// Trailing virama: the killed consonant itself is returned.
		{name: "killed consonant", in: "सृजाम्यहम्", want: "म"},
		// Trailing matra: the consonant carrying it.
		{name: "trailing matra", in: "अहम् ब्रह्म अस्मि", want: "म"},
		// Plain consonant with inherent vowel.
		{name: "inherent vowel", in: "किमकुर्वत सञ्जय ॥", want: "य"},
		// Citation digits and dandas are skipped.
		{name: "citation tail", in: "मतिर्मम ॥ १८.७८ ॥", want: "म"},
		// Verse ending in an independent vowel keeps that vowel.
		{name: "independent vowel", in: "नमः ॐ इ", want: "इ"},
		{name: "no devanagari", in: "latin only", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := corpus.LastLetter(tt.in); got != tt.want {
				t.Errorf("LastLetter(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoad_EmbeddedCorpus(t *testing.T) {
	t.Parallel()

	idx, err := corpus.Load("")
	if err != nil {
		t.Fatalf("Load embedded corpus: %v", err)
	}
	if idx.Len() == 0 {
		t.Fatal("embedded corpus is empty")
	}

	for _, v := range idx.Verses() {
		// StartChar always equals the first significant letter of the text.
		if v.StartChar != corpus.FirstLetter(v.Text) {
			t.Errorf("verse %q: StartChar %q != derived first letter %q",
				v.Text, v.StartChar, corpus.FirstLetter(v.Text))
		}
		if v.NextChar == "" {
			t.Errorf("verse %q: empty NextChar", v.Text)
		}
		// Soft invariant: every NextChar should lead somewhere in the
		// default corpus (dead ends are an error condition at play time,
		// but the shipped data should not contain any).
		if len(idx.FindByStartChar(v.NextChar)) == 0 {
			t.Errorf("verse %q: NextChar %q has no continuation in the default corpus", v.Text, v.NextChar)
		}
	}

	if len(idx.Openings()) == 0 {
		t.Error("no opening verses in the embedded corpus")
	}
}

func TestLoadFromReader_DerivesNextChar(t *testing.T) {
	t.Parallel()

	const data = `
verses:
  - text: "अहम् ब्रह्म अस्मि"
  - text: "मनो हि जगत् ।"
`
	idx, err := corpus.LoadFromReader(strings.NewReader(data))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	vs := idx.Verses()
	if len(vs) != 2 {
		t.Fatalf("got %d verses, want 2", len(vs))
	}
	if vs[0].NextChar != "म" {
		t.Errorf("derived NextChar = %q, want म", vs[0].NextChar)
	}
	if vs[1].NextChar != "त" {
		t.Errorf("derived NextChar for killed consonant tail = %q, want त", vs[1].NextChar)
	}
}

func TestLoadFromReader_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{name: "empty corpus", data: "verses: []"},
		{name: "empty text", data: "verses:\n  - text: \"\""},
		{name: "no devanagari", data: "verses:\n  - text: \"latin only\""},
		{name: "bad yaml", data: "verses: [not closed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := corpus.LoadFromReader(strings.NewReader(tt.data)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestIndex_RandomStartingWith(t *testing.T) {
	t.Parallel()

	verses := []corpus.Verse{
		{Text: "यदा यदा हि धर्मस्य", StartChar: "य", NextChar: "म"},
		{Text: "यत्र योगेश्वरः कृष्णो", StartChar: "य", NextChar: "म"},
		{Text: "मनोजवं मारुततुल्यवेगम्", StartChar: "म", NextChar: "य"},
	}
	idx := corpus.NewIndex(verses).WithRand(func(n int) int { return 0 })

	// Both य verses are candidates; deterministic rng picks the first.
	v, ok := idx.RandomStartingWith("य", nil)
	if !ok {
		t.Fatal("RandomStartingWith(य) found nothing")
	}
	if v.Text != verses[0].Text {
		t.Errorf("got %q, want %q", v.Text, verses[0].Text)
	}

	// Excluding the first य verse by normalized text leaves the second.
	exclude := map[string]struct{}{
		sanskrit.Normalize(verses[0].Text): {},
	}
	v, ok = idx.RandomStartingWith("य", exclude)
	if !ok {
		t.Fatal("RandomStartingWith(य, exclude) found nothing")
	}
	if v.Text != verses[1].Text {
		t.Errorf("got %q, want %q", v.Text, verses[1].Text)
	}

	// Excluding everything yields no candidate.
	exclude[sanskrit.Normalize(verses[1].Text)] = struct{}{}
	if _, ok := idx.RandomStartingWith("य", exclude); ok {
		t.Error("RandomStartingWith with all candidates excluded: got ok=true")
	}

	// No verse starts with this letter.
	if _, ok := idx.RandomStartingWith("क", nil); ok {
		t.Error("RandomStartingWith(क): got ok=true, want false")
	}
}

func TestIndex_RandomOpeningStartingWith(t *testing.T) {
	t.Parallel()

	verses := []corpus.Verse{
		{Text: "यदा यदा हि धर्मस्य", StartChar: "य", NextChar: "म", Opening: true},
		{Text: "मनोजवं मारुततुल्यवेगम्", StartChar: "म", NextChar: "य", Opening: true},
		{Text: "यत्र योगेश्वरः कृष्णो", StartChar: "य", NextChar: "म"},
	}
	idx := corpus.NewIndex(verses).WithRand(func(n int) int { return 0 })

	v, ok := idx.RandomOpeningStartingWith("म")
	if !ok {
		t.Fatal("RandomOpeningStartingWith(म) found nothing")
	}
	if v.Text != verses[1].Text {
		t.Errorf("got %q, want %q", v.Text, verses[1].Text)
	}

	// The य verse without the opening flag is not a candidate, so only the
	// flagged one can be returned.
	v, ok = idx.RandomOpeningStartingWith("य")
	if !ok {
		t.Fatal("RandomOpeningStartingWith(य) found nothing")
	}
	if v.Text != verses[0].Text {
		t.Errorf("got %q, want %q", v.Text, verses[0].Text)
	}

	if _, ok := idx.RandomOpeningStartingWith("क"); ok {
		t.Error("RandomOpeningStartingWith(क): got ok=true, want false")
	}
}

func TestIndex_Stats(t *testing.T) {
	t.Parallel()

	idx, err := corpus.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	stats := idx.Stats()
	total := 0
	for _, n := range stats {
		total += n
	}
	if total != idx.Len() {
		t.Errorf("stats total %d != corpus size %d", total, idx.Len())
	}
	if stats["य"] == 0 {
		t.Error("expected at least one य verse in stats")
	}
}
