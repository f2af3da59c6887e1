package corpus

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed data/verses.yaml
var defaultCorpus []byte

// record is the on-disk form of a corpus entry. StartChar is always
// derived, never stored.
type record struct {
	Text     string `yaml:"text"`
	NextChar string `yaml:"next_char"`
	Opening  bool   `yaml:"opening"`
}

type corpusFile struct {
	Verses []record `yaml:"verses"`
}

// Load reads a corpus YAML file from path. An empty path loads the
// embedded default corpus.
func Load(path string) (*Index, error) {
	if path == "" {
		return loadBytes(defaultCorpus)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("corpus: open %q: %w", path, err)
	}
	defer f.Close()

	idx, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("corpus: parse %q: %w", path, err)
	}
	return idx, nil
}

// LoadFromReader decodes corpus records from r and builds the index.
func LoadFromReader(r io.Reader) (*Index, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("corpus: read: %w", err)
	}
	return loadBytes(data)
}

func loadBytes(data []byte) (*Index, error) {
	var file corpusFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("corpus: decode yaml: %w", err)
	}
	if len(file.Verses) == 0 {
		return nil, errors.New("corpus: no verses defined")
	}

	verses := make([]Verse, 0, len(file.Verses))
	var errs []error
	for i, rec := range file.Verses {
		v, err := buildVerse(rec)
		if err != nil {
			errs = append(errs, fmt.Errorf("corpus: verses[%d]: %w", i, err))
			continue
		}
		verses = append(verses, v)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return NewIndex(verses), nil
}

// buildVerse derives StartChar (always) and NextChar (when the record omits
// it) for a single entry.
func buildVerse(rec record) (Verse, error) {
	if rec.Text == "" {
		return Verse{}, errors.New("empty text")
	}

	start := FirstLetter(rec.Text)
	if start == "" {
		return Verse{}, fmt.Errorf("no Devanagari letter in %q", rec.Text)
	}

	next := rec.NextChar
	if next == "" {
		next = LastLetter(rec.Text)
		if next == "" {
			return Verse{}, fmt.Errorf("cannot derive next char for %q", rec.Text)
		}
	}

	return Verse{
		Text:      rec.Text,
		StartChar: start,
		NextChar:  next,
		Opening:   rec.Opening,
	}, nil
}
