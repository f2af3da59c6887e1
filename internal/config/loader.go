package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known oracle provider names. Used by [Validate]
// to warn about unrecognised names without rejecting them.
var ValidProviderNames = []string{
	"gemini", "openai", "anthropic", "ollama", "mistral", "groq",
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if tls := cfg.Server.TLS; tls != nil {
		if tls.CertFile == "" {
			errs = append(errs, errors.New("server.tls.cert_file is required when tls is set"))
		}
		if tls.KeyFile == "" {
			errs = append(errs, errors.New("server.tls.key_file is required when tls is set"))
		}
	}

	// Matcher thresholds are similarities or fractions in [0, 1].
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"matcher.first_word_threshold", cfg.Matcher.FirstWordThreshold},
		{"matcher.word_threshold", cfg.Matcher.WordThreshold},
		{"matcher.fraction_floor", cfg.Matcher.FractionFloor},
	} {
		if f.value < 0 || f.value > 1 {
			errs = append(errs, fmt.Errorf("%s %.2f is out of range [0, 1]", f.name, f.value))
		}
	}
	if cfg.Matcher.MinMatches < 0 {
		errs = append(errs, fmt.Errorf("matcher.min_matches %d must not be negative", cfg.Matcher.MinMatches))
	}
	// The combined score is a first-word similarity plus a match fraction.
	if cfg.Matcher.ScoreFloor < 0 || cfg.Matcher.ScoreFloor > 2 {
		errs = append(errs, fmt.Errorf("matcher.score_floor %.2f is out of range [0, 2]", cfg.Matcher.ScoreFloor))
	}

	// Oracle
	if cfg.Oracle.Temperature < 0 || cfg.Oracle.Temperature > 2 {
		errs = append(errs, fmt.Errorf("oracle.temperature %.2f is out of range [0, 2]", cfg.Oracle.Temperature))
	}
	validateProviderName(cfg.Oracle.Provider.Name)
	if cfg.Oracle.Provider.Name == "" {
		slog.Warn("oracle.provider.name is empty; running local-only, unmatched verses will be rejected")
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// [ValidProviderNames].
func validateProviderName(name string) {
	if name == "" || slices.Contains(ValidProviderNames, name) {
		return
	}
	slog.Warn("unknown oracle provider name, may be a typo or third-party provider",
		"name", name,
		"known", ValidProviderNames,
	)
}
