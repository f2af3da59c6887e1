// Package config provides the configuration schema, loader, and provider
// registry for the Shlokachakra game server.
package config

import "log/slog"

// LogLevel controls log verbosity for the server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Level converts l to the corresponding [slog.Level]. The empty level maps
// to info.
func (l LogLevel) Level() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Config is the root configuration structure for Shlokachakra.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Corpus  CorpusConfig  `yaml:"corpus"`
	Game    GameConfig    `yaml:"game"`
	Matcher MatcherConfig `yaml:"matcher"`
	Oracle  OracleConfig  `yaml:"oracle"`
}

// ServerConfig holds network and logging settings for the game server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// CorpusConfig selects the verse corpus.
type CorpusConfig struct {
	// Path is a YAML corpus file to load. Empty means the embedded corpus.
	Path string `yaml:"path"`
}

// GameConfig holds gameplay behaviour toggles.
type GameConfig struct {
	// TransliterationDisabled turns off Roman-input transliteration.
	// When disabled, only Devanagari submissions can pass the
	// starting-letter gate.
	TransliterationDisabled bool `yaml:"transliteration_disabled"`
}

// MatcherConfig tunes the fuzzy verse matcher. Zero values keep the
// built-in defaults.
type MatcherConfig struct {
	// FirstWordThreshold is the minimum similarity between the input's
	// first word and a candidate verse's first word.
	FirstWordThreshold float64 `yaml:"first_word_threshold"`

	// WordThreshold is the per-word similarity above which an input word
	// counts as matching a verse word.
	WordThreshold float64 `yaml:"word_threshold"`

	// FractionFloor is the minimum fraction of input words that must match.
	FractionFloor float64 `yaml:"fraction_floor"`

	// MinMatches is the absolute match-count requirement, capped at the
	// input's word count.
	MinMatches int `yaml:"min_matches"`

	// ScoreFloor is the combined-score floor the best candidate must exceed.
	ScoreFloor float64 `yaml:"score_floor"`
}

// OracleConfig configures the remote verse oracle.
type OracleConfig struct {
	// Provider selects and configures the LLM backing the oracle. An
	// empty name runs the engine in local-only mode: submissions the
	// corpus cannot resolve are rejected.
	Provider ProviderEntry `yaml:"provider"`

	// Temperature overrides the oracle's sampling temperature. Zero
	// keeps the built-in default.
	Temperature float64 `yaml:"temperature"`
}

// ProviderEntry is the common configuration block for an LLM provider.
// The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "gemini", "openai").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider (e.g., "gemini-2.0-flash").
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by the
	// standard fields above. Values may be strings, numbers, booleans, or nested maps.
	Options map[string]any `yaml:"options"`
}
