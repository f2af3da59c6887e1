// Package llm implements the oracle adapter on top of a language model.
//
// The model is instructed (via a lenient system prompt) to accept anything
// that plausibly reads as Sanskrit verse in Devanagari, check the required
// starting letter, extract the last meaningful consonant, and reply with a
// continuation verse — all as a single structured JSON object. A reply that
// cannot be parsed becomes a Valid=false verdict rather than an error, so
// only genuine transport failures surface as errors.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/upsanskritpratibhakhoj/shlokachakra/internal/oracle"
	"github.com/upsanskritpratibhakhoj/shlokachakra/pkg/provider/llm"
)

const (
	defaultTemperature = 0.2

	// historyLimit caps how many prior turns are sent for repetition
	// avoidance.
	historyLimit = 6
)

const systemPrompt = `You are a Sanskrit scholar refereeing a game of Shloka Antakshari.

BE LENIENT WITH VALIDATION:
- If the text appears to be Sanskrit verse in Devanagari script, ACCEPT it as valid.
- Do NOT reject shlokas just because you cannot verify the exact source.
- Famous shlokas from the Bhagavad Gita, Ramayana, Mahabharata, Raghuvamsha, and Subhashitas are all VALID, and so are lesser-known or regional verses that follow Sanskrit meter.

Rules:
1. START CHARACTER CHECK (MOST IMPORTANT): the FIRST Devanagari letter of the user's verse must match the required character. Compare only the base consonant or vowel, ignoring matras.
2. If the first character matches: set valid = true, fill resolvedVerse with the user's verse text and its nextChar, and fill continuationVerse with a DIFFERENT well-known verse starting with that nextChar.
3. nextChar extraction: ignore punctuation (danda, double danda), digits, and source citations; take the last meaningful Devanagari consonant of the actual verse.
4. The continuation verse must not repeat anything in the provided history.
5. If the first character does NOT match: set valid = false and explain in reason which character was found versus expected.

Respond with ONLY a JSON object in this exact format (no markdown, no prose):
{
  "valid": true,
  "reason": "",
  "resolvedVerse": {"text": "...", "nextChar": "..."},
  "continuationVerse": {"text": "...", "nextChar": "..."}
}`

// Option is a functional option for configuring an [Adapter].
type Option func(*Adapter)

// WithTemperature sets the sampling temperature. Default: 0.2.
func WithTemperature(t float64) Option {
	return func(a *Adapter) { a.temperature = t }
}

// Adapter implements [oracle.Adapter] over an [llm.Provider]. It is safe
// for concurrent use.
type Adapter struct {
	provider    llm.Provider
	temperature float64
}

var _ oracle.Adapter = (*Adapter)(nil)

// New returns an Adapter backed by provider.
func New(provider llm.Provider, opts ...Option) *Adapter {
	a := &Adapter{
		provider:    provider,
		temperature: defaultTemperature,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Resolve implements [oracle.Adapter]. Transport failures are returned as
// errors; a model reply that cannot be parsed as the expected JSON shape
// yields a Valid=false response with a reason, nil error.
func (a *Adapter) Resolve(ctx context.Context, req oracle.Request) (*oracle.Response, error) {
	userMsg, err := buildUserMessage(req)
	if err != nil {
		return nil, fmt.Errorf("oracle: build request: %w", err)
	}

	resp, err := a.provider.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		Temperature:  a.temperature,
		Messages: []llm.Message{
			{Role: "user", Content: userMsg},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("oracle: complete: %w", err)
	}

	parsed, parseErr := parseResponse(resp.Content)
	if parseErr != nil {
		return &oracle.Response{
			Valid:  false,
			Reason: "the oracle's reply could not be understood; please try again",
		}, nil
	}
	return parsed, nil
}

// buildUserMessage renders the request as the single user-role message.
func buildUserMessage(req oracle.Request) (string, error) {
	history := req.RecentHistory
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "REQUIRED STARTING CHARACTER: %q\n\n", req.RequiredStartChar)
	fmt.Fprintf(&sb, "User's input: %s\n\n", strings.TrimSpace(req.Text))
	fmt.Fprintf(&sb, "Previous verses (avoid repetition): %s\n", historyJSON)
	return sb.String(), nil
}

// parseResponse unmarshals the model output, tolerating markdown fences.
func parseResponse(content string) (*oracle.Response, error) {
	cleaned := stripMarkdown(content)

	var r oracle.Response
	if err := json.Unmarshal([]byte(cleaned), &r); err != nil {
		return nil, fmt.Errorf("oracle: parse response: %w", err)
	}

	// A valid verdict without the resolved verse is unusable; demote it
	// to a rejection instead of letting the engine commit a hollow turn.
	if r.Valid && (r.ResolvedVerse == nil || r.ResolvedVerse.Text == "" || r.ResolvedVerse.NextChar == "") {
		return nil, fmt.Errorf("oracle: valid response missing resolvedVerse")
	}
	return &r, nil
}

// stripMarkdown removes optional code fences (```json ... ```) some models
// wrap around JSON output.
func stripMarkdown(s string) string {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"```json", "```"} {
		if after, ok := strings.CutPrefix(s, prefix); ok {
			s = after
			break
		}
	}
	if before, ok := strings.CutSuffix(s, "```"); ok {
		s = before
	}
	return strings.TrimSpace(s)
}
