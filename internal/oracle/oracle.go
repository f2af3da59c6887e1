// Package oracle defines the remote fallback contract used when local
// verse resolution is inconclusive.
//
// The engine treats the adapter as an opaque, possibly slow, possibly
// failing remote collaborator. A nil error with Valid=false is a
// deterministic rejection (the oracle understood the input and said no); a
// non-nil error is a transport-level failure surfaced to the player as a
// retryable condition.
package oracle

import "context"

// HistoryEntry is one prior turn passed to the oracle for repetition
// avoidance.
type HistoryEntry struct {
	Speaker string `json:"speaker"`
	Content string `json:"content"`
}

// VerseRef is a verse as the oracle reports it: the text plus the letter a
// continuation must start with.
type VerseRef struct {
	Text     string `json:"text"`
	NextChar string `json:"nextChar"`
}

// Request asks the oracle to validate user input against the required
// starting letter and to produce a continuation verse.
type Request struct {
	// Text is the user's input after transliteration.
	Text string `json:"text"`

	// RequiredStartChar is the letter the input must begin with.
	RequiredStartChar string `json:"requiredStartChar"`

	// RecentHistory is the tail of the turn log, most recent last.
	RecentHistory []HistoryEntry `json:"recentHistory"`
}

// Response is the oracle's verdict.
type Response struct {
	// Valid reports whether the input was accepted as a verse starting
	// with the required letter.
	Valid bool `json:"valid"`

	// Reason explains a Valid=false verdict.
	Reason string `json:"reason,omitempty"`

	// ResolvedVerse is the user's verse as understood by the oracle.
	// Set only when Valid is true.
	ResolvedVerse *VerseRef `json:"resolvedVerse,omitempty"`

	// ContinuationVerse is the oracle's reply verse, starting with
	// ResolvedVerse.NextChar. May be nil even when Valid is true.
	ContinuationVerse *VerseRef `json:"continuationVerse,omitempty"`
}

// Adapter resolves input the local matcher could not.
//
// Implementations must be safe for concurrent use and must respect ctx:
// the engine holds its per-session turn slot for the whole call.
type Adapter interface {
	Resolve(ctx context.Context, req Request) (*Response, error)
}
