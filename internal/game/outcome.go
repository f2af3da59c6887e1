package game

// RejectReason classifies why a submitted turn was not accepted. Rejections
// never mutate session state.
type RejectReason string

const (
	// RejectEmptyInput means the submission was empty after normalization.
	RejectEmptyInput RejectReason = "empty_input"

	// RejectWrongStartChar means the submission does not begin with the
	// required letter. This gate is absolute; no fuzzy similarity can
	// override it.
	RejectWrongStartChar RejectReason = "wrong_start_char"

	// RejectAlreadyUsed means the resolved verse was already played in
	// this session.
	RejectAlreadyUsed RejectReason = "already_used"

	// RejectNotAVerse means neither the local corpus nor the oracle could
	// recognise the submission as a verse.
	RejectNotAVerse RejectReason = "not_a_verse"

	// RejectAdapterError means the remote oracle failed while it was
	// needed to resolve the turn.
	RejectAdapterError RejectReason = "adapter_error"
)

// Method identifies which resolution path validated a turn.
type Method string

const (
	// MethodLocal means the turn was resolved against the embedded corpus.
	MethodLocal Method = "local"

	// MethodOracle means the turn was resolved by the remote oracle.
	MethodOracle Method = "oracle"
)

// VerseRef is a resolved verse together with the letter the following verse
// must start with.
type VerseRef struct {
	Text     string `json:"text"`
	NextChar string `json:"nextChar"`
}

// TurnOutcome is the result of resolving one submitted turn.
type TurnOutcome struct {
	// Accepted reports whether the turn committed. When false, Reason and
	// Message describe the rejection and no session state changed.
	Accepted bool         `json:"accepted"`
	Reason   RejectReason `json:"reason,omitempty"`
	Message  string       `json:"message,omitempty"`

	// Method is the resolution path that produced this outcome.
	Method Method `json:"method"`

	// PlayerVerse is the canonical verse the submission resolved to. Set
	// only when Accepted.
	PlayerVerse *VerseRef `json:"playerVerse,omitempty"`

	// Reply is the continuation verse served back to the player. Nil when
	// NoContinuation is set.
	Reply *VerseRef `json:"reply,omitempty"`

	// NoContinuation warns that the player's verse was accepted but no
	// unused continuation could be found; the chain continues from the
	// player verse's own next letter.
	NoContinuation bool `json:"noContinuation,omitempty"`

	// MatchScore is the combined ranking score of the local match. Zero
	// for oracle resolutions and rejections.
	MatchScore float64 `json:"matchScore,omitempty"`

	// Score is the session total after this turn.
	Score int `json:"score"`

	// RequiredChar is the letter the next player verse must start with.
	RequiredChar string `json:"requiredChar"`
}
