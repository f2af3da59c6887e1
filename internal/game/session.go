// Package game implements the turn resolution engine: it owns session
// state (verse chain, score, non-repetition set) and resolves submitted
// turns through local corpus matching with a remote oracle fallback.
//
// A [Session] is mutated only when a turn commits. Rejected turns, adapter
// failures, and in-flight collisions leave the session exactly as it was,
// so a player can retry without side effects.
package game

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

// Speaker identifies who produced a turn log entry.
type Speaker string

const (
	// SpeakerPlayer marks verses submitted by the human player.
	SpeakerPlayer Speaker = "player"

	// SpeakerEngine marks opening and continuation verses served by the
	// engine itself.
	SpeakerEngine Speaker = "engine"

	// SpeakerSystem marks administrative entries such as termination notes.
	SpeakerSystem Speaker = "system"
)

// TurnRecord is one entry in a session's turn log.
type TurnRecord struct {
	Speaker Speaker   `json:"speaker"`
	Text    string    `json:"text"`
	At      time.Time `json:"at"`
}

// Session holds the full mutable state of one game. All fields behind mu
// are owned by the [Engine]; external callers observe state through
// [Session.Snapshot].
type Session struct {
	id        string
	startedAt time.Time

	mu           sync.Mutex
	requiredChar string
	score        int
	turnLog      []TurnRecord
	usedVerses   map[string]struct{}
	inFlight     bool
	terminated   bool
	termReason   string
}

// ID returns the session's immutable identifier.
func (s *Session) ID() string { return s.id }

// View is an immutable snapshot of a session's observable state.
type View struct {
	ID                string       `json:"id"`
	StartedAt         time.Time    `json:"startedAt"`
	RequiredChar      string       `json:"requiredChar"`
	Score             int          `json:"score"`
	TurnLog           []TurnRecord `json:"turnLog"`
	Terminated        bool         `json:"terminated"`
	TerminationReason string       `json:"terminationReason,omitempty"`
}

// Snapshot returns a copy of the session's observable state. The returned
// view does not alias session internals and is safe to serialise.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := make([]TurnRecord, len(s.turnLog))
	copy(log, s.turnLog)

	return View{
		ID:                s.id,
		StartedAt:         s.startedAt,
		RequiredChar:      s.requiredChar,
		Score:             s.score,
		TurnLog:           log,
		Terminated:        s.terminated,
		TerminationReason: s.termReason,
	}
}

// newSessionID builds a unique human-scannable session ID such as
// "game-20260901T120000Z-1a2b".
func newSessionID(now time.Time) string {
	return fmt.Sprintf("game-%s-%04x",
		now.Format("20060102T150405Z"),
		rand.IntN(0x10000),
	)
}
