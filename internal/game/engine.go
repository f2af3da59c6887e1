package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/upsanskritpratibhakhoj/shlokachakra/internal/corpus"
	"github.com/upsanskritpratibhakhoj/shlokachakra/internal/match"
	"github.com/upsanskritpratibhakhoj/shlokachakra/internal/observe"
	"github.com/upsanskritpratibhakhoj/shlokachakra/internal/oracle"
	"github.com/upsanskritpratibhakhoj/shlokachakra/internal/sanskrit"
	"github.com/upsanskritpratibhakhoj/shlokachakra/internal/translit"
)

// pointsPerTurn is awarded for every accepted turn.
const pointsPerTurn = 10

var (
	// ErrTurnInFlight is returned when a turn is submitted while another
	// turn for the same session is still being resolved.
	ErrTurnInFlight = errors.New("game: a turn is already being resolved for this session")

	// ErrSessionTerminated is returned for any operation on a terminated
	// session other than restart.
	ErrSessionTerminated = errors.New("game: session is terminated")

	// ErrEmptyCorpus is returned when a session cannot start because the
	// corpus holds no verses.
	ErrEmptyCorpus = errors.New("game: corpus has no verses")

	// ErrNoOpening is returned when no opening verse starts with the
	// requested letter.
	ErrNoOpening = errors.New("game: no opening verse with the requested start letter")
)

// Option is a functional option for configuring an [Engine].
type Option func(*Engine)

// WithOracle attaches a remote verse oracle. providerName labels oracle
// metrics. Without an oracle the engine runs in local-only mode: anything
// the corpus matcher cannot resolve is rejected.
func WithOracle(a oracle.Adapter, providerName string) Option {
	return func(e *Engine) {
		e.oracle = a
		e.oracleName = providerName
	}
}

// WithMetrics replaces the metrics instance. Defaults to
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithTransliteration toggles Roman-input transliteration. Enabled by
// default; when disabled, Roman input will fail the start-letter gate.
func WithTransliteration(enabled bool) Option {
	return func(e *Engine) { e.translit = enabled }
}

// Engine resolves turns for any number of sessions. It is read-only after
// construction and safe for concurrent use; per-session state is guarded by
// each [Session].
type Engine struct {
	index   *corpus.Index
	matcher *match.Matcher
	oracle  oracle.Adapter
	metrics *observe.Metrics

	oracleName string
	translit   bool
}

// NewEngine creates an Engine over the given corpus index and matcher.
func NewEngine(index *corpus.Index, matcher *match.Matcher, opts ...Option) *Engine {
	e := &Engine{
		index:      index,
		matcher:    matcher,
		metrics:    observe.DefaultMetrics(),
		oracleName: "oracle",
		translit:   true,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// StartOption customizes session creation.
type StartOption func(*startConfig)

type startConfig struct {
	startChar string
}

// WithOpeningChar requests an opening verse beginning with the given
// letter instead of a fully random one.
func WithOpeningChar(char string) StartOption {
	return func(c *startConfig) { c.startChar = char }
}

// StartSession creates a fresh session opened with a random opening verse.
// The player must answer with a verse starting on the opening's next letter.
func (e *Engine) StartSession(ctx context.Context, opts ...StartOption) (*Session, error) {
	if e.index.Len() == 0 {
		return nil, ErrEmptyCorpus
	}

	var sc startConfig
	for _, o := range opts {
		o(&sc)
	}

	var opening corpus.Verse
	if sc.startChar != "" {
		var ok bool
		opening, ok = e.index.RandomOpeningStartingWith(sc.startChar)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrNoOpening, sc.startChar)
		}
	} else {
		opening = e.index.RandomOpening()
	}

	now := time.Now().UTC()
	s := &Session{
		id:           newSessionID(now),
		startedAt:    now,
		requiredChar: opening.NextChar,
		usedVerses:   map[string]struct{}{sanskrit.Normalize(opening.Text): {}},
		turnLog: []TurnRecord{
			{Speaker: SpeakerEngine, Text: opening.Text, At: now},
		},
	}

	e.metrics.ActiveGames.Add(ctx, 1)
	slog.Info("game started",
		"game_id", s.id,
		"required_char", opening.NextChar,
	)
	return s, nil
}

// Restart resets a session in place: new opening verse, empty chain, zero
// score. A terminated session becomes playable again. Fails with
// [ErrTurnInFlight] while a turn is being resolved.
func (e *Engine) Restart(ctx context.Context, s *Session) error {
	if e.index.Len() == 0 {
		return ErrEmptyCorpus
	}
	opening := e.index.RandomOpening()
	now := time.Now().UTC()

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return ErrTurnInFlight
	}
	wasTerminated := s.terminated
	s.terminated = false
	s.termReason = ""
	s.requiredChar = opening.NextChar
	s.score = 0
	s.usedVerses = map[string]struct{}{sanskrit.Normalize(opening.Text): {}}
	s.turnLog = []TurnRecord{
		{Speaker: SpeakerEngine, Text: opening.Text, At: now},
	}
	s.mu.Unlock()

	if wasTerminated {
		e.metrics.ActiveGames.Add(ctx, 1)
	}
	slog.Info("game restarted",
		"game_id", s.id,
		"required_char", opening.NextChar,
	)
	return nil
}

// Terminate ends a session. Further submissions fail with
// [ErrSessionTerminated] until the session is restarted.
func (e *Engine) Terminate(ctx context.Context, s *Session, reason string) error {
	s.mu.Lock()
	if s.terminated {
		s.mu.Unlock()
		return ErrSessionTerminated
	}
	s.terminated = true
	s.termReason = reason
	s.turnLog = append(s.turnLog, TurnRecord{
		Speaker: SpeakerSystem,
		Text:    "game ended: " + reason,
		At:      time.Now().UTC(),
	})
	s.mu.Unlock()

	e.metrics.ActiveGames.Add(ctx, -1)
	slog.Info("game terminated", "game_id", s.id, "reason", reason)
	return nil
}

// SubmitTurn resolves one player submission against the session. Exactly
// one turn per session may be in flight; concurrent submissions fail fast
// with [ErrTurnInFlight]. Session state changes only when the returned
// outcome is accepted.
func (e *Engine) SubmitTurn(ctx context.Context, s *Session, raw string) (TurnOutcome, error) {
	start := time.Now()
	ctx, span := observe.StartSpan(ctx, "game.submit_turn")
	defer span.End()

	s.mu.Lock()
	if s.terminated {
		s.mu.Unlock()
		return TurnOutcome{}, ErrSessionTerminated
	}
	if s.inFlight {
		s.mu.Unlock()
		return TurnOutcome{}, ErrTurnInFlight
	}
	s.inFlight = true
	required := s.requiredChar
	used := make(map[string]struct{}, len(s.usedVerses))
	for k := range s.usedVerses {
		used[k] = struct{}{}
	}
	history := historyFromLog(s.turnLog)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	out, err := e.resolve(ctx, s, raw, required, used, history)

	e.metrics.TurnDuration.Record(ctx, time.Since(start).Seconds())
	if err == nil {
		label := "rejected"
		if out.Accepted {
			label = "accepted"
		}
		e.metrics.RecordTurn(ctx, label, string(out.Method))
	}
	return out, err
}

// resolve runs the resolution pipeline over an immutable snapshot of the
// session: transliterate, gate on the required letter, dedup, match
// locally, then fall back to the oracle.
func (e *Engine) resolve(ctx context.Context, s *Session, raw, required string, used map[string]struct{}, history []oracle.HistoryEntry) (TurnOutcome, error) {
	processed := strings.TrimSpace(raw)
	if e.translit {
		processed = translit.ProcessInput(raw)
	}
	normalized := sanskrit.Normalize(processed)
	if normalized == "" {
		return e.reject(ctx, s, MethodLocal, RejectEmptyInput, "the submission is empty"), nil
	}

	if first := corpus.FirstLetter(processed); first != required {
		return e.reject(ctx, s, MethodLocal, RejectWrongStartChar,
			fmt.Sprintf("the verse must start with %q, got %q", required, first)), nil
	}

	// Exact resubmission of an already-played verse. Fuzzy submissions of
	// a played verse are caught again after matching.
	if _, dup := used[normalized]; dup {
		return e.reject(ctx, s, MethodLocal, RejectAlreadyUsed, "this verse was already played"), nil
	}

	matchStart := time.Now()
	verse, score, ok := e.matcher.Match(processed, required)
	e.metrics.MatchDuration.Record(ctx, time.Since(matchStart).Seconds())
	if ok {
		return e.acceptLocal(ctx, s, raw, verse, score, used, history)
	}

	if e.oracle == nil {
		return e.reject(ctx, s, MethodLocal, RejectNotAVerse, "could not recognise the verse"), nil
	}
	return e.resolveRemote(ctx, s, raw, processed, required, used, history)
}

// acceptLocal commits a corpus-matched turn. The continuation comes from
// the corpus when one is available, from the oracle otherwise, and the
// turn is still accepted with a warning when neither can serve one.
func (e *Engine) acceptLocal(ctx context.Context, s *Session, raw string, verse corpus.Verse, score float64, used map[string]struct{}, history []oracle.HistoryEntry) (TurnOutcome, error) {
	usedKey := sanskrit.Normalize(verse.Text)
	if _, dup := used[usedKey]; dup {
		return e.reject(ctx, s, MethodLocal, RejectAlreadyUsed, "this verse was already played"), nil
	}

	exclude := cloneSet(used)
	exclude[usedKey] = struct{}{}

	player := VerseRef{Text: verse.Text, NextChar: verse.NextChar}

	if reply, found := e.index.RandomStartingWith(verse.NextChar, exclude); found {
		e.metrics.RecordVerseServed(ctx, "corpus")
		return e.commit(ctx, s, raw, player, &VerseRef{Text: reply.Text, NextChar: reply.NextChar}, MethodLocal, score)
	}

	// Corpus exhausted for this letter. Ask the oracle for a continuation
	// seeded with the matched verse.
	if e.oracle != nil {
		resp, err := e.callOracle(ctx, oracle.Request{
			Text:              verse.Text,
			RequiredStartChar: verse.NextChar,
			RecentHistory:     history,
		})
		if err == nil && resp.Valid && resp.ContinuationVerse != nil && resp.ContinuationVerse.Text != "" {
			cont := resp.ContinuationVerse
			if _, dup := exclude[sanskrit.Normalize(cont.Text)]; !dup {
				e.metrics.RecordVerseServed(ctx, "oracle")
				nextChar := cont.NextChar
				if nextChar == "" {
					nextChar = corpus.LastLetter(cont.Text)
				}
				return e.commit(ctx, s, raw, player, &VerseRef{Text: cont.Text, NextChar: nextChar}, MethodLocal, score)
			}
		}
	}

	// Dead end. Accept the player's verse with a warning; the chain
	// continues from its own next letter.
	return e.commit(ctx, s, raw, player, nil, MethodLocal, score)
}

// resolveRemote asks the oracle to validate a submission the corpus could
// not match.
func (e *Engine) resolveRemote(ctx context.Context, s *Session, raw, processed, required string, used map[string]struct{}, history []oracle.HistoryEntry) (TurnOutcome, error) {
	resp, err := e.callOracle(ctx, oracle.Request{
		Text:              processed,
		RequiredStartChar: required,
		RecentHistory:     history,
	})
	if err != nil {
		return e.reject(ctx, s, MethodOracle, RejectAdapterError, "verse lookup failed: "+err.Error()), nil
	}
	if !resp.Valid || resp.ResolvedVerse == nil || resp.ResolvedVerse.Text == "" {
		msg := resp.Reason
		if msg == "" {
			msg = "could not recognise the verse"
		}
		return e.reject(ctx, s, MethodOracle, RejectNotAVerse, msg), nil
	}

	resolved := resp.ResolvedVerse
	usedKey := sanskrit.Normalize(resolved.Text)
	if _, dup := used[usedKey]; dup {
		return e.reject(ctx, s, MethodOracle, RejectAlreadyUsed, "this verse was already played"), nil
	}

	nextChar := resolved.NextChar
	if nextChar == "" {
		nextChar = corpus.LastLetter(resolved.Text)
	}
	player := VerseRef{Text: resolved.Text, NextChar: nextChar}

	exclude := cloneSet(used)
	exclude[usedKey] = struct{}{}

	var reply *VerseRef
	if cont := resp.ContinuationVerse; cont != nil && cont.Text != "" {
		if _, dup := exclude[sanskrit.Normalize(cont.Text)]; !dup {
			contNext := cont.NextChar
			if contNext == "" {
				contNext = corpus.LastLetter(cont.Text)
			}
			reply = &VerseRef{Text: cont.Text, NextChar: contNext}
			e.metrics.RecordVerseServed(ctx, "oracle")
		}
	}
	if reply == nil {
		if v, found := e.index.RandomStartingWith(nextChar, exclude); found {
			reply = &VerseRef{Text: v.Text, NextChar: v.NextChar}
			e.metrics.RecordVerseServed(ctx, "corpus")
		}
	}

	return e.commit(ctx, s, raw, player, reply, MethodOracle, 0)
}

// callOracle wraps the adapter call with a span and oracle metrics.
func (e *Engine) callOracle(ctx context.Context, req oracle.Request) (*oracle.Response, error) {
	ctx, span := observe.StartSpan(ctx, "game.oracle_resolve")
	defer span.End()

	start := time.Now()
	resp, err := e.oracle.Resolve(ctx, req)
	e.metrics.OracleDuration.Record(ctx, time.Since(start).Seconds())

	if err != nil {
		e.metrics.RecordOracleRequest(ctx, e.oracleName, "error")
		e.metrics.RecordOracleError(ctx, e.oracleName)
		return nil, err
	}
	e.metrics.RecordOracleRequest(ctx, e.oracleName, "ok")
	return resp, nil
}

// commit applies an accepted turn to the session. This is the only place
// session state mutates during resolution. The session is re-checked for
// termination because the oracle call happens outside the lock.
func (e *Engine) commit(ctx context.Context, s *Session, raw string, player VerseRef, reply *VerseRef, method Method, score float64) (TurnOutcome, error) {
	now := time.Now().UTC()

	s.mu.Lock()
	if s.terminated {
		s.mu.Unlock()
		return TurnOutcome{}, ErrSessionTerminated
	}
	s.usedVerses[sanskrit.Normalize(player.Text)] = struct{}{}
	s.turnLog = append(s.turnLog, TurnRecord{Speaker: SpeakerPlayer, Text: raw, At: now})
	s.score += pointsPerTurn
	if reply != nil {
		s.usedVerses[sanskrit.Normalize(reply.Text)] = struct{}{}
		s.turnLog = append(s.turnLog, TurnRecord{Speaker: SpeakerEngine, Text: reply.Text, At: now})
		s.requiredChar = reply.NextChar
	} else {
		s.requiredChar = player.NextChar
	}
	total := s.score
	required := s.requiredChar
	s.mu.Unlock()

	observe.Logger(ctx).Info("turn accepted",
		"game_id", s.id,
		"method", string(method),
		"score", total,
		"required_char", required,
		"has_reply", reply != nil,
	)

	return TurnOutcome{
		Accepted:       true,
		Method:         method,
		PlayerVerse:    &player,
		Reply:          reply,
		NoContinuation: reply == nil,
		MatchScore:     score,
		Score:          total,
		RequiredChar:   required,
	}, nil
}

// reject builds a rejection outcome without touching session state.
func (e *Engine) reject(ctx context.Context, s *Session, method Method, reason RejectReason, msg string) TurnOutcome {
	s.mu.Lock()
	total := s.score
	required := s.requiredChar
	s.mu.Unlock()

	observe.Logger(ctx).Info("turn rejected",
		"game_id", s.id,
		"reason", string(reason),
	)

	return TurnOutcome{
		Accepted:     false,
		Reason:       reason,
		Message:      msg,
		Method:       method,
		Score:        total,
		RequiredChar: required,
	}
}

// historyFromLog converts the turn log into oracle history entries. The
// adapter applies its own recency cap.
func historyFromLog(log []TurnRecord) []oracle.HistoryEntry {
	entries := make([]oracle.HistoryEntry, 0, len(log))
	for _, rec := range log {
		entries = append(entries, oracle.HistoryEntry{
			Speaker: string(rec.Speaker),
			Content: rec.Text,
		})
	}
	return entries
}

func cloneSet(set map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(set)+1)
	for k := range set {
		out[k] = struct{}{}
	}
	return out
}
