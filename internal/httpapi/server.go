// Package httpapi exposes the game engine over HTTP: a small JSON API for
// creating games and submitting turns, a WebSocket event stream per game,
// health and readiness probes, and the Prometheus metrics endpoint.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/upsanskritpratibhakhoj/shlokachakra/internal/corpus"
	"github.com/upsanskritpratibhakhoj/shlokachakra/internal/game"
	"github.com/upsanskritpratibhakhoj/shlokachakra/internal/observe"
)

// checkTimeout is the maximum time a single readiness check may take.
const checkTimeout = 5 * time.Second

// Checker is a named readiness check. Check must return nil when the
// dependency is healthy and respect context cancellation.
type Checker struct {
	Name  string
	Check func(ctx context.Context) error
}

// Option is a functional option for configuring a [Server].
type Option func(*Server)

// WithMetrics replaces the metrics instance used by the HTTP middleware.
// Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithCheckers adds readiness checks evaluated by /readyz.
func WithCheckers(checkers ...Checker) Option {
	return func(s *Server) { s.checkers = append(s.checkers, checkers...) }
}

// Server routes HTTP traffic to the game engine.
type Server struct {
	engine  *game.Engine
	index   *corpus.Index
	metrics *observe.Metrics

	games    *registry
	events   *eventHub
	checkers []Checker
}

// New creates a Server over the given engine and corpus index.
func New(engine *game.Engine, index *corpus.Index, opts ...Option) *Server {
	s := &Server{
		engine:  engine,
		index:   index,
		metrics: observe.DefaultMetrics(),
		games:   newRegistry(),
		events:  newEventHub(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the fully-routed HTTP handler, wrapped in the
// observability middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/games", s.handleCreateGame)
	mux.HandleFunc("GET /v1/games/{id}", s.handleGetGame)
	mux.HandleFunc("POST /v1/games/{id}/turns", s.handleSubmitTurn)
	mux.HandleFunc("POST /v1/games/{id}/restart", s.handleRestart)
	mux.HandleFunc("POST /v1/games/{id}/terminate", s.handleTerminate)
	mux.HandleFunc("GET /v1/games/{id}/events", s.handleEvents)
	mux.HandleFunc("GET /v1/stats", s.handleStats)

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)
	mux.Handle("GET /metrics", promhttp.Handler())

	return observe.Middleware(s.metrics)(mux)
}

// createGameRequest is the optional body of POST /v1/games.
type createGameRequest struct {
	// StartChar requests an opening verse beginning with this letter.
	StartChar string `json:"startChar"`
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if r.Body != nil {
		// The body is optional; an empty request picks a random opening.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	var opts []game.StartOption
	if req.StartChar != "" {
		opts = append(opts, game.WithOpeningChar(req.StartChar))
	}

	sess, err := s.engine.StartSession(r.Context(), opts...)
	if err != nil {
		if errors.Is(err, game.ErrNoOpening) {
			writeError(w, http.StatusBadRequest, "no_opening", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "start_failed", err.Error())
		return
	}
	s.games.add(sess)
	writeJSON(w, http.StatusCreated, sess.Snapshot())
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.games.get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "unknown game "+r.PathValue("id"))
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// turnRequest is the body of POST /v1/games/{id}/turns.
type turnRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleSubmitTurn(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.games.get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "unknown game "+r.PathValue("id"))
		return
	}

	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body: "+err.Error())
		return
	}

	out, err := s.engine.SubmitTurn(r.Context(), sess, req.Text)
	switch {
	case errors.Is(err, game.ErrTurnInFlight):
		writeError(w, http.StatusConflict, "turn_in_flight", err.Error())
		return
	case errors.Is(err, game.ErrSessionTerminated):
		writeError(w, http.StatusGone, "terminated", err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}

	s.publishTurn(r.Context(), sess.ID(), out)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.games.get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "unknown game "+r.PathValue("id"))
		return
	}

	if err := s.engine.Restart(r.Context(), sess); err != nil {
		if errors.Is(err, game.ErrTurnInFlight) {
			writeError(w, http.StatusConflict, "turn_in_flight", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}

	view := sess.Snapshot()
	s.events.publish(sess.ID(), Event{
		Type:         EventRestart,
		GameID:       sess.ID(),
		RequiredChar: view.RequiredChar,
	})
	writeJSON(w, http.StatusOK, view)
}

// terminateRequest is the body of POST /v1/games/{id}/terminate.
type terminateRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleTerminate(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.games.get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "unknown game "+r.PathValue("id"))
		return
	}

	var req terminateRequest
	if r.Body != nil {
		// The body is optional; a missing reason defaults below.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if req.Reason == "" {
		req.Reason = "terminated by request"
	}

	if err := s.engine.Terminate(r.Context(), sess, req.Reason); err != nil {
		if errors.Is(err, game.ErrSessionTerminated) {
			writeError(w, http.StatusGone, "terminated", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}

	view := sess.Snapshot()
	s.events.publish(sess.ID(), Event{
		Type:   EventTerminate,
		GameID: sess.ID(),
		Score:  view.Score,
		Reason: req.Reason,
	})
	writeJSON(w, http.StatusOK, view)
}

// statsResponse is the body of GET /v1/stats.
type statsResponse struct {
	Games        int            `json:"games"`
	CorpusVerses int            `json:"corpusVerses"`
	ByStartChar  map[string]int `json:"byStartChar"`
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statsResponse{
		Games:        s.games.len(),
		CorpusVerses: s.index.Len(),
		ByStartChar:  s.index.Stats(),
	})
}

// healthResult is the JSON response body for health endpoints.
type healthResult struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// handleHealthz is a liveness probe that always returns 200 OK.
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResult{Status: "ok"})
}

// handleReadyz returns 200 only when every registered [Checker] passes.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string, len(s.checkers))
	allOK := true

	for _, c := range s.checkers {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		err := c.Check(ctx)
		cancel()

		if err != nil {
			checks[c.Name] = "fail: " + err.Error()
			allOK = false
		} else {
			checks[c.Name] = "ok"
		}
	}

	res := healthResult{Status: "ok", Checks: checks}
	status := http.StatusOK
	if !allOK {
		res.Status = "fail"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, res)
}

// errorBody is the JSON error envelope shared by all handlers.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: code, Message: msg})
}

// writeJSON encodes v as JSON with the given status code. On encoding
// failure it falls back to a plain-text 500 response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"encoding_failed"}`, http.StatusInternalServerError)
	}
}
