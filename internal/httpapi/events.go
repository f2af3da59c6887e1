package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/coder/websocket"

	"github.com/upsanskritpratibhakhoj/shlokachakra/internal/game"
	"github.com/upsanskritpratibhakhoj/shlokachakra/internal/observe"
)

// Event types published on a game's event stream.
const (
	EventTurn      = "turn"
	EventRestart   = "restart"
	EventTerminate = "terminate"
)

// Event is one message on a game's WebSocket event stream.
type Event struct {
	Type   string `json:"type"`
	GameID string `json:"gameId"`

	// Outcome carries the resolved turn for EventTurn messages.
	Outcome *game.TurnOutcome `json:"outcome,omitempty"`

	// RequiredChar and Score mirror the session state after the event.
	RequiredChar string `json:"requiredChar,omitempty"`
	Score        int    `json:"score"`

	// Reason explains an EventTerminate message.
	Reason string `json:"reason,omitempty"`
}

// subscriberBuffer bounds per-subscriber queueing; events beyond it are
// dropped rather than blocking the publisher.
const subscriberBuffer = 16

// eventHub fans out game events to WebSocket subscribers.
type eventHub struct {
	mu   sync.RWMutex
	subs map[string]map[chan Event]struct{}
}

func newEventHub() *eventHub {
	return &eventHub{subs: make(map[string]map[chan Event]struct{})}
}

// subscribe registers a new subscriber for gameID. The returned cancel
// function must be called exactly once.
func (h *eventHub) subscribe(gameID string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	if h.subs[gameID] == nil {
		h.subs[gameID] = make(map[chan Event]struct{})
	}
	h.subs[gameID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		delete(h.subs[gameID], ch)
		if len(h.subs[gameID]) == 0 {
			delete(h.subs, gameID)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// publish delivers ev to every subscriber of gameID. Slow subscribers with
// a full buffer miss the event.
func (h *eventHub) publish(gameID string, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[gameID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// handleEvents upgrades the request to a WebSocket and streams game events
// until the client disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.games.get(id); !ok {
		writeError(w, http.StatusNotFound, "not_found", "unknown game "+id)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		observe.Logger(r.Context()).Warn("websocket accept failed", "game_id", id, "err", err)
		return
	}
	defer ws.Close(websocket.StatusNormalClosure, "stream ended")

	events, cancel := s.events.subscribe(id)
	defer cancel()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			data, err := json.Marshal(ev)
			if err != nil {
				observe.Logger(ctx).Error("marshal event", "err", err)
				continue
			}
			if err := ws.Write(ctx, websocket.MessageText, data); err != nil {
				if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
					observe.Logger(ctx).Debug("websocket write failed", "game_id", id, "err", err)
				}
				return
			}
			if ev.Type == EventTerminate {
				return
			}
		}
	}
}

// publishTurn emits a turn event for an accepted or rejected outcome.
func (s *Server) publishTurn(_ context.Context, gameID string, out game.TurnOutcome) {
	s.events.publish(gameID, Event{
		Type:         EventTurn,
		GameID:       gameID,
		Outcome:      &out,
		RequiredChar: out.RequiredChar,
		Score:        out.Score,
	})
}
