package httpapi

import (
	"sync"

	"github.com/upsanskritpratibhakhoj/shlokachakra/internal/game"
)

// registry tracks live sessions by ID. It is safe for concurrent use.
type registry struct {
	mu    sync.RWMutex
	games map[string]*game.Session
}

func newRegistry() *registry {
	return &registry{games: make(map[string]*game.Session)}
}

func (r *registry) add(s *game.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.games[s.ID()] = s
}

func (r *registry) get(id string) (*game.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.games[id]
	return s, ok
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.games)
}
