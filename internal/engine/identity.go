package engine

import (
	"sync"

	"github.com/google/uuid"

	"github.com/KailasMahavarkar/syncboard/internal/event"
)

// Sink is where the engine hands off outbound events for one connection.
// Deliver must not block: it returns false when the event could not be
// accepted, which the transport treats as that connection going away.
type Sink interface {
	Deliver(ev event.Outbound) bool
}

// Registry assigns each live connection an opaque identity and resolves
// identities back to their sinks during fan-out. Identities are never
// reused after unregister.
type Registry struct {
	mu    sync.RWMutex
	sinks map[string]Sink
}

func NewRegistry() *Registry {
	return &Registry{sinks: make(map[string]Sink)}
}

// Register issues a fresh identity for the given sink.
func (r *Registry) Register(s Sink) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.sinks[id] = s
	r.mu.Unlock()
	return id
}

// Unregister removes the identity. It reports whether the identity was
// still registered, so callers can make teardown idempotent.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sinks[id]; !ok {
		return false
	}
	delete(r.sinks, id)
	return true
}

func (r *Registry) Lookup(id string) (Sink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sinks[id]
	return s, ok
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sinks)
}
