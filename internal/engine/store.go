package engine

import "sync"

// Store owns the room-id to Room mapping. Rooms come into existence on the
// first join and are destroyed as soon as their presence set empties; a
// re-join after destruction gets a fresh room with empty history.
type Store struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewStore() *Store {
	return &Store{rooms: make(map[string]*Room)}
}

// GetOrCreate returns the live room for id, constructing it if absent.
// Callers must re-check room.closed under the room lock: a room handed out
// here may have been destroyed by a concurrent ReleaseIfEmpty before the
// caller locked it, in which case they retry.
func (s *Store) GetOrCreate(id string) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		r = newRoom(id)
		s.rooms[id] = r
	}
	return r
}

// Get returns the room for id without creating one.
func (s *Store) Get(id string) (*Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[id]
	return r, ok
}

// ReleaseIfEmpty destroys the room only if its presence set is empty. The
// closed flag is set under both the store and room locks, which is what
// keeps an in-flight join from landing in a destroyed room.
func (s *Store) ReleaseIfEmpty(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return false
	}

	r.mu.Lock()
	empty := r.Presence.Size() == 0
	if empty {
		r.closed = true
		delete(s.rooms, id)
	}
	r.mu.Unlock()
	return empty
}

// Count reports the number of live rooms.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// Stats maps each live room id to its member count, for the app server.
func (s *Store) Stats() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int, len(s.rooms))
	for id, r := range s.rooms {
		r.mu.Lock()
		out[id] = r.Presence.Size()
		r.mu.Unlock()
	}
	return out
}
