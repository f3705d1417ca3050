package engine

import "sync"

// Room bundles the mutable shared state of one room id: the message ledger,
// the presence set and the canvas buffer. The mutex serializes every
// mutating operation for the duration of its apply-and-fan-out, so all
// clients observe the same total order. Rooms for different ids never
// contend.
type Room struct {
	ID string

	mu       sync.Mutex
	closed   bool
	Ledger   *Ledger
	Presence *Presence
	Canvas   *Canvas
}

func newRoom(id string) *Room {
	return &Room{
		ID:       id,
		Ledger:   NewLedger(),
		Presence: NewPresence(),
		Canvas:   NewCanvas(),
	}
}
