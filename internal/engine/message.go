package engine

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/KailasMahavarkar/syncboard/internal/event"
)

// Message is the ledger's record of one chat message. Deleted records are
// kept as tombstones and never leave the engine.
type Message struct {
	ID        string
	Sender    string
	Content   string
	CreatedAt int64
	Edited    bool
	EditedAt  int64
	Deleted   bool
}

// View returns the wire representation of the message.
func (m *Message) View() event.Message {
	return event.Message{
		ID:        m.ID,
		Sender:    m.Sender,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
		Edited:    m.Edited,
		EditedAt:  m.EditedAt,
	}
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// newMessageID returns a ULID. The shared monotonic entropy source keeps
// ids sortable by arrival even within the same millisecond.
func newMessageID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Now(), entropy).String()
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
