package engine

import (
	"fmt"
	"strings"
)

// Ledger is the append-ordered message log of one room. It is not safe for
// concurrent use on its own: all calls go through the owning room's lock.
type Ledger struct {
	order []*Message
	byID  map[string]*Message
}

func NewLedger() *Ledger {
	return &Ledger{byID: make(map[string]*Message)}
}

// live returns the message for id unless it is missing or tombstoned.
func (l *Ledger) live(id string) *Message {
	m, ok := l.byID[id]
	if !ok || m.Deleted {
		return nil
	}
	return m
}

// Append records a new message and assigns its id and creation time.
func (l *Ledger) Append(sender, content string) (*Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("empty message content: %w", ErrValidation)
	}

	m := &Message{
		ID:        newMessageID(),
		Sender:    sender,
		Content:   content,
		CreatedAt: nowMillis(),
	}
	l.order = append(l.order, m)
	l.byID[m.ID] = m
	return m, nil
}

// Edit overwrites the content of a live message. Only the original sender
// may edit; id, sender and creation time never change.
func (l *Ledger) Edit(id, requester, content string) (*Message, error) {
	m := l.live(id)
	if m == nil {
		return nil, fmt.Errorf("message %s: %w", id, ErrNotFound)
	}
	if m.Sender != requester {
		return nil, fmt.Errorf("message %s belongs to another sender: %w", id, ErrPermission)
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("empty message content: %w", ErrValidation)
	}

	m.Content = content
	m.Edited = true
	m.EditedAt = nowMillis()
	return m, nil
}

// Delete tombstones a live message. The record stays in the log so a late
// edit or second delete resolves to not-found instead of racing.
func (l *Ledger) Delete(id, requester string) (*Message, error) {
	m := l.live(id)
	if m == nil {
		return nil, fmt.Errorf("message %s: %w", id, ErrNotFound)
	}
	if m.Sender != requester {
		return nil, fmt.Errorf("message %s belongs to another sender: %w", id, ErrPermission)
	}

	m.Deleted = true
	return m, nil
}

// History returns the non-deleted messages in append order. The slice is
// freshly built on every call.
func (l *Ledger) History() []*Message {
	out := make([]*Message, 0, len(l.order))
	for _, m := range l.order {
		if !m.Deleted {
			out = append(out, m)
		}
	}
	return out
}

// Len counts live messages.
func (l *Ledger) Len() int {
	return len(l.History())
}
