package engine

import (
	"fmt"
	"strings"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/KailasMahavarkar/syncboard/internal/event"
	"github.com/KailasMahavarkar/syncboard/internal/metrics"
)

// session is one connection's place in the state machine: Connected while
// roomID is empty, Joined while it names a room, Disconnected once gone is
// set. Its mutex is held across every action of that identity, so the
// read-session / mutate-presence / write-session transition is atomic even
// when the transport processes a connection's frames concurrently.
type session struct {
	mu     sync.Mutex
	roomID string
	gone   bool
}

// Router is the per-connection state machine and dispatch point. Every
// mutating action is applied and fanned out under the target room's lock,
// so broadcasts reflect a total order consistent with arrival.
type Router struct {
	registry *Registry
	store    *Store
	log      *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*session
}

func NewRouter(registry *Registry, store *Store, log *zap.Logger) *Router {
	return &Router{
		registry: registry,
		store:    store,
		log:      log,
		sessions: make(map[string]*session),
	}
}

// Connect registers a fresh identity for the transport's sink.
func (rt *Router) Connect(sink Sink) string {
	id := rt.registry.Register(sink)
	rt.mu.Lock()
	rt.sessions[id] = &session{}
	rt.mu.Unlock()

	metrics.ConnectionsActive.Set(float64(rt.registry.Count()))
	rt.log.Info("connection registered", zap.String("identity", id))
	return id
}

// Disconnect tears down whatever state the identity still holds. Safe to
// call more than once: only the first call does anything.
func (rt *Router) Disconnect(id string) {
	s := rt.getSession(id)
	if s == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gone {
		return
	}
	s.gone = true

	rt.registry.Unregister(id)
	metrics.ConnectionsActive.Set(float64(rt.registry.Count()))

	if s.roomID != "" {
		rt.leaveRoom(id, s.roomID)
		s.roomID = ""
	}
	rt.dropSession(id)
	rt.log.Info("connection gone", zap.String("identity", id))
}

// JoinRoom puts the identity into the room, creating it on first join.
// Switching rooms implies leaving the old one first. The joiner alone gets
// a history snapshot; the rest of the room gets user_joined.
func (rt *Router) JoinRoom(identity, roomID string) error {
	if strings.TrimSpace(roomID) == "" {
		return fmt.Errorf("empty room id: %w", ErrValidation)
	}

	s := rt.getSession(identity)
	if s == nil {
		return fmt.Errorf("unknown identity %s: %w", identity, ErrNotJoined)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gone {
		return fmt.Errorf("identity %s already disconnected: %w", identity, ErrNotJoined)
	}

	if s.roomID != "" && s.roomID != roomID {
		rt.leaveRoom(identity, s.roomID)
		s.roomID = ""
	}

	for {
		room := rt.store.GetOrCreate(roomID)
		room.mu.Lock()
		if room.closed {
			// destroyed between GetOrCreate and the lock, take a fresh one
			room.mu.Unlock()
			continue
		}

		added := room.Presence.Add(identity)
		snapshot := event.HistorySnapshot{
			Messages: lo.Map(room.Ledger.History(), func(m *Message, _ int) event.Message {
				return m.View()
			}),
			Canvas: room.Canvas.Snapshot(),
		}
		rt.deliverTo(identity, event.Outbound{Event: event.EventHistorySnapshot, Data: snapshot})
		if added {
			rt.broadcastLocked(room, event.Outbound{
				Event: event.EventUserJoined,
				Data:  event.UserJoined{Identity: identity},
			}, identity)
		}
		room.mu.Unlock()
		break
	}

	s.roomID = roomID
	metrics.RoomsActive.Set(float64(rt.store.Count()))
	rt.log.Info("joined room", zap.String("identity", identity), zap.String("room", roomID))
	return nil
}

// LeaveRoom takes the identity back to the Connected state.
func (rt *Router) LeaveRoom(identity string) error {
	s := rt.getSession(identity)
	if s == nil {
		return fmt.Errorf("unknown identity %s: %w", identity, ErrNotJoined)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gone || s.roomID == "" {
		return fmt.Errorf("leave without a joined room: %w", ErrNotJoined)
	}

	rt.leaveRoom(identity, s.roomID)
	s.roomID = ""
	return nil
}

// SendMessage appends to the room's ledger and echoes message_added to the
// whole presence set, sender included.
func (rt *Router) SendMessage(identity, content string) error {
	s, room, err := rt.joinedRoom(identity)
	if err != nil {
		return err
	}
	defer s.mu.Unlock()
	room.mu.Lock()
	defer room.mu.Unlock()

	m, err := room.Ledger.Append(identity, content)
	if err != nil {
		return err
	}
	rt.broadcastLocked(room, event.Outbound{Event: event.EventMessageAdded, Data: m.View()})
	metrics.MessagesTotal.WithLabelValues("send").Inc()
	return nil
}

func (rt *Router) EditMessage(identity, messageID, content string) error {
	s, room, err := rt.joinedRoom(identity)
	if err != nil {
		return err
	}
	defer s.mu.Unlock()
	room.mu.Lock()
	defer room.mu.Unlock()

	m, err := room.Ledger.Edit(messageID, identity, content)
	if err != nil {
		return err
	}
	rt.broadcastLocked(room, event.Outbound{Event: event.EventMessageEdited, Data: event.MessageEdited{
		ID:       m.ID,
		Content:  m.Content,
		EditedAt: m.EditedAt,
	}})
	metrics.MessagesTotal.WithLabelValues("edit").Inc()
	return nil
}

func (rt *Router) DeleteMessage(identity, messageID string) error {
	s, room, err := rt.joinedRoom(identity)
	if err != nil {
		return err
	}
	defer s.mu.Unlock()
	room.mu.Lock()
	defer room.mu.Unlock()

	m, err := room.Ledger.Delete(messageID, identity)
	if err != nil {
		return err
	}
	rt.broadcastLocked(room, event.Outbound{Event: event.EventMessageDeleted, Data: event.MessageDeleted{ID: m.ID}})
	metrics.MessagesTotal.WithLabelValues("delete").Inc()
	return nil
}

// DrawStroke replaces the room canvas and broadcasts the new buffer.
func (rt *Router) DrawStroke(identity string, data []byte) error {
	s, room, err := rt.joinedRoom(identity)
	if err != nil {
		return err
	}
	defer s.mu.Unlock()
	room.mu.Lock()
	defer room.mu.Unlock()

	room.Canvas.ApplyStroke(data)
	rt.broadcastLocked(room, event.Outbound{Event: event.EventCanvasUpdated, Data: event.CanvasUpdated{
		Data: room.Canvas.Snapshot(),
	}})
	metrics.StrokesTotal.Inc()
	return nil
}

// leaveRoom removes the identity from the room, tells the remaining
// members and destroys the room if it emptied. Callers hold the session
// lock.
func (rt *Router) leaveRoom(identity, roomID string) {
	room, ok := rt.store.Get(roomID)
	if !ok {
		return
	}

	room.mu.Lock()
	removed := room.Presence.Remove(identity)
	if removed {
		rt.broadcastLocked(room, event.Outbound{
			Event: event.EventUserLeft,
			Data:  event.UserLeft{Identity: identity},
		}, identity)
	}
	room.mu.Unlock()

	if removed && rt.store.ReleaseIfEmpty(roomID) {
		rt.log.Info("room destroyed", zap.String("room", roomID))
	}
	metrics.RoomsActive.Set(float64(rt.store.Count()))
}

// joinedRoom resolves the identity's session to a live room. On success
// the session lock is held and the caller must release it; this keeps the
// room membership stable for the duration of the action.
func (rt *Router) joinedRoom(identity string) (*session, *Room, error) {
	s := rt.getSession(identity)
	if s == nil {
		return nil, nil, fmt.Errorf("unknown identity %s: %w", identity, ErrNotJoined)
	}
	s.mu.Lock()
	if s.gone || s.roomID == "" {
		s.mu.Unlock()
		return nil, nil, fmt.Errorf("identity %s has no room: %w", identity, ErrNotJoined)
	}
	room, ok := rt.store.Get(s.roomID)
	if !ok {
		s.mu.Unlock()
		return nil, nil, fmt.Errorf("room %s is gone: %w", s.roomID, ErrNotJoined)
	}
	return s, room, nil
}

// broadcastLocked fans the event out to every present member except the
// excluded ones. Callers hold the room lock; delivery is a non-blocking
// enqueue so a slow client cannot stall the room.
func (rt *Router) broadcastLocked(room *Room, ev event.Outbound, exclude ...string) {
	for _, id := range room.Presence.Members() {
		if lo.Contains(exclude, id) {
			continue
		}
		rt.deliverTo(id, ev)
	}
}

func (rt *Router) deliverTo(identity string, ev event.Outbound) {
	sink, ok := rt.registry.Lookup(identity)
	if !ok {
		return
	}
	if sink.Deliver(ev) {
		metrics.EventsFanout.Inc()
		return
	}
	rt.log.Warn("dropped event for unresponsive client",
		zap.String("identity", identity),
		zap.String("event", ev.Event))
}

func (rt *Router) getSession(identity string) *session {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.sessions[identity]
}

func (rt *Router) dropSession(identity string) {
	rt.mu.Lock()
	delete(rt.sessions, identity)
	rt.mu.Unlock()
}
