package hub

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/KailasMahavarkar/syncboard/internal/engine"
	"github.com/KailasMahavarkar/syncboard/internal/event"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	registry := engine.NewRegistry()
	store := engine.NewStore()
	router := engine.NewRouter(registry, store, zap.NewNop())
	h := NewHub(router, Options{Workers: 1}, zap.NewNop())
	t.Cleanup(h.Stop)
	return h
}

// newTestClient wires a connection-less client straight into the engine so
// handleEvent can be driven without a websocket.
func newTestClient(h *Hub) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		hub:        h,
		egress:     make(chan event.Outbound, h.opts.EgressBuffer),
		log:        h.log,
		ctx:        ctx,
		cancel:     cancel,
		connClosed: make(chan struct{}),
	}
	c.ID = h.router.Connect(c)
	c.queue = h.queueFor(c.ID)
	return c
}

func drain(c *Client) []event.Outbound {
	var out []event.Outbound
	for {
		select {
		case ev := <-c.egress:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func payload(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func TestHandleEvent_RejectionGoesToOffenderOnly(t *testing.T) {
	req := require.New(t)
	h := newTestHub(t)

	member := newTestClient(h)
	h.handleEvent(event.Envelope{Event: event.EventJoinRoom, Data: payload(t, event.JoinRoom{RoomID: "r1"})}, member)
	drain(member)

	// a send from a connection that never joined is rejected, not broadcast
	outsider := newTestClient(h)
	h.handleEvent(event.Envelope{Event: event.EventSendMessage, Data: payload(t, event.SendMessage{Content: "hi"})}, outsider)

	rejections := drain(outsider)
	req.Len(rejections, 1)
	req.Equal(event.EventError, rejections[0].Event)
	req.Equal(engine.CodeNotJoined, rejections[0].Data.(event.ErrorPayload).Code)
	req.Empty(drain(member))
}

func TestHandleEvent_ErrorCodes(t *testing.T) {
	req := require.New(t)
	h := newTestHub(t)

	c := newTestClient(h)
	h.handleEvent(event.Envelope{Event: event.EventJoinRoom, Data: payload(t, event.JoinRoom{RoomID: "r1"})}, c)
	drain(c)

	cases := []struct {
		env  event.Envelope
		code string
	}{
		{event.Envelope{Event: event.EventSendMessage, Data: payload(t, event.SendMessage{Content: "  "})}, engine.CodeValidation},
		{event.Envelope{Event: event.EventEditMessage, Data: payload(t, event.EditMessage{ID: "missing", Content: "x"})}, engine.CodeNotFound},
		{event.Envelope{Event: event.EventDeleteMessage, Data: json.RawMessage(`{broken`)}, engine.CodeValidation},
		{event.Envelope{Event: "no_such_event"}, engine.CodeValidation},
	}
	for _, tc := range cases {
		h.handleEvent(tc.env, c)
		got := drain(c)
		req.Len(got, 1, "event %q", tc.env.Event)
		req.Equal(event.EventError, got[0].Event)
		req.Equal(tc.code, got[0].Data.(event.ErrorPayload).Code)
	}
}

func TestHandleEvent_SuccessEmitsNoError(t *testing.T) {
	req := require.New(t)
	h := newTestHub(t)

	c := newTestClient(h)
	h.handleEvent(event.Envelope{Event: event.EventJoinRoom, Data: payload(t, event.JoinRoom{RoomID: "r1"})}, c)
	drain(c)

	h.handleEvent(event.Envelope{Event: event.EventSendMessage, Data: payload(t, event.SendMessage{Content: "hello"})}, c)
	got := drain(c)
	req.Len(got, 1)
	req.Equal(event.EventMessageAdded, got[0].Event)
}

func TestDecode(t *testing.T) {
	req := require.New(t)

	var p event.JoinRoom
	req.NoError(decode(json.RawMessage(`{"room_id":"r1"}`), &p))
	req.Equal("r1", p.RoomID)

	err := decode(nil, &p)
	req.ErrorIs(err, engine.ErrValidation)

	err = decode(json.RawMessage(`{not json`), &p)
	req.ErrorIs(err, engine.ErrValidation)
}

func TestCheckOrigin(t *testing.T) {
	req := require.New(t)

	open := &Hub{opts: Options{}}
	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Origin", "http://anywhere.example")
	req.True(open.checkOrigin(r))

	restricted := &Hub{opts: Options{AllowedOrigins: []string{"http://localhost:5173"}}}
	req.False(restricted.checkOrigin(r))

	r.Header.Set("Origin", "http://localhost:5173")
	req.True(restricted.checkOrigin(r))
}

func TestQueueForIsStable(t *testing.T) {
	req := require.New(t)
	h := newTestHub(t)

	// a connection must always land on the same worker queue
	req.Equal(getShard("client-a", 16), getShard("client-a", 16))
	req.Equal(0, getShard("", 16))
	for _, id := range []string{"a", "b", "c", "d"} {
		shard := getShard(id, 16)
		req.GreaterOrEqual(shard, 0)
		req.Less(shard, 16)
	}

	c := newTestClient(h)
	req.Equal(h.queueFor(c.ID), c.queue)
}

func TestOptionsDefaults(t *testing.T) {
	req := require.New(t)

	opts := Options{}.withDefaults()
	req.Equal(256, opts.EgressBuffer)
	req.Equal(4096, opts.InboundBuffer)
	req.Equal(16, opts.Workers)
	req.Equal(int64(64*1024), opts.MaxMessageBytes)

	tuned := Options{Workers: 2, EgressBuffer: 8}.withDefaults()
	req.Equal(2, tuned.Workers)
	req.Equal(8, tuned.EgressBuffer)
}
