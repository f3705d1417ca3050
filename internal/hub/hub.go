package hub

import (
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/KailasMahavarkar/syncboard/internal/engine"
	"github.com/KailasMahavarkar/syncboard/internal/event"
)

// Options tunes the hub's buffering and validation limits.
type Options struct {
	EgressBuffer    int
	InboundBuffer   int
	Workers         int
	MaxMessageBytes int64
	AllowedOrigins  []string
}

func (o Options) withDefaults() Options {
	if o.EgressBuffer <= 0 {
		o.EgressBuffer = 256
	}
	if o.InboundBuffer <= 0 {
		o.InboundBuffer = 4096
	}
	if o.Workers <= 0 {
		o.Workers = 16
	}
	if o.MaxMessageBytes <= 0 {
		o.MaxMessageBytes = 64 * 1024
	}
	return o
}

type inboundMessage struct {
	env    event.Envelope
	client *Client
}

// Hub is the transport adapter between websocket connections and the
// engine. It keeps no room state of its own: every action is decoded into
// its typed payload and handed to the router, and every router error goes
// back to the originating connection as an error event.
type Hub struct {
	router *engine.Router
	opts   Options
	log    *zap.Logger

	register   chan *Client
	unregister chan *Client

	// One queue per worker, and a client's frames always land on the same
	// queue: actions from one connection are processed in arrival order.
	inbound []chan inboundMessage

	mu      sync.RWMutex
	clients map[*Client]struct{}

	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	upgrader websocket.Upgrader
}

func NewHub(router *engine.Router, opts Options, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	opts = opts.withDefaults()

	h := &Hub{
		router:     router,
		opts:       opts,
		log:        log,
		register:   make(chan *Client, 1024),
		unregister: make(chan *Client, 1024),
		inbound:    make([]chan inboundMessage, opts.Workers),
		clients:    make(map[*Client]struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}
	for i := range h.inbound {
		h.inbound[i] = make(chan inboundMessage, opts.InboundBuffer) // buffer for burst handling
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}

	// run manager loop
	go h.run()

	// start worker loop, one per queue
	for i := 0; i < opts.Workers; i++ {
		h.wg.Add(1)
		go func(queue chan inboundMessage) {
			defer h.wg.Done()
			for {
				select {
				case <-h.ctx.Done():
					return
				case in, ok := <-queue:
					if !ok {
						return
					}

					h.handleEvent(in.env, in.client)
				}
			}
		}(h.inbound[i])
	}

	return h
}

// queueFor pins a client to one worker queue by hashing its identity.
func (h *Hub) queueFor(clientID string) chan inboundMessage {
	return h.inbound[getShard(clientID, len(h.inbound))]
}

func getShard(id string, n int) int {
	if id == "" {
		return 0
	}

	sum := sha1.Sum([]byte(id))
	return int(binary.BigEndian.Uint32(sum[:4]) % uint32(n))
}

// checkOrigin allows everything when no origins are configured, otherwise
// only the configured list.
func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.opts.AllowedOrigins) == 0 {
		return true
	}
	return lo.Contains(h.opts.AllowedOrigins, r.Header.Get("Origin"))
}

// handleEvent decodes one inbound action and dispatches it to the router.
func (h *Hub) handleEvent(env event.Envelope, c *Client) {
	var err error

	switch env.Event {
	case event.EventJoinRoom:
		var p event.JoinRoom
		if err = decode(env.Data, &p); err == nil {
			err = h.router.JoinRoom(c.ID, p.RoomID)
		}
	case event.EventLeaveRoom:
		err = h.router.LeaveRoom(c.ID)
	case event.EventSendMessage:
		var p event.SendMessage
		if err = decode(env.Data, &p); err == nil {
			err = h.router.SendMessage(c.ID, p.Content)
		}
	case event.EventEditMessage:
		var p event.EditMessage
		if err = decode(env.Data, &p); err == nil {
			err = h.router.EditMessage(c.ID, p.ID, p.Content)
		}
	case event.EventDeleteMessage:
		var p event.DeleteMessage
		if err = decode(env.Data, &p); err == nil {
			err = h.router.DeleteMessage(c.ID, p.ID)
		}
	case event.EventDrawStroke:
		var p event.DrawStroke
		if err = decode(env.Data, &p); err == nil {
			err = h.router.DrawStroke(c.ID, p.Data)
		}
	default:
		err = fmt.Errorf("unknown event %q: %w", env.Event, engine.ErrValidation)
	}

	if err != nil {
		h.log.Debug("action rejected",
			zap.String("identity", c.ID),
			zap.String("event", env.Event),
			zap.Error(err))
		c.reject(engine.Code(err), err)
	}
}

// decode unmarshals an action payload, mapping malformed JSON onto the
// engine's validation error so it carries a proper wire code.
func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("missing payload: %w", engine.ErrValidation)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("malformed payload: %w", engine.ErrValidation)
	}
	return nil
}

func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.log.Info("client registered", zap.String("identity", c.ID))
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	_, known := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if !known {
		return
	}

	h.router.Disconnect(c.ID)
	c.Close()
	h.log.Info("client removed", zap.String("identity", c.ID))
}

func (h *Hub) scheduleUnregister(c *Client) {
	select {
	case h.unregister <- c:
	default:
		go func() {
			select {
			case h.unregister <- c:
			case <-h.ctx.Done():
			}
		}()
	}
}

func (h *Hub) run() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.removeClient(c)
		}
	}
}

// Stop tears down every connection and waits for the workers to drain.
func (h *Hub) Stop() {
	h.cancel()

	h.mu.RLock()
	for c := range h.clients {
		h.router.Disconnect(c.ID)
		c.Close()
	}
	h.mu.RUnlock()

	for _, queue := range h.inbound {
		close(queue)
	}
	h.wg.Wait()
}

// ServeWS upgrades the request and brings the connection into the engine.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", zap.Error(err))
		return
	}

	c := newClient(conn, h)
	c.ID = h.router.Connect(c)
	c.queue = h.queueFor(c.ID)

	select {
	case h.register <- c:
		go c.ReadMessages()
		go c.WriteMessages()
	case <-time.After(registerTimeout):
		h.log.Warn("register timeout", zap.String("identity", c.ID))
		h.router.Disconnect(c.ID)
		c.cancel()
		conn.Close()
	}
}
