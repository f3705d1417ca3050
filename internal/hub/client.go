package hub

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/KailasMahavarkar/syncboard/internal/event"
	"github.com/KailasMahavarkar/syncboard/internal/metrics"
)

var (
	// tuning parameters
	writeWait          = 10 * time.Second       // time allowed to write a message to the peer
	pongWait           = 20 * time.Second       // time allowed to read the next pong message from the peer
	pingInterval       = (pongWait * 9) / 10    // send pings to peer with this period
	registerTimeout    = 5 * time.Second        // timeout for client registration
	unregisterTimeout  = 5 * time.Second        // timeout for client unregistration
	inboundSendTimeout = 500 * time.Millisecond // timeout for sending to inbound channel
)

// Client is one websocket connection. It owns the read and write pumps and
// the egress buffer; everything the connection is allowed to do goes
// through the engine under the identity stored in ID.
type Client struct {
	ID     string
	conn   *websocket.Conn
	hub    *Hub
	egress chan event.Outbound
	queue  chan inboundMessage // the worker queue this connection is pinned to
	log    *zap.Logger

	cancel         context.CancelFunc
	ctx            context.Context
	once           sync.Once
	connClosed     chan struct{}
	connClosedOnce sync.Once
}

func newClient(conn *websocket.Conn, h *Hub) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		conn:       conn,
		hub:        h,
		egress:     make(chan event.Outbound, h.opts.EgressBuffer),
		log:        h.log,
		cancel:     cancel,
		ctx:        ctx,
		connClosed: make(chan struct{}),
	}
}

// Deliver implements engine.Sink. It is called while the room lock is held
// and therefore never blocks: when the egress buffer is full the client is
// scheduled for disconnect instead of stalling the room.
func (c *Client) Deliver(ev event.Outbound) bool {
	select {
	case <-c.ctx.Done():
		return false
	default:
	}

	select {
	case c.egress <- ev:
		return true
	default:
	}

	metrics.ClientsKicked.Inc()
	c.log.Warn("egress full, kicking client", zap.String("identity", c.ID))
	c.hub.scheduleUnregister(c)
	return false
}

// reject reports a failed action back to this connection only.
func (c *Client) reject(code string, err error) {
	metrics.RejectionsTotal.WithLabelValues(code).Inc()
	c.Deliver(event.Outbound{
		Event: event.EventError,
		Data:  event.ErrorPayload{Code: code, Message: err.Error()},
	})
}

func (c *Client) ReadMessages() {
	defer func() {
		select {
		case c.hub.unregister <- c:
			// unregistered successfully
		case <-time.After(unregisterTimeout):
			c.log.Warn("unregister timeout", zap.String("identity", c.ID))
		}
		c.Close()
	}()

	c.conn.SetReadLimit(c.hub.opts.MaxMessageBytes)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(c.pongHandler)

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			var env event.Envelope

			if err := c.conn.ReadJSON(&env); err != nil {
				if websocket.IsCloseError(err,
					websocket.CloseNormalClosure,
					websocket.CloseGoingAway,
					websocket.CloseAbnormalClosure,
				) {
					c.log.Info("client disconnected", zap.String("identity", c.ID))
					return
				}

				if websocket.IsUnexpectedCloseError(err,
					websocket.CloseInternalServerErr,
					websocket.CloseProtocolError,
				) {
					c.log.Warn("unexpected close", zap.String("identity", c.ID), zap.Error(err))
				}

				if ne, ok := err.(net.Error); ok && ne.Timeout() {
					c.log.Info("client timed out", zap.String("identity", c.ID))
					return
				}

				c.log.Warn("read error", zap.String("identity", c.ID), zap.Error(err))
				return
			}

			// Non-blocking send into inbound processing queue to avoid blocking reader
			select {
			case c.queue <- inboundMessage{client: c, env: env}:
				// accepted for processing
			case <-time.After(inboundSendTimeout):
				c.log.Warn("inbound queue full, dropping client", zap.String("identity", c.ID))
				c.cancel()
				c.conn.Close()
			case <-c.ctx.Done():
				return
			}
		}
	}
}

func (c *Client) WriteMessages() {
	ticker := time.NewTicker(pingInterval)

	defer func() {
		ticker.Stop()
		c.Close()
		_ = c.conn.Close()

		c.connClosedOnce.Do(func() {
			close(c.connClosed)
		})
	}()

	for {
		select {
		case <-c.ctx.Done():
			return
		case ev, ok := <-c.egress:
			if !ok {
				if err := c.conn.WriteMessage(websocket.CloseMessage, nil); err != nil {
					c.log.Debug("close write failed", zap.Error(err))
				}
				return
			}

			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				c.log.Warn("write error", zap.String("identity", c.ID), zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.log.Warn("ping failed", zap.String("identity", c.ID), zap.Error(err))
				return
			}
		}
	}
}

func (c *Client) pongHandler(string) error {
	return c.conn.SetReadDeadline(time.Now().Add(pongWait))
}

func (c *Client) Close() {
	c.once.Do(func() {
		c.cancel()
		close(c.egress)

		// Wait for WriteMessages to close conn, or force close after timeout
		go func() {
			select {
			case <-c.connClosed:
				// WriteMessages closed it properly
			case <-time.After(5 * time.Second):
				_ = c.conn.Close()
			}
		}()
	})
}
