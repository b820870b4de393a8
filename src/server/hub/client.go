package hub

import (
	"bytes"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"github.com/emilsandberg/sl-board/src/common/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Conn is the slice of the websocket connection the hub drives. The real
// implementation is *websocket.Conn; tests substitute their own.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Client is one registered dashboard connection.
type Client struct {
	ID          uuid.UUID
	ConnectedAt time.Time

	conn       Conn
	out        chan []byte // latest snapshot payload, capacity 1
	ctl        chan []byte // keepalive replies
	lastSendOK atomic.Bool
}

func newClient(conn Conn) *Client {
	c := &Client{
		ID:          uuid.New(),
		ConnectedAt: time.Now(),
		conn:        conn,
		out:         make(chan []byte, 1),
		ctl:         make(chan []byte, 1),
	}
	c.lastSendOK.Store(true)
	return c
}

// enqueueSnapshot places payload in the latest-value slot, displacing an
// undelivered older snapshot. Callers hold the hub lock, so there is exactly
// one producer per client.
func (c *Client) enqueueSnapshot(payload []byte) {
	for {
		select {
		case c.out <- payload:
			return
		default:
		}
		select {
		case <-c.out:
		default:
		}
	}
}

func (c *Client) writePump(h *Hub) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		h.unregister(c)
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.out:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.lastSendOK.Store(false)
				metrics.WebsocketSendFailures.Inc()
				h.logger.Warnw("websocket send failed", "client", c.ID, "error", err)
				return
			}
			c.lastSendOK.Store(true)
		case reply := <-c.ctl:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, reply); err != nil {
				c.lastSendOK.Store(false)
				metrics.WebsocketSendFailures.Inc()
				h.logger.Warnw("websocket send failed", "client", c.ID, "error", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if bytes.Equal(bytes.TrimSpace(message), []byte("ping")) {
			select {
			case c.ctl <- []byte("pong"):
			default:
			}
		}
		// any other inbound frame is ignored
	}
}
