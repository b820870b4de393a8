package hub

import (
	"sync"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/emilsandberg/sl-board/src/common/cache"
	"github.com/emilsandberg/sl-board/src/common/metrics"
	"github.com/emilsandberg/sl-board/src/common/types"
)

// Hub tracks live dashboard connections and fans snapshot updates out to
// them. One coarse mutex guards the registry; delivery happens on each
// client's write pump through a latest-value slot, so a slow consumer drops
// intermediate snapshots instead of stalling everyone else.
type Hub struct {
	mu      sync.Mutex
	clients map[*Client]struct{}
	closed  bool

	store  *cache.Store
	logger *zap.SugaredLogger
}

func New(store *cache.Store, logger *zap.SugaredLogger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		store:   store,
		logger:  logger,
	}
}

// Serve owns conn for its lifetime: registers it, pushes the current
// snapshot, and runs the read loop on the calling goroutine until the
// connection drops.
func (h *Hub) Serve(conn Conn) {
	c := newClient(conn)
	if !h.register(c) {
		conn.Close()
		return
	}

	go c.writePump(h)
	c.readPump(h)
}

func (h *Hub) register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}

	// the one guaranteed initial push
	if payload, err := json.Marshal(h.store.Latest()); err == nil {
		c.enqueueSnapshot(payload)
	}

	metrics.WebsocketConnections.Set(float64(len(h.clients)))
	h.logger.Infow("websocket client connected", "client", c.ID, "connections", len(h.clients))
	return true
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.out)

	metrics.WebsocketConnections.Set(float64(len(h.clients)))
	h.logger.Infow("websocket client disconnected",
		"client", c.ID, "connections", len(h.clients), "last_send_ok", c.lastSendOK.Load())
}

// Broadcast queues snap for every registered client. A client whose pump has
// failed is evicted by that pump; delivery to the rest is unaffected.
func (h *Hub) Broadcast(snap types.Snapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		h.logger.Errorw("failed to marshal snapshot for broadcast", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		c.enqueueSnapshot(payload)
	}
	metrics.WebsocketBroadcasts.Inc()
}

// Count reports the number of live connections.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close evicts every client and refuses new registrations.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for c := range h.clients {
		delete(h.clients, c)
		close(c.out)
	}
	metrics.WebsocketConnections.Set(0)
}
