package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vmunix/nzzel/internal/events"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	maxMessage = 4096
	sendBuffer = 64
)

// Canceller cancels a running job. *ytdlp.Orchestrator implements it.
type Canceller interface {
	Cancel(jobID string) bool
}

// Hub fans bus events out to every connected websocket client.
type Hub struct {
	bus      *events.Bus
	jobs     Canceller
	logger   *slog.Logger
	upgrader websocket.Upgrader
	sub      events.SubscriptionID

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// NewHub creates a hub subscribed to every event on bus.
func NewHub(bus *events.Bus, jobs Canceller, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		bus:    bus,
		jobs:   jobs,
		logger: logger.With("component", "realtime"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[*client]struct{}),
	}
	h.sub = bus.SubscribeAll(h.onEvent)
	return h
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// onEvent runs on the publisher's goroutine, so it never blocks: a client
// whose buffer is full is disconnected.
func (h *Hub) onEvent(_ context.Context, e events.Event) error {
	typ, data, ok := fromEvent(e)
	if !ok {
		return nil
	}
	frame, err := encode(typ, data)
	if err != nil {
		return err
	}
	h.Broadcast(frame)
	return nil
}

// Broadcast queues a raw frame for every client.
func (h *Hub) Broadcast(frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- frame:
		default:
			h.logger.Warn("client too slow, disconnecting", "remote", c.conn.RemoteAddr().String())
			delete(h.clients, c)
			c.close()
		}
	}
}

// ServeHTTP upgrades the request and serves the client until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.logger.Debug("client connected", "remote", conn.RemoteAddr().String())

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
	h.mu.Unlock()
}

// readPump handles client requests until the connection fails.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
		h.logger.Debug("client disconnected", "remote", c.conn.RemoteAddr().String())
	}()

	c.conn.SetReadLimit(maxMessage)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read failed", "error", err)
			}
			return
		}
		h.handle(c, msg)
	}
}

func (h *Hub) handle(c *client, msg Message) {
	switch msg.Type {
	case TypeCancelDownload:
		var jobID string
		if err := json.Unmarshal(msg.Data, &jobID); err != nil || jobID == "" {
			h.logger.Debug("bad cancel-download payload", "error", err)
			return
		}
		success := h.jobs != nil && h.jobs.Cancel(jobID)
		h.logger.Info("cancel requested over websocket", "job_id", jobID, "success", success)

		frame, err := encode(TypeCancelled, CancelledData{JobID: jobID, Success: &success})
		if err != nil {
			return
		}
		h.reply(c, frame)
	default:
		h.logger.Debug("unknown websocket message", "type", msg.Type)
	}
}

func (h *Hub) reply(c *client, frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- frame:
	default:
		delete(h.clients, c)
		c.close()
	}
}

// writePump is the connection's only writer.
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close unsubscribes from the bus and disconnects every client.
func (h *Hub) Close() {
	h.bus.Unsubscribe(h.sub)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
}
