package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 5 * time.Second
	wsPongWait   = 30 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsSendQueue  = 32
)

// Event is pushed to every connected console.
type Event struct {
	Type      string     `json:"type"`
	Sample    *SampleDTO `json:"sample,omitempty"`
	Status    string     `json:"status,omitempty"`
	Enabled   *bool      `json:"enabled,omitempty"`
	Connected *bool      `json:"connected,omitempty"`
}

// Event types.
const (
	EventSample     = "sample"
	EventStatus     = "status"
	EventControls   = "controls"
	EventConnection = "connection"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// Hub fans display updates out to websocket clients. It implements
// core.Presenter; every method returns without blocking and slow clients
// lose events rather than stalling the sampler.
type Hub struct {
	src atomic.Pointer[sourceRef]

	mu      sync.Mutex
	clients map[*wsClient]struct{}
	closed  bool
}

type sourceRef struct{ SampleSource }

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*wsClient]struct{})}
}

// SetSource attaches the buffer whose latest sample accompanies update events.
// The hub is built before the session that owns the buffer.
func (h *Hub) SetSource(src SampleSource) {
	h.src.Store(&sourceRef{src})
}

func (h *Hub) OnSampleBufferUpdated() {
	ref := h.src.Load()
	if ref == nil {
		return
	}
	s, ok := ref.Latest()
	if !ok {
		return
	}
	dto := toDTO(s)
	h.broadcast(Event{Type: EventSample, Sample: &dto})
}

func (h *Hub) OnStatusChanged(text string) {
	h.broadcast(Event{Type: EventStatus, Status: text})
}

func (h *Hub) OnManeuverControlsEnabled(enabled bool) {
	h.broadcast(Event{Type: EventControls, Enabled: &enabled})
}

func (h *Hub) OnConnectionChanged(connected bool) {
	h.broadcast(Event{Type: EventConnection, Connected: &connected})
}

// ClientCount returns the number of attached consoles.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) broadcast(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("Failed to encode event", "type", ev.Type, "error", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slog.Debug("Dropping event for slow websocket client", "type", ev.Type)
		}
	}
}

// ServeHTTP upgrades the request and streams events until the client leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Websocket upgrade failed", "error", err)
		return
	}
	c := &wsClient{conn: conn, send: make(chan []byte, wsSendQueue)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	slog.Debug("Websocket client connected", "remote", r.RemoteAddr)

	go h.writePump(c)
	h.readPump(c)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) remove(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// readPump discards inbound messages; it exists to process pongs and notice closure.
func (h *Hub) readPump(c *wsClient) {
	defer func() {
		h.remove(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *wsClient) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
