// Package signaling implements the live-consultation socket layer:
// connection management, doctor presence, patient/doctor matching with
// a first-accept-wins race, and verbatim WebRTC signal relay between
// matched endpoints. Messages are never persisted or replayed; delivery
// is best-effort and only meaningful while both endpoints stay
// connected. A waiting patient request has no server-side timeout.
package signaling

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/telecare/telecare/internal/config"
	"github.com/telecare/telecare/pkg/metrics"
)

// Conn abstracts a WebSocket connection for testability.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client represents a single socket connection. Role is implicit: a
// connection becomes a doctor by sending doctor_login and a patient by
// sending patient_request; until then it is anonymous.
type Client struct {
	ID   string
	Send chan []byte
	conn Conn
}

// Hub is the connection table. It addresses clients by socket id and
// delivers non-blocking: a full send buffer or an unknown target drops
// the message rather than stalling another connection's handler.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client

	presence  *Presence
	collector *metrics.Collector
	log       *zap.Logger
}

func NewHub(presence *Presence, collector *metrics.Collector, log *zap.Logger) *Hub {
	return &Hub{
		clients:   make(map[string]*Client),
		presence:  presence,
		collector: collector,
		log:       log,
	}
}

// NewClient builds a client around a connection with the given send
// buffer size. The caller registers it and runs the pumps.
func NewClient(id string, conn Conn, cfg config.WebSocketConfig) *Client {
	size := cfg.SendBufferSize
	if size <= 0 {
		size = 256
	}
	return &Client{
		ID:   id,
		Send: make(chan []byte, size),
		conn: conn,
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	h.collector.SocketConnections.Set(float64(len(h.clients)))
}

// Unregister removes a client and closes its Send channel. Presence
// cleanup is the router's job so that doctor bookkeeping stays in one
// place.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	close(client.Send)
	h.collector.SocketConnections.Set(float64(len(h.clients)))
}

func (h *Hub) Get(socketID string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[socketID]
	return c, ok
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SendTo delivers an event to one client. Returns false when the target
// is unknown or its buffer is full; the message is simply dropped.
func (h *Hub) SendTo(socketID, event string, data any) bool {
	frame, err := marshalEnvelope(event, data)
	if err != nil {
		h.log.Error("failed to marshal event", zap.String("event", event), zap.Error(err))
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.clients[socketID]
	if !ok {
		return false
	}

	select {
	case client.Send <- frame:
		return true
	default:
		// Client buffer full; skip to avoid blocking.
		return false
	}
}

// BroadcastDoctors delivers an event exactly once to every connection
// currently registered as a doctor.
func (h *Hub) BroadcastDoctors(event string, data any) {
	frame, err := marshalEnvelope(event, data)
	if err != nil {
		h.log.Error("failed to marshal event", zap.String("event", event), zap.Error(err))
		return
	}

	ids := h.presence.IDs()

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, id := range ids {
		client, ok := h.clients[id]
		if !ok {
			continue
		}
		select {
		case client.Send <- frame:
		default:
			// Client buffer full; skip to avoid blocking.
		}
	}
}

func marshalEnvelope(event string, data any) ([]byte, error) {
	env := Envelope{Event: event}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		env.Data = raw
	}
	return json.Marshal(env)
}
