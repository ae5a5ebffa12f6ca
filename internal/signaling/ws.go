package signaling

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/telecare/telecare/internal/config"
)

// WSHandler upgrades HTTP connections to WebSocket and wires them into
// the hub and the event router.
type WSHandler struct {
	hub      *Hub
	router   *Router
	cfg      config.WebSocketConfig
	upgrader gorillawebsocket.Upgrader
	log      *zap.Logger
}

func NewWSHandler(hub *Hub, router *Router, cfg config.WebSocketConfig, log *zap.Logger) *WSHandler {
	return &WSHandler{
		hub:    hub,
		router: router,
		cfg:    cfg,
		upgrader: gorillawebsocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins; tighten in production.
			},
		},
		log: log,
	}
}

// HandleConnect upgrades the connection, registers the client, tells it
// its socket id, and starts the read/write pumps.
func (h *WSHandler) HandleConnect(c *gin.Context) {
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	if h.cfg.MaxMessageSize > 0 {
		ws.SetReadLimit(h.cfg.MaxMessageSize)
	}

	client := NewClient(uuid.New().String(), &gorillaConnAdapter{ws}, h.cfg)
	h.hub.Register(client)
	h.hub.SendTo(client.ID, EventConnected, ConnectedPayload{SocketID: client.ID})

	h.log.Info("socket connected", zap.String("socket_id", client.ID))

	go h.writePump(client)
	go h.readPump(client)
}

// readPump reads frames from the connection and dispatches them.
// Messages from one connection are handled strictly in send order.
func (h *WSHandler) readPump(client *Client) {
	defer func() {
		h.router.HandleDisconnect(client)
		client.conn.Close()
	}()

	for {
		_, message, err := client.conn.ReadMessage()
		if err != nil {
			break
		}
		h.router.HandleMessage(client, message)
	}
}

// writePump writes messages from the Send channel to the connection.
func (h *WSHandler) writePump(client *Client) {
	defer client.conn.Close()

	for message := range client.Send {
		if err := client.conn.WriteMessage(gorillawebsocket.TextMessage, message); err != nil {
			break
		}
	}
}

// gorillaConnAdapter wraps a gorilla/websocket.Conn to satisfy the Conn
// interface.
type gorillaConnAdapter struct {
	conn *gorillawebsocket.Conn
}

func (a *gorillaConnAdapter) ReadMessage() (int, []byte, error) {
	return a.conn.ReadMessage()
}

func (a *gorillaConnAdapter) WriteMessage(messageType int, data []byte) error {
	return a.conn.WriteMessage(messageType, data)
}

func (a *gorillaConnAdapter) Close() error {
	return a.conn.Close()
}
