package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"autosales/internal/apierrors"
	authhandler "autosales/internal/auth/handler"
	"autosales/internal/observability"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one connected WebSocket session owned by a user
type Client struct {
	hub    *Hub
	userID uuid.UUID
	conn   *websocket.Conn
	send   chan []byte
}

// Hub tracks connected clients and routes campaign progress events to
// the sessions of the user they belong to.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan userEvent
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex
	logger     *observability.Logger
}

type userEvent struct {
	userID  uuid.UUID
	payload []byte
}

func NewHub(logger *observability.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan userEvent),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
		case event := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if client.userID != event.userID {
					continue
				}
				select {
				case client.send <- event.payload:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Event is the envelope every progress message travels in
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// NotifyUser sends an event to every open session of one user.
// Marshal failures are logged and dropped; progress delivery is best
// effort.
func (h *Hub) NotifyUser(userID uuid.UUID, eventType string, data interface{}) {
	payload, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		h.logger.Error(context.Background(), "failed to marshal ws event", err)
		return
	}
	h.broadcast <- userEvent{userID: userID, payload: payload}
}

// ServeWS upgrades an authenticated request into a progress stream
func (h *Hub) ServeWS(c *gin.Context) {
	userID, ok := authhandler.UserIDFromContext(c)
	if !ok {
		apierrors.Unauthorized(c, "authentication required")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error(c.Request.Context(), "websocket upgrade failed", err)
		return
	}

	client := &Client{hub: h, userID: userID, conn: conn, send: make(chan []byte, 256)}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump drains the connection so pings and close frames are
// processed. Clients never send application messages.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
