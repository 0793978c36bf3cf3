package websocket

import (
	"context"
	"sync"
	"time"

	"cropfolder/internal/dto"
	"cropfolder/internal/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Client is one connected browser tab.
type Client struct {
	ID   string
	conn *websocket.Conn
	mu   sync.Mutex
}

// NewClient wraps an upgraded connection and arms its read deadline.
func NewClient(conn *websocket.Conn) *Client {
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	return &Client{ID: uuid.NewString(), conn: conn}
}

// Conn returns the underlying connection for reading.
func (c *Client) Conn() *websocket.Conn {
	return c.conn
}

// Send writes one message. Safe for concurrent use.
func (c *Client) Send(message dto.Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(message)
}

// KeepAlive pings the client until ctx is done or a ping fails.
func (c *Client) KeepAlive(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// HubService tracks connected viewers and fans broadcasts out to them.
type HubService struct {
	clients    map[*Client]bool
	broadcast  chan dto.Envelope
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mutex      sync.RWMutex
	logger     *logger.Logger
}

func NewHubService(logger *logger.Logger) *HubService {
	return &HubService{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan dto.Envelope),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves registrations and broadcasts until ctx is cancelled, then
// closes every remaining connection.
func (h *HubService) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Client %s connected. Total: %d", client.ID, count)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Client %s disconnected. Total: %d", client.ID, count)

		case message := <-h.broadcast:
			var failed []*Client
			h.mutex.RLock()
			for client := range h.clients {
				if err := client.Send(message); err != nil {
					h.logger.Error("Error sending %s to %s: %v", message.Event, client.ID, err)
					failed = append(failed, client)
				}
			}
			h.mutex.RUnlock()

			if len(failed) > 0 {
				h.mutex.Lock()
				for _, client := range failed {
					delete(h.clients, client)
					client.Close()
				}
				h.mutex.Unlock()
			}
		}
	}
}

func (h *HubService) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

func (h *HubService) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast sends message to every connected client.
func (h *HubService) Broadcast(message dto.Envelope) {
	select {
	case h.broadcast <- message:
	case <-h.done:
	}
}

func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
