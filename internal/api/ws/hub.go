package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/wonny/gainerscout/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans finished-run events out to websocket clients.
// A new client first receives the last event, if any.
// ⭐ SSOT: 웹소켓 브로드캐스트는 여기서만
type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}

	mu     sync.RWMutex
	latest []byte

	count  atomic.Int32
	logger *logger.Logger
}

// NewHub creates a hub; call Run to start it
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 16),
		done:       make(chan struct{}),
		logger:     log,
	}
}

// Run is the hub loop; it returns when ctx ends and disconnects every client
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return

		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.count.Add(1)

			h.mu.RLock()
			if h.latest != nil {
				client.send <- h.latest
			}
			h.mu.RUnlock()

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
			}

		case message := <-h.broadcast:
			h.mu.Lock()
			h.latest = message
			h.mu.Unlock()

			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// 느린 클라이언트는 끊어서 허브가 막히지 않게 함
					h.drop(client)
				}
			}
		}
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
	h.count.Add(-1)
}

// Publish encodes v and queues it for every client
func (h *Hub) Publish(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- data:
	case <-h.done:
	}
	return nil
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	return int(h.count.Load())
}

// ServeWS upgrades the request and attaches the connection to the hub
// GET /ws/runs
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to upgrade websocket")
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 64),
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
