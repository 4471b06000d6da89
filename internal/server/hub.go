package server

import (
	"log"
	"net/http"
	"sync/atomic"

	"CoinTerminal/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Hub fans each new snapshot out to connected dashboard clients.
type Hub struct {
	clients    map[*Client]struct{}
	broadcast  chan interface{}
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	count      atomic.Int32
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		// Buffered so a slow broadcast never blocks the refresher.
		broadcast:  make(chan interface{}, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes client registration and broadcasts until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.count.Store(int32(len(h.clients)))
			log.Printf("[INFO] ws client connected: %s (%d total)", client.ID, len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.count.Store(int32(len(h.clients)))

		case msg := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					// Slow client: drop this update, the next one supersedes it.
				}
			}

		case <-h.done:
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.count.Store(0)
			return
		}
	}
}

// Stop disconnects all clients and ends the Run loop.
func (h *Hub) Stop() {
	close(h.done)
}

// Broadcast queues a message for all clients, dropping it if the queue is
// full. Snapshots are superseded by the next refresh anyway.
func (h *Hub) Broadcast(v interface{}) {
	select {
	case h.broadcast <- v:
	default:
		log.Println("[WARN] ws broadcast queue full, dropping update")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// wsMessage is the envelope pushed to dashboard clients.
type wsMessage struct {
	Type     string          `json:"type"`
	Snapshot *model.Snapshot `json:"snapshot"`
	Summary  model.Summary   `json:"summary"`
}

func snapshotMessage(snap *model.Snapshot) wsMessage {
	return wsMessage{Type: "UPDATE", Snapshot: snap, Summary: snap.Summarize()}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WARN] ws upgrade: %v", err)
		return
	}

	client := &Client{
		ID:   uuid.NewString(),
		hub:  s.hub,
		conn: conn,
		// Buffered so the hub loop is never blocked by one client.
		send: make(chan interface{}, 16),
	}
	s.hub.register <- client

	go client.writePump()
	go client.readPump()

	// Seed the new client with the current snapshot, if any.
	if snap, ok := s.store.Current(); ok {
		msg := snapshotMessage(snap)
		msg.Type = "INITIAL"
		select {
		case client.send <- msg:
		default:
		}
	}
}
