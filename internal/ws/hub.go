package ws

import (
	"encoding/json"
	"sync"

	"go-stockledger-ws/internal/feed"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

// Hub fans ledger events and recomputed aggregator views out to every
// connected dashboard client.
type Hub struct {
	Clients    map[*websocket.Conn]bool
	Register   chan *websocket.Conn
	Unregister chan *websocket.Conn
	Broadcast  chan []byte
	mutex      sync.Mutex
	log        *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		Clients:    make(map[*websocket.Conn]bool),
		Register:   make(chan *websocket.Conn),
		Unregister: make(chan *websocket.Conn),
		Broadcast:  make(chan []byte, 64),
		log:        log,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.Register:
			h.mutex.Lock()
			h.Clients[conn] = true
			h.mutex.Unlock()
			h.log.Info("ws client connected")

		case conn := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.Clients[conn]; ok {
				delete(h.Clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case message := <-h.Broadcast:
			h.mutex.Lock()
			for conn := range h.Clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					conn.Close()
					delete(h.Clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// BroadcastJSON marshals v and queues it for every client.
func (h *Hub) BroadcastJSON(v interface{}) {
	msg, err := json.Marshal(v)
	if err != nil {
		h.log.Error("ws broadcast marshal failed", zap.Error(err))
		return
	}
	h.Broadcast <- msg
}

// RelayEvents forwards raw ledger events from the change feed to clients as
// "ledger_event" messages, alongside the aggregator view pushes. Runs until
// the subscription closes.
func (h *Hub) RelayEvents(sub *feed.Subscription) {
	for ev := range sub.C {
		h.BroadcastJSON(map[string]interface{}{
			"type":  "ledger_event",
			"event": ev,
		})
	}
}
