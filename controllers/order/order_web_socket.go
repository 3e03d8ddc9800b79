package orderControllers

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/ajebo/storefront-api/logging"
	"github.com/ajebo/storefront-api/models"
)

const (
	EventOrderPaid    = "order.paid"
	EventOrderUpdated = "order.updated"

	writeWait  = 5 * time.Second
	sendBuffer = 16
)

type OrderEvent struct {
	Event string        `json:"event"`
	Order *models.Order `json:"order"`
}

// Hub fans order events out to connected back-office websocket clients.
// Each client has its own queue and writer goroutine, so Broadcast never
// waits on a socket.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub accepts websocket connections from the given origins; an empty list
// or "*" accepts any origin.
func NewHub(allowedOrigins []string) *Hub {
	h := &Hub{clients: make(map[*client]struct{})}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*") {
				return true
			}
			return slices.Contains(allowedOrigins, origin)
		},
	}
	return h
}

// GET /admin/orders/ws
func (h *Hub) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		cl := &client{conn: conn, send: make(chan []byte, sendBuffer)}
		h.add(cl)
		go cl.writePump()
		defer h.remove(cl)

		// Clients only listen; reading detects the close.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}

func (cl *client) writePump() {
	defer cl.conn.Close()
	for data := range cl.send {
		_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := cl.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

func (h *Hub) add(cl *client) {
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	h.drop(cl)
	h.mu.Unlock()
}

// drop must be called with mu held.
func (h *Hub) drop(cl *client) {
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		close(cl.send)
	}
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast queues the event for every client. A client whose queue is full
// is disconnected.
func (h *Hub) Broadcast(event string, order *models.Order) {
	data, err := json.Marshal(OrderEvent{Event: event, Order: order})
	if err != nil {
		logging.Error().Err(err).Msg("order event marshal failed")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for cl := range h.clients {
		select {
		case cl.send <- data:
		default:
			logging.Warn().Str("remote_addr", cl.conn.RemoteAddr().String()).Msg("order feed client too slow, disconnecting")
			h.drop(cl)
		}
	}
}

// OrderPaid is registered as a reconcile finalize hook.
func (h *Hub) OrderPaid(_ context.Context, order *models.Order) {
	h.Broadcast(EventOrderPaid, order)
}
