package server

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"quote-relay/src/logger"
	"quote-relay/src/models"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans normalized quotes out to dashboard websocket clients. The TCP
// broadcast set lives in the unifeeder package; this stream is purely
// observational.
type Hub struct {
	clients    map[*WsClient]struct{}
	broadcast  chan models.MPublishedQuote
	register   chan *WsClient
	unregister chan *WsClient
	done       chan struct{}
	stopOnce   sync.Once

	mu     sync.RWMutex
	count  int
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*WsClient]struct{}),
		// Buffered so the consumer loop never waits on the hub.
		broadcast:  make(chan models.MPublishedQuote, 256),
		register:   make(chan *WsClient),
		unregister: make(chan *WsClient),
		done:       make(chan struct{}),
		Logger:     logger.NewLogger("WsHub"),
	}
}

// -----------------------------------------------------------------------------

// run is the main Hub loop. It exits when stop is called.
func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.setCount(len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.setCount(len(h.clients))
			}

		case q := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- q:
				default:
					// Client too slow, disconnect to prevent Hub blocking
					delete(h.clients, client)
					close(client.send)
					h.setCount(len(h.clients))
				}
			}

		case <-h.done:
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.setCount(0)
			return
		}
	}
}

// -----------------------------------------------------------------------------

// stop shuts the hub loop down. Safe to call more than once.
func (h *Hub) stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// -----------------------------------------------------------------------------

// dropClient hands a client back to the hub loop for removal. After shutdown
// the loop no longer receives, so the send races against the done channel to
// keep late client goroutines from blocking forever.
func (h *Hub) dropClient(c *WsClient) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// -----------------------------------------------------------------------------

// PublishQuote queues one quote for the websocket clients. Drops when the
// hub buffer is full rather than delaying the consumer loop.
func (h *Hub) PublishQuote(q models.MPublishedQuote) {
	select {
	case h.broadcast <- q:
	default:
	}
}

// -----------------------------------------------------------------------------

// ClientCount returns the number of connected websocket clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

func (h *Hub) setCount(n int) {
	h.mu.Lock()
	h.count = n
	h.mu.Unlock()
}

// -----------------------------------------------------------------------------
// WebSocket Handler
// -----------------------------------------------------------------------------

func (h *Hub) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Logger.Info("failed to upgrade websocket: %v", err)
		return
	}

	client := &WsClient{
		hub:  h,
		conn: conn,
		// Buffered channel to prevent blocking the Hub loop
		send: make(chan models.MPublishedQuote, 256),
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
