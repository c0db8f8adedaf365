package game

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
)

const (
	BROADCAST_BUFFER = 1024
	CLIENT_BUFFER    = 256
	WRITE_TIMEOUT    = 10 * time.Second
)

// Client is one websocket connection. Outbound frames are queued on send and written by a
// single writer goroutine.
type Client struct {
	conn   *websocket.Conn
	handle string
	send   chan []byte
	done   chan struct{}

	mu     sync.Mutex
	closed bool
}

// outbound is a queued message; an empty handle means every client
type outbound struct {
	handle  string
	message interface{}
}

// Hub fans messages out to connected clients. It implements Broadcaster. Broadcasts and direct
// sends share one queue, so each client sees them in the order they were issued.
type Hub struct {
	clients    map[string]*Client
	outbound   chan outbound
	register   chan *Client
	unregister chan string
	quit       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		outbound:   make(chan outbound, BROADCAST_BUFFER),
		register:   make(chan *Client),
		unregister: make(chan string),
		quit:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.handle] = client
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("[WS] Client connected: %s (Total: %d)", client.handle, total)

		case handle := <-h.unregister:
			h.mu.Lock()
			if client, ok := h.clients[handle]; ok {
				delete(h.clients, handle)
				client.close()
				log.Printf("[WS] Client disconnected: %s (Total: %d)", handle, len(h.clients))
			}
			h.mu.Unlock()

		case out := <-h.outbound:
			h.deliver(out)

		case <-h.quit:
			h.mu.Lock()
			for handle, client := range h.clients {
				delete(h.clients, handle)
				client.close()
			}
			h.mu.Unlock()
			log.Println("[WS] Hub stopped")
			return
		}
	}
}

func (h *Hub) deliver(out outbound) {
	data, err := encode(out.message)
	if err != nil {
		log.Printf("[WS] Marshal error: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if out.handle == "" {
		for _, client := range h.clients {
			client.enqueue(data)
		}
		return
	}
	if client, ok := h.clients[out.handle]; ok {
		client.enqueue(data)
	}
}

// Stop shuts the hub down and releases every client writer
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
}

// Broadcast queues a message for every connected client. It never blocks.
func (h *Hub) Broadcast(message interface{}) {
	select {
	case h.outbound <- outbound{message: message}:
	default:
		log.Println("[WS] Outbound queue full, dropping broadcast")
	}
}

// SendTo queues a message for a single client. Unknown handles are ignored.
func (h *Hub) SendTo(handle string, message interface{}) {
	if handle == "" {
		return
	}
	select {
	case h.outbound <- outbound{handle: handle, message: message}:
	default:
		log.Printf("[WS] Outbound queue full, dropping message for %s", handle)
	}
}

func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RegisterClient adds the connection under handle and starts its writer
func (h *Hub) RegisterClient(conn *websocket.Conn, handle string) *Client {
	client := &Client{
		conn:   conn,
		handle: handle,
		send:   make(chan []byte, CLIENT_BUFFER),
		done:   make(chan struct{}),
	}
	go client.writePump()

	select {
	case h.register <- client:
	case <-h.quit:
		client.close()
	}
	return client
}

func (h *Hub) UnregisterClient(handle string) {
	select {
	case h.unregister <- handle:
	case <-h.quit:
	}
}

// Send queues a message for this client only
func (c *Client) Send(message interface{}) {
	data, err := encode(message)
	if err != nil {
		log.Printf("[WS] Send marshal error: %v", err)
		return
	}
	c.enqueue(data)
}

// Done is closed once the writer has exited and the connection is no longer written to
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) enqueue(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		log.Printf("[WS] Dropping message for closed client %s", c.handle)
		return
	}

	select {
	case c.send <- data:
	default:
		log.Printf("[WS] Send buffer full for %s, dropping message", c.handle)
	}
}

// close ends the writer. Safe to call more than once.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) writePump() {
	defer close(c.done)

	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("[WS] Write error for %s: %v", c.handle, err)
		}
	}
}

func encode(message interface{}) ([]byte, error) {
	if data, ok := message.([]byte); ok {
		return data, nil
	}
	return json.Marshal(message)
}
