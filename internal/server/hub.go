package server

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"arena-server/internal/metrics"
)

var (
	ErrTooManyConnections = errors.New("too many connections")
	ErrTooManyFromIP      = errors.New("too many connections from address")
)

// Hub tracks connected clients and hands disconnects to the game
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	unregister chan *Client
	done       chan struct{}

	engine  Engine
	metrics *metrics.Metrics
	log     *zap.Logger

	// connection limiting, accessed from HTTP handlers
	connMu     sync.Mutex
	ipConns    map[string]int
	totalConns int
	maxPerIP   int
	maxTotal   int
}

// NewHub creates a hub. A limit of 0 disables that cap.
func NewHub(engine Engine, m *metrics.Metrics, maxTotal, maxPerIP int, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		unregister: make(chan *Client, 64),
		done:       make(chan struct{}),
		engine:     engine,
		metrics:    m,
		log:        log,
		ipConns:    make(map[string]int),
		maxPerIP:   maxPerIP,
		maxTotal:   maxTotal,
	}
}

// Admit reserves a connection slot for ip
func (h *Hub) Admit(ip string) error {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.maxTotal > 0 && h.totalConns >= h.maxTotal {
		h.metrics.ConnectionRejected("capacity")
		return ErrTooManyConnections
	}
	if h.maxPerIP > 0 && h.ipConns[ip] >= h.maxPerIP {
		h.metrics.ConnectionRejected("per_ip")
		return ErrTooManyFromIP
	}
	h.ipConns[ip]++
	h.totalConns++
	return nil
}

// Release frees the slot taken by Admit
func (h *Hub) Release(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]--
	if h.ipConns[ip] <= 0 {
		delete(h.ipConns, ip)
	}
	h.totalConns--
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()
	h.metrics.ConnectionOpened()
}

// Run processes disconnects until ctx is done, then closes every
// remaining client
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.unregister:
			h.remove(client)

		case <-ctx.Done():
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for c := range h.clients {
				clients = append(clients, c)
			}
			h.mu.RUnlock()
			for _, c := range clients {
				h.remove(c)
			}
			return
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	delete(h.clients, client)
	h.mu.Unlock()
	if !ok {
		return
	}

	// the game must forget the sender before its queue closes
	h.engine.Close(client)
	client.shutdown()
	h.metrics.ConnectionClosed()
	h.log.Debug("client disconnected", zap.String("ip", client.ip))
}

// ClientCount returns the number of registered clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// TotalConns returns the tracked connection count
func (h *Hub) TotalConns() int {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	return h.totalConns
}
