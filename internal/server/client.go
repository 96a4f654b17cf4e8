package server

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufSize    = 256
)

type outbound struct {
	kind int
	data []byte
}

// Client is one websocket connection. It is the game.Sender for the
// player it joins as.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	ip      string
	limiter *rate.Limiter
	log     *zap.Logger

	mu     sync.Mutex
	send   chan outbound
	closed bool
}

// NewClient wraps conn. Inbound frames beyond perSec (with burst) close
// the connection; perSec <= 0 disables the limit.
func NewClient(hub *Hub, conn *websocket.Conn, ip string, perSec float64, burst int) *Client {
	limit := rate.Inf
	if perSec > 0 {
		limit = rate.Limit(perSec)
	}
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		hub:     hub,
		conn:    conn,
		ip:      ip,
		limiter: rate.NewLimiter(limit, burst),
		log:     hub.log.With(zap.String("ip", ip)),
		send:    make(chan outbound, sendBufSize),
	}
}

// ReadPump reads frames from the connection and feeds them to the game
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Release(c.ip)
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Info("ws read error", zap.Error(err))
			}
			break
		}

		if !c.limiter.Allow() {
			c.hub.metrics.MessageLimited()
			c.log.Warn("rate limit exceeded, disconnecting")
			break
		}

		c.hub.engine.HandleMessage(c, message)
	}
}

// WritePump writes queued frames and keepalive pings to the connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(msg.kind, msg.data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendRaw queues a binary frame. A slow client loses the frame instead of
// stalling the tick.
func (c *Client) SendRaw(data []byte) {
	c.enqueue(outbound{kind: websocket.BinaryMessage, data: data})
}

func (c *Client) sendText(s string) {
	c.enqueue(outbound{kind: websocket.TextMessage, data: []byte(s)})
}

func (c *Client) enqueue(msg outbound) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- msg:
	default:
		c.hub.metrics.SendDropped()
	}
}

// shutdown closes the send queue; WritePump then closes the connection
func (c *Client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
