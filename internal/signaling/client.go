package signaling

import (
	"fmt"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/simtim-dev/eagleview/internal/dns"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024
)

// Client manages the WebSocket connection to the signaling server.
//
// Unlike a one-shot connection, the client survives transport loss: when
// the socket drops, a notification is delivered on Drops() and Connect
// may be called again to re-establish the link. The incoming and
// outgoing channels span reconnects, so callers keep a single read loop
// across the life of the session.
type Client struct {
	serverURL string
	incoming  chan *Message
	outgoing  chan *Message
	drops     chan struct{}
	done      chan struct{}

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	closed    bool
}

// NewClient creates a new signaling client
func NewClient(serverURL string) *Client {
	return &Client{
		serverURL: serverURL,
		incoming:  make(chan *Message, 16),
		outgoing:  make(chan *Message, 16),
		drops:     make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
}

// Connect establishes the WebSocket connection to the server. It may be
// called again after a drop to reconnect; any previous connection is
// discarded first.
func (c *Client) Connect() error {
	u, err := url.Parse(c.serverURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}

	// Create a custom dialer that uses our robust DNS lookup
	dialer := *websocket.DefaultDialer
	dialer.NetDial = func(network, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}

		resolvedIP, err := dns.Lookup(host)
		if err != nil {
			return nil, fmt.Errorf("dns lookup failed: %w", err)
		}

		return net.Dial(network, net.JoinHostPort(resolvedIP, port))
	}

	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return fmt.Errorf("client closed")
	}
	if c.conn != nil {
		c.conn.Close()
	}
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	conn.SetReadLimit(maxMessageSize)
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	connDone := make(chan struct{})
	go c.readPump(conn, connDone)
	go c.writePump(conn, connDone)

	return nil
}

// IsConnected reports whether the socket is currently up.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// readPump reads messages from one WebSocket connection until it dies.
func (c *Client) readPump(conn *websocket.Conn, connDone chan struct{}) {
	defer func() {
		close(connDone)
		conn.Close()
		c.markDropped(conn)
	}()

	conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}

		select {
		case c.incoming <- &msg:
		case <-c.done:
			return
		}
	}
}

// writePump writes messages to one WebSocket connection and sends
// periodic pings.
func (c *Client) writePump(conn *websocket.Conn, connDone chan struct{}) {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message := <-c.outgoing:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(message); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-connDone:
			return

		case <-c.done:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// markDropped flags the connection as down and notifies Drops(). A
// stale pump whose connection has already been replaced stays silent.
func (c *Client) markDropped(conn *websocket.Conn) {
	c.mu.Lock()
	if c.closed || c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.connected = false
	c.mu.Unlock()

	select {
	case c.drops <- struct{}{}:
	default:
	}
}

// SendMessage queues a message for the server.
func (c *Client) SendMessage(msg *Message) {
	select {
	case c.outgoing <- msg:
	case <-c.done:
	}
}

// Send marshals payload and queues it for the server.
func (c *Client) Send(event string, payload any) error {
	msg, err := NewMessage(event, payload)
	if err != nil {
		return err
	}
	c.SendMessage(msg)
	return nil
}

// Incoming returns the channel for receiving messages.
func (c *Client) Incoming() <-chan *Message {
	return c.incoming
}

// Drops returns the channel signaling involuntary disconnects.
func (c *Client) Drops() <-chan struct{} {
	return c.drops
}

// Close closes the WebSocket connection and cleans up resources.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.connected = false
	conn := c.conn
	c.mu.Unlock()

	close(c.done)
	if conn != nil {
		conn.Close()
	}
}
