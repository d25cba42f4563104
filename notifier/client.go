// Copyright (c) Homewatch
// SPDX-License-Identifier: Apache-2.0

package notifier

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Client handles one websocket subscriber connection. Outgoing events are
// queued on a bounded channel drained by the write pump; a client that
// cannot keep up has its queue overflow and is dropped by the hub.
type Client struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

// NewClient returns a new Client over conn with the given send queue size.
func NewClient(conn *websocket.Conn, queueSize int) *Client {
	return &Client{
		conn: conn,
		send: make(chan []byte, queueSize),
	}
}

// Start launches the client pumps. The read pump discards inbound frames
// and exists to detect the peer closing the connection.
func (c *Client) Start(h *Hub) {
	go c.writePump(h)
	go c.readPump(h)
}

func (c *Client) trySend(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	close(c.send)
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) writePump(h *Hub) {
	for payload := range c.send {
		if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			h.Unregister(c)
			return
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.Unregister(c)
			return
		}
	}
}

func (c *Client) readPump(h *Hub) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.Unregister(c)
			return
		}
	}
}
