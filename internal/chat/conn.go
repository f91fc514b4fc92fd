package chat

import (
	"log/slog"
	"sync"
)

const sendBufferSize = 256

// Conn represents a single live server-side connection. It carries no room or
// user state of its own; that lives in the registry's session table.
type Conn struct {
	ID   string
	mu   sync.RWMutex
	send chan []byte
}

func newConn(id string) *Conn {
	return &Conn{
		ID:   id,
		send: make(chan []byte, sendBufferSize),
	}
}

// Send queues a payload for delivery to the peer. It never blocks: if the
// connection is closed or its buffer is full the payload is dropped.
// It uses a read lock to ensure the channel is not closed concurrently.
func (c *Conn) Send(payload []byte) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.send == nil {
		return
	}

	select {
	case c.send <- payload:
	default:
		slog.Warn("Connection send buffer full, dropping message", "connID", c.ID)
	}
}

// Outbound returns the channel the write pump drains. The channel is closed
// when the connection is unregistered.
func (c *Conn) Outbound() <-chan []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.send
}

// close shuts the send channel. Safe to call once; the registry guarantees
// that via Unregister.
func (c *Conn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.send != nil {
		close(c.send)
		c.send = nil
	}
}
