// Package client provides the reconnecting WebSocket transport used by chat
// consumers. It presents one logical always-available connection over a
// flaky physical one, re-establishing after drops with bounded backoff and
// fanning inbound frames out to any number of local subscribers.
package client

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tmoran/ridelink/internal/chat"
)

// State is the transport's lifecycle state. There is exactly one current
// state and at most one pending reconnect timer at any time.
type State int

const (
	// StateIdle means disconnected with no retry pending. The transport ends
	// up here when the reconnect ceiling is exhausted; only recreating it
	// gets a new connection after that.
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	// StateClosed is terminal, entered by Close.
	StateClosed
)

const (
	maxConnectAttempts  = 5
	defaultBaseInterval = 2 * time.Second
)

// MessageHandler consumes one decoded inbound frame.
type MessageHandler func(frame chat.ServerFrame)

// ConnectivityHandler is notified when the physical connection opens or
// drops. A false after the final retry is the terminal-disconnect signal.
type ConnectivityHandler func(connected bool)

// Client is the reconnecting transport. Single-owner per logical session;
// all exported methods are safe for concurrent use and none of them blocks
// on the network.
type Client struct {
	url  string
	base time.Duration

	// dial and afterFunc are indirected for tests.
	dial      func(url string) (*websocket.Conn, error)
	afterFunc func(d time.Duration, fn func()) *time.Timer

	mu       sync.Mutex
	state    State
	conn     *websocket.Conn
	attempt  int
	timer    *time.Timer
	handlers map[int]MessageHandler
	connObs  map[int]ConnectivityHandler
	nextID   int
}

// New creates the transport and immediately begins connecting in the
// background.
func New(url string) *Client {
	c := newClient(url)
	go c.connect()
	return c
}

func newClient(url string) *Client {
	return &Client{
		url:  url,
		base: defaultBaseInterval,
		dial: func(url string) (*websocket.Conn, error) {
			conn, _, err := websocket.DefaultDialer.Dial(url, nil)
			return conn, err
		},
		afterFunc: time.AfterFunc,
		handlers:  make(map[int]MessageHandler),
		connObs:   make(map[int]ConnectivityHandler),
	}
}

// connect makes one physical connection attempt. Each call consumes one slot
// of the attempt budget; the counter resets to zero on success.
func (c *Client) connect() {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	c.attempt++
	c.state = StateConnecting
	c.mu.Unlock()

	conn, err := c.dial(c.url)
	if err != nil {
		slog.Warn("WebSocket connect failed", "url", c.url, "error", err)
		c.handleDisconnect()
		return
	}

	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	c.state = StateConnected
	c.attempt = 0
	c.mu.Unlock()

	slog.Info("WebSocket connected", "url", c.url)
	c.notifyConnectivity(true)
	go c.readLoop(conn)
}

// readLoop decodes inbound frames and fans them out until the connection
// drops.
func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}

		frame, err := chat.DecodeServerFrame(data)
		if err != nil {
			slog.Warn("Dropping undecodable frame", "error", err)
			continue
		}
		c.deliver(frame)
	}

	c.mu.Lock()
	if c.state == StateClosed || c.conn != conn {
		// Close already tore this connection down, or it was replaced.
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.mu.Unlock()

	slog.Info("WebSocket disconnected", "url", c.url)
	c.handleDisconnect()
}

// handleDisconnect notifies observers and schedules a retry while the
// attempt budget lasts. The pending timer is always replaced, never stacked.
func (c *Client) handleDisconnect() {
	c.notifyConnectivity(false)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateClosed {
		return
	}
	if c.attempt >= maxConnectAttempts {
		slog.Warn("Reconnect attempts exhausted, staying disconnected", "url", c.url, "attempts", c.attempt)
		c.state = StateIdle
		return
	}

	delay := c.base * time.Duration(c.attempt)
	c.state = StateReconnecting
	if c.timer != nil {
		c.timer.Stop()
	}
	slog.Info("Scheduling reconnect", "url", c.url, "attempt", c.attempt, "delay", delay)
	c.timer = c.afterFunc(delay, c.connect)
}

// Send transmits a payload if a physical connection is currently open.
// Otherwise the payload is dropped with a warning; there is no outbound
// queue.
func (c *Client) Send(frame chat.ClientFrame) {
	payload, err := chat.EncodeFrame(frame)
	if err != nil {
		slog.Error("Failed to encode outbound frame", "error", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateConnected || c.conn == nil {
		slog.Warn("WebSocket is not connected, dropping message")
		return
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		slog.Warn("WebSocket write failed, dropping message", "error", err)
	}
}

// Subscribe registers a handler for every inbound frame on the current and
// any future physical connection. The returned function removes exactly this
// handler and is idempotent; calling it from inside the handler is safe.
func (c *Client) Subscribe(handler MessageHandler) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.handlers[id] = handler
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.handlers, id)
		c.mu.Unlock()
	}
}

// OnConnectivityChange registers an observer for connect/disconnect
// transitions. Same unsubscribe semantics as Subscribe.
func (c *Client) OnConnectivityChange(handler ConnectivityHandler) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.connObs[id] = handler
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.connObs, id)
		c.mu.Unlock()
	}
}

// Connected reports whether a physical connection is currently open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateConnected
}

// State returns the transport's current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close releases the physical connection and cancels any pending reconnect
// so no stale timer fires after the owning context is gone.
func (c *Client) Close() {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	c.state = StateClosed
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}
}

// deliver invokes every subscribed handler with the frame. Handlers run
// outside the lock on a snapshot, so a handler unsubscribing itself (or a
// sibling) mid-delivery cannot corrupt the set.
func (c *Client) deliver(frame chat.ServerFrame) {
	c.mu.Lock()
	snapshot := make([]MessageHandler, 0, len(c.handlers))
	for _, h := range c.handlers {
		snapshot = append(snapshot, h)
	}
	c.mu.Unlock()

	for _, h := range snapshot {
		h(frame)
	}
}

// notifyConnectivity invokes connectivity observers on a snapshot, outside
// the lock.
func (c *Client) notifyConnectivity(connected bool) {
	c.mu.Lock()
	snapshot := make([]ConnectivityHandler, 0, len(c.connObs))
	for _, h := range c.connObs {
		snapshot = append(snapshot, h)
	}
	c.mu.Unlock()

	for _, h := range snapshot {
		h(connected)
	}
}

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
