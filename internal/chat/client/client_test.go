package client

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmoran/ridelink/internal/chat"
)

// fakeScheduler captures reconnect timers instead of arming real ones, so
// tests can step through the backoff schedule deterministically.
type fakeScheduler struct {
	mu      sync.Mutex
	delays  []time.Duration
	pending []func()
}

func (s *fakeScheduler) afterFunc(d time.Duration, fn func()) *time.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	s.pending = append(s.pending, fn)
	t := time.NewTimer(time.Hour)
	t.Stop()
	return t
}

// fire runs the oldest pending reconnect callback, if any.
func (s *fakeScheduler) fire() bool {
	s.mu.Lock()
	if len(s.pending) == 0 {
		s.mu.Unlock()
		return false
	}
	fn := s.pending[0]
	s.pending = s.pending[1:]
	s.mu.Unlock()
	fn()
	return true
}

func (s *fakeScheduler) recordedDelays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Duration, len(s.delays))
	copy(out, s.delays)
	return out
}

// startChatServer runs a WebSocket endpoint whose per-connection behavior is
// supplied by the test. Handlers run on the server goroutine, so they report
// through channels rather than failing the test directly.
func startChatServer(t *testing.T, handle func(conn *websocket.Conn)) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handle(conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestClient_BackoffScheduleAndCeiling(t *testing.T) {
	c := newClient("ws://unreachable.invalid/ws")
	sched := &fakeScheduler{}
	c.afterFunc = sched.afterFunc

	var dials int
	c.dial = func(url string) (*websocket.Conn, error) {
		dials++
		return nil, errors.New("connection refused")
	}

	var drops int
	c.OnConnectivityChange(func(connected bool) {
		if !connected {
			drops++
		}
	})

	c.connect()
	for sched.fire() {
	}

	assert.Equal(t, 5, dials, "the attempt budget allows exactly five dials")
	assert.Equal(t, []time.Duration{
		2 * time.Second,
		4 * time.Second,
		6 * time.Second,
		8 * time.Second,
	}, sched.recordedDelays(), "delay must grow linearly with the attempt count")
	assert.Equal(t, StateIdle, c.State(), "an exhausted budget leaves the transport idle")
	assert.Equal(t, 5, drops, "every failed attempt notifies connectivity observers")
	assert.False(t, c.Connected())
}

func TestClient_SuccessfulConnectResetsAttemptBudget(t *testing.T) {
	url := startChatServer(t, func(conn *websocket.Conn) {
		// Hold the connection open until the client closes it.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	c := newClient(url)
	defer c.Close()
	sched := &fakeScheduler{}
	c.afterFunc = sched.afterFunc

	var failures int
	realDial := c.dial
	c.dial = func(url string) (*websocket.Conn, error) {
		if failures < 2 {
			failures++
			return nil, errors.New("connection refused")
		}
		return realDial(url)
	}

	connected := make(chan bool, 8)
	c.OnConnectivityChange(func(up bool) { connected <- up })

	c.connect()
	assert.Equal(t, false, <-connected)
	require.True(t, sched.fire())
	assert.Equal(t, false, <-connected)
	require.True(t, sched.fire())
	assert.Equal(t, true, <-connected)

	assert.Equal(t, StateConnected, c.State())
	c.mu.Lock()
	assert.Equal(t, 0, c.attempt, "a successful open must reset the attempt counter")
	c.mu.Unlock()
}

func TestClient_ReceivesAndFansOutFrames(t *testing.T) {
	payload, err := chat.EncodeFrame(chat.JoinedChat{TourID: "tour:alps"})
	require.NoError(t, err)

	url := startChatServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, payload)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	c := New(url)
	defer c.Close()

	first := make(chan chat.ServerFrame, 1)
	second := make(chan chat.ServerFrame, 1)
	c.Subscribe(func(frame chat.ServerFrame) { first <- frame })
	c.Subscribe(func(frame chat.ServerFrame) { second <- frame })

	for _, ch := range []chan chat.ServerFrame{first, second} {
		select {
		case frame := <-ch:
			assert.Equal(t, chat.JoinedChat{TourID: "tour:alps"}, frame)
		case <-time.After(2 * time.Second):
			t.Fatal("subscriber did not receive the frame")
		}
	}
}

func TestClient_SendReachesTheServer(t *testing.T) {
	received := make(chan []byte, 1)
	url := startChatServer(t, func(conn *websocket.Conn) {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		received <- data
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	c := New(url)
	defer c.Close()

	ready := make(chan struct{})
	var once sync.Once
	c.OnConnectivityChange(func(up bool) {
		if up {
			once.Do(func() { close(ready) })
		}
	})
	select {
	case <-ready:
	case <-time.After(2 * time.Second):
		t.Fatal("client never connected")
	}

	c.Send(chat.JoinTourChat{TourID: "tour:alps", UserID: "user:alex"})

	select {
	case data := <-received:
		frame, err := chat.DecodeClientFrame(data)
		require.NoError(t, err)
		assert.Equal(t, chat.JoinTourChat{TourID: "tour:alps", UserID: "user:alex"}, frame)
	case <-time.After(2 * time.Second):
		t.Fatal("server never received the frame")
	}
}

func TestClient_SendWhileDisconnectedIsDropped(t *testing.T) {
	c := newClient("ws://unreachable.invalid/ws")
	// Never connected; Send must be a safe no-op.
	c.Send(chat.SendMessage{Message: "into the void"})
	assert.False(t, c.Connected())
}

func TestClient_UnsubscribeIsIdempotentAndSafeMidDelivery(t *testing.T) {
	c := newClient("ws://unreachable.invalid/ws")

	var selfCalls, otherCalls int
	var unsubscribeSelf func()
	unsubscribeSelf = c.Subscribe(func(frame chat.ServerFrame) {
		selfCalls++
		unsubscribeSelf()
	})
	unsubscribeOther := c.Subscribe(func(frame chat.ServerFrame) {
		otherCalls++
	})

	c.deliver(chat.JoinedChat{TourID: "tour:alps"})
	c.deliver(chat.JoinedChat{TourID: "tour:alps"})

	assert.Equal(t, 1, selfCalls, "a handler that unsubscribes itself must not run again")
	assert.Equal(t, 2, otherCalls)

	unsubscribeOther()
	unsubscribeOther()
	c.deliver(chat.JoinedChat{TourID: "tour:alps"})
	assert.Equal(t, 2, otherCalls)
}

func TestClient_CloseCancelsPendingReconnect(t *testing.T) {
	c := newClient("ws://unreachable.invalid/ws")
	sched := &fakeScheduler{}
	c.afterFunc = sched.afterFunc

	var dials int
	c.dial = func(url string) (*websocket.Conn, error) {
		dials++
		return nil, errors.New("connection refused")
	}

	c.connect()
	require.Equal(t, 1, dials)
	require.Equal(t, StateReconnecting, c.State())

	c.Close()
	for sched.fire() {
	}

	assert.Equal(t, 1, dials, "no dial may happen after Close")
	assert.Equal(t, StateClosed, c.State())
}
