package chat

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tmoran/ridelink/internal/domain"
)

// State is the lifecycle state of one connection's chat session.
type State int

const (
	// StateUnjoined is the initial state, right after registration.
	StateUnjoined State = iota
	// StateJoined means the connection is bound to a room under a verified
	// user identity.
	StateJoined
	// StateClosed is terminal, entered on transport close from any state.
	StateClosed
)

// Error texts sent to the peer. These are part of the wire contract.
const (
	errNotMember     = "Not a member of this tour"
	errNotJoined     = "Not joined to any tour chat"
	errInvalidFrame  = "Invalid message format"
	errGateFailure   = "Failed to verify tour membership"
	errAppendFailure = "Failed to send message"
)

// Session is the per-connection protocol state machine. HandleFrame is only
// ever called from the connection's read loop, so state transitions are
// single-threaded; the registry and broadcaster handle cross-connection
// synchronization.
type Session struct {
	conn        *Conn
	registry    *Registry
	gate        MembershipGate
	messages    domain.MessageRepository
	broadcaster *Broadcaster

	state  State
	tourID string
	userID string

	closeOnce sync.Once
}

// NewSession creates a session for a freshly registered connection.
func NewSession(conn *Conn, registry *Registry, gate MembershipGate, messages domain.MessageRepository, broadcaster *Broadcaster) *Session {
	return &Session{
		conn:        conn,
		registry:    registry,
		gate:        gate,
		messages:    messages,
		broadcaster: broadcaster,
		state:       StateUnjoined,
	}
}

// State returns the session's current state.
func (s *Session) State() State {
	return s.state
}

// HandleFrame processes one inbound frame. Every per-message fault is turned
// into an error reply; none of them tears the connection down.
func (s *Session) HandleFrame(ctx context.Context, raw []byte) {
	if s.state == StateClosed {
		return
	}

	frame, err := DecodeClientFrame(raw)
	if err != nil {
		slog.Debug("Rejecting unparseable frame", "connID", s.conn.ID, "error", err)
		s.reply(ErrorFrame{Message: errInvalidFrame})
		return
	}

	switch f := frame.(type) {
	case JoinTourChat:
		s.handleJoin(ctx, f)
	case SendMessage:
		s.handleSend(ctx, f)
	}
}

// handleJoin runs the join handshake. A join while already joined is a fresh
// attempt: the gate is re-queried and, on success, the room assignment is
// overwritten, which is how clients switch rooms without reconnecting. On
// failure the existing assignment is left untouched.
func (s *Session) handleJoin(ctx context.Context, f JoinTourChat) {
	member, err := s.gate.IsMember(ctx, f.TourID, f.UserID)
	if err != nil {
		slog.Error("Membership lookup failed", "connID", s.conn.ID, "tourID", f.TourID, "error", err)
		s.reply(ErrorFrame{Message: errGateFailure})
		return
	}
	if !member {
		s.reply(ErrorFrame{Message: errNotMember})
		return
	}

	if err := s.registry.AssignRoom(s.conn.ID, f.TourID, f.UserID); err != nil {
		// The transport closed while the gate was being queried. The close
		// path owns cleanup; nothing to reply to.
		slog.Debug("Join raced with close", "connID", s.conn.ID, "error", err)
		return
	}

	s.state = StateJoined
	s.tourID = f.TourID
	s.userID = f.UserID
	s.reply(JoinedChat{TourID: f.TourID})
	slog.Info("Connection joined tour chat", "connID", s.conn.ID, "tourID", f.TourID, "userID", f.UserID)
}

// handleSend persists the message, then broadcasts it. The room lock is held
// across both so that persisted order equals broadcast order.
func (s *Session) handleSend(ctx context.Context, f SendMessage) {
	if s.state != StateJoined {
		s.reply(ErrorFrame{Message: errNotJoined})
		return
	}

	lock := s.broadcaster.LockRoom(s.tourID)
	lock.Lock()
	defer lock.Unlock()

	msg, err := s.messages.Append(ctx, s.tourID, s.userID, f.Message)
	if err != nil {
		slog.Error("Failed to persist chat message", "connID", s.conn.ID, "tourID", s.tourID, "error", err)
		s.reply(ErrorFrame{Message: errAppendFailure})
		return
	}

	s.broadcaster.Broadcast(s.tourID, NewMessage{Message: *msg})
}

// Close moves the session to its terminal state and unregisters the
// connection. Runs exactly once regardless of how many paths observe the
// transport closing.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.state = StateClosed
		s.registry.Unregister(s.conn.ID)
	})
}

// reply sends a frame back to this session's own connection.
func (s *Session) reply(frame ServerFrame) {
	payload, err := EncodeFrame(frame)
	if err != nil {
		slog.Error("Failed to encode reply frame", "connID", s.conn.ID, "error", err)
		return
	}
	s.conn.Send(payload)
}
