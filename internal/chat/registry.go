package chat

import (
	"sync"

	"github.com/google/uuid"
	"github.com/tmoran/ridelink/internal/domain"
)

// sessionState is the registry's side-table record for one connection.
// Room and user are set only by a successful join handshake.
type sessionState struct {
	conn   *Conn
	roomID string
	userID string
}

// Registry tracks every live connection, its optional room assignment and the
// user identity claimed at join time. It owns the authoritative mapping from
// room to connection set; rooms exist implicitly while at least one
// connection is assigned to them.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*sessionState
	rooms    map[string]map[string]*Conn
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*sessionState),
		rooms:    make(map[string]map[string]*Conn),
	}
}

// Register allocates and tracks a new connection with no room or user
// assigned.
func (r *Registry) Register() *Conn {
	conn := newConn(uuid.NewString())

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[conn.ID] = &sessionState{conn: conn}
	return conn
}

// AssignRoom binds a connection to a room under the given user identity. The
// caller must have verified membership already; this is a pure state
// mutation. A connection already assigned elsewhere is moved, so the prior
// room's fan-out set no longer includes it. Returns ErrConnectionUnknown if
// the connection closed concurrently.
func (r *Registry) AssignRoom(connID, roomID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[connID]
	if !ok {
		return domain.ErrConnectionUnknown
	}

	r.removeFromRoom(sess, connID)

	sess.roomID = roomID
	sess.userID = userID
	if r.rooms[roomID] == nil {
		r.rooms[roomID] = make(map[string]*Conn)
	}
	r.rooms[roomID][connID] = sess.conn
	return nil
}

// Unassign clears a connection's room and user fields. Idempotent; unknown
// connections are ignored.
func (r *Registry) Unassign(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[connID]
	if !ok {
		return
	}
	r.removeFromRoom(sess, connID)
	sess.roomID = ""
	sess.userID = ""
}

// Unregister removes the connection entirely and closes its send channel.
// Called exactly once, on transport close. A connection removed here can
// never reappear in a room without a fresh join handshake.
func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	sess, ok := r.sessions[connID]
	if ok {
		r.removeFromRoom(sess, connID)
		delete(r.sessions, connID)
	}
	r.mu.Unlock()

	if ok {
		sess.conn.close()
	}
}

// MembersOf returns a snapshot of the connections currently assigned to a
// room. Some of them may close between snapshot and delivery; delivery to a
// closed connection is a silent no-op.
func (r *Registry) MembersOf(roomID string) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*Conn, 0, len(r.rooms[roomID]))
	for _, conn := range r.rooms[roomID] {
		conns = append(conns, conn)
	}
	return conns
}

// Len returns the number of tracked connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// removeFromRoom drops a connection from the room index. Caller holds the
// write lock.
func (r *Registry) removeFromRoom(sess *sessionState, connID string) {
	if sess.roomID == "" {
		return
	}
	if members, ok := r.rooms[sess.roomID]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.rooms, sess.roomID)
		}
	}
}
