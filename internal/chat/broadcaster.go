package chat

import (
	"log/slog"
	"sync"
)

// Broadcaster fans a message out to every connection currently assigned to a
// room. It performs no persistence; callers must hand it messages that are
// already durably stored with their final order.
type Broadcaster struct {
	registry *Registry

	mu    sync.Mutex
	rooms map[string]*sync.Mutex
}

// NewBroadcaster creates a Broadcaster over the given registry.
func NewBroadcaster(registry *Registry) *Broadcaster {
	return &Broadcaster{
		registry: registry,
		rooms:    make(map[string]*sync.Mutex),
	}
}

// LockRoom returns the mutex serializing the persist-then-broadcast send
// path for a room. Holding it across append and Broadcast is what makes the
// order every member observes equal the persisted order.
func (b *Broadcaster) LockRoom(roomID string) *sync.Mutex {
	b.mu.Lock()
	defer b.mu.Unlock()

	lock, ok := b.rooms[roomID]
	if !ok {
		lock = &sync.Mutex{}
		b.rooms[roomID] = lock
	}
	return lock
}

// Broadcast delivers a frame to every member of the room at invocation time.
// Delivery to a connection that closed between snapshot and send is a silent
// no-op; one slow or dead recipient never stalls the others.
func (b *Broadcaster) Broadcast(roomID string, frame ServerFrame) {
	payload, err := EncodeFrame(frame)
	if err != nil {
		slog.Error("Failed to encode broadcast frame", "roomID", roomID, "error", err)
		return
	}

	members := b.registry.MembersOf(roomID)
	slog.Debug("Broadcasting to room", "roomID", roomID, "recipient_count", len(members))
	for _, conn := range members {
		conn.Send(payload)
	}
}
