package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmoran/ridelink/internal/domain"
)

func TestRegistry_RegisterAssignsUniqueIDs(t *testing.T) {
	r := NewRegistry()

	a := r.Register()
	b := r.Register()

	require.NotEmpty(t, a.ID)
	require.NotEmpty(t, b.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_AssignRoomTracksMembership(t *testing.T) {
	r := NewRegistry()
	conn := r.Register()

	err := r.AssignRoom(conn.ID, "tour:alps", "user:alex")
	require.NoError(t, err)

	members := r.MembersOf("tour:alps")
	require.Len(t, members, 1)
	assert.Equal(t, conn.ID, members[0].ID)
}

func TestRegistry_AssignRoomUnknownConnection(t *testing.T) {
	r := NewRegistry()

	err := r.AssignRoom("no-such-conn", "tour:alps", "user:alex")
	assert.ErrorIs(t, err, domain.ErrConnectionUnknown)
}

func TestRegistry_AssignRoomMovesBetweenRooms(t *testing.T) {
	r := NewRegistry()
	conn := r.Register()

	require.NoError(t, r.AssignRoom(conn.ID, "tour:alps", "user:alex"))
	require.NoError(t, r.AssignRoom(conn.ID, "tour:coast", "user:alex"))

	assert.Empty(t, r.MembersOf("tour:alps"), "connection must leave the previous room's fan-out set")
	require.Len(t, r.MembersOf("tour:coast"), 1)
}

func TestRegistry_UnassignIsIdempotent(t *testing.T) {
	r := NewRegistry()
	conn := r.Register()
	require.NoError(t, r.AssignRoom(conn.ID, "tour:alps", "user:alex"))

	r.Unassign(conn.ID)
	r.Unassign(conn.ID)
	r.Unassign("no-such-conn")

	assert.Empty(t, r.MembersOf("tour:alps"))
	assert.Equal(t, 1, r.Len(), "unassign must not unregister the connection")
}

func TestRegistry_UnregisterRemovesAndCloses(t *testing.T) {
	r := NewRegistry()
	conn := r.Register()
	require.NoError(t, r.AssignRoom(conn.ID, "tour:alps", "user:alex"))

	r.Unregister(conn.ID)

	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.MembersOf("tour:alps"))

	// Delivery to an unregistered connection is a silent no-op.
	conn.Send([]byte("late"))

	// A second unregister must not panic or double-close.
	r.Unregister(conn.ID)
}

func TestRegistry_MembersOfReturnsSnapshot(t *testing.T) {
	r := NewRegistry()
	a := r.Register()
	b := r.Register()
	require.NoError(t, r.AssignRoom(a.ID, "tour:alps", "user:alex"))
	require.NoError(t, r.AssignRoom(b.ID, "tour:alps", "user:blair"))

	members := r.MembersOf("tour:alps")
	require.Len(t, members, 2)

	r.Unregister(a.ID)
	assert.Len(t, r.MembersOf("tour:alps"), 1, "registry must reflect the removal")
	assert.Len(t, members, 2, "previously taken snapshots are not mutated")
}
