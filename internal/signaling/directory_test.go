package signaling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDirectoryLazyCreateAndEvict tests that a room exists exactly while it
// has members.
func TestDirectoryLazyCreateAndEvict(t *testing.T) {
	d := NewDirectory(10)
	_, ok := d.Get("r")
	require.False(t, ok)
	assert.Equal(t, []string{}, d.Members("r"))

	room := d.Add("r", "a")
	room.History().Append(ChatMessage{ID: "1", Text: "hi"})
	d.Add("r", "b")
	assert.Equal(t, 1, d.Len())
	assert.Equal(t, 10, room.History().Cap())

	survivor, removed := d.Remove("r", "a")
	assert.True(t, removed)
	require.NotNil(t, survivor)
	assert.Equal(t, []string{"b"}, survivor.Members())

	survivor, removed = d.Remove("r", "b")
	assert.True(t, removed)
	assert.Nil(t, survivor)
	assert.Equal(t, 0, d.Len())

	fresh := d.Add("r", "c")
	assert.Equal(t, 0, fresh.History().Len(), "history is discarded with the room")
}

// TestDirectoryRemoveNonMember tests that removing a stranger reports nothing
// removed and keeps the room.
func TestDirectoryRemoveNonMember(t *testing.T) {
	d := NewDirectory(0)
	d.Add("r", "a")

	room, removed := d.Remove("r", "zzz")
	assert.False(t, removed)
	assert.NotNil(t, room)

	room, removed = d.Remove("missing", "a")
	assert.False(t, removed)
	assert.Nil(t, room)
}

// TestRoomMembersInJoinOrder tests ordering, including re-adds.
func TestRoomMembersInJoinOrder(t *testing.T) {
	d := NewDirectory(0)
	for _, id := range []string{"c", "a", "b"} {
		d.Add("r", id)
	}
	d.Add("r", "c")

	room, _ := d.Get("r")
	assert.Equal(t, []string{"c", "a", "b"}, room.Members())
	assert.True(t, room.Has("a"))
	assert.False(t, room.Has("z"))

	d.Remove("r", "a")
	d.Add("r", "a")
	assert.Equal(t, []string{"c", "b", "a"}, room.Members())
}

// TestDirectoryStats tests the summary ordering.
func TestDirectoryStats(t *testing.T) {
	d := NewDirectory(0)
	d.Add("zeta", "a")
	d.Add("alpha", "a")
	d.Add("alpha", "b")

	assert.Equal(t, []RoomStats{
		{RoomID: "alpha", Members: 2},
		{RoomID: "zeta", Members: 1},
	}, d.Stats())
}

// TestRegistryAddRemove tests connection bookkeeping.
func TestRegistryAddRemove(t *testing.T) {
	r := NewRegistry()
	p := &recordingPeer{id: "a"}
	s := r.Add(p, Identity{UserID: "u"})
	s.track("r1")
	s.track("r0")

	again := r.Add(&recordingPeer{id: "a"}, Identity{UserID: "u2"})
	assert.Same(t, s, again)
	assert.Equal(t, []string{"r0", "r1"}, again.Rooms())
	assert.Equal(t, "u2", again.Identity().UserID)
	assert.True(t, again.Joined("r1"))

	assert.True(t, r.Send("a", []byte(`{"event":"x"}`)))
	assert.False(t, r.Send("b", []byte(`{"event":"x"}`)))

	assert.Same(t, s, r.Remove("a"))
	assert.Nil(t, r.Remove("a"))
	assert.Equal(t, 0, r.Len())
}
