package domain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"presence-lab/errors"
)

func TestRoom_OwnerIsFirstMember(t *testing.T) {
	req := require.New(t)

	room := NewRoom(NewRoomID(), "Lobby", "owner-1")

	req.Equal(RoomOpen, room.Status)
	req.True(room.HasMember("owner-1"))
	req.Equal([]ConnID{"owner-1"}, room.Members())
	req.Equal(1, room.MemberCount())
}

func TestRoom_AddMember_KeepsJoinOrder(t *testing.T) {
	req := require.New(t)
	room := NewRoom(NewRoomID(), "Lobby", "owner-1")

	req.NoError(room.AddMember("b"))
	req.NoError(room.AddMember("a"))

	req.Equal([]ConnID{"owner-1", "b", "a"}, room.Members())
}

func TestRoom_AddMember_Idempotent(t *testing.T) {
	req := require.New(t)
	room := NewRoom(NewRoomID(), "Lobby", "owner-1")

	// When the same member is added twice
	req.NoError(room.AddMember("b"))
	req.NoError(room.AddMember("b"))

	// Then the member set is unchanged
	req.Equal(2, room.MemberCount())
	req.Equal([]ConnID{"owner-1", "b"}, room.Members())
}

func TestRoom_AddMember_ClosedRoomRefuses(t *testing.T) {
	req := require.New(t)
	room := NewRoom(NewRoomID(), "Lobby", "owner-1")

	room.Close()

	req.ErrorIs(room.AddMember("b"), errors.ErrRoomClosed)
	req.Equal(1, room.MemberCount())
}

func TestRoom_RemoveMember_UnknownIsNoop(t *testing.T) {
	req := require.New(t)
	room := NewRoom(NewRoomID(), "Lobby", "owner-1")

	room.RemoveMember("ghost")

	req.Equal(1, room.MemberCount())
}

func TestRoom_RemoveMember(t *testing.T) {
	req := require.New(t)
	room := NewRoom(NewRoomID(), "Lobby", "owner-1")
	req.NoError(room.AddMember("b"))
	req.NoError(room.AddMember("c"))

	room.RemoveMember("b")

	req.False(room.HasMember("b"))
	req.Equal([]ConnID{"owner-1", "c"}, room.Members())
}

func TestNewRoomID_Unique(t *testing.T) {
	req := require.New(t)

	seen := make(map[RoomID]struct{})
	for i := 0; i < 1000; i++ {
		id := NewRoomID()
		_, dup := seen[id]
		req.False(dup)
		seen[id] = struct{}{}
	}
}
