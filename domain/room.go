package domain

import (
	"slices"

	"github.com/google/uuid"

	"presence-lab/errors"
)

// RoomID is globally unique and non-guessable, so rooms created
// concurrently can never collide.
type RoomID string

func NewRoomID() RoomID {
	return RoomID(uuid.NewString())
}

type RoomStatus string

const (
	RoomOpen   RoomStatus = "open"
	RoomClosed RoomStatus = "closed"
)

// Room is a named broadcast scope owned by the connection that created it.
// The owner is a member of its own room for the room's whole lifetime.
type Room struct {
	ID      RoomID
	Name    string
	OwnerID ConnID
	Status  RoomStatus

	members map[ConnID]struct{}
	order   []ConnID // join order, kept for deterministic listings
}

func NewRoom(id RoomID, name string, owner ConnID) *Room {
	return &Room{
		ID:      id,
		Name:    name,
		OwnerID: owner,
		Status:  RoomOpen,
		members: map[ConnID]struct{}{owner: {}},
		order:   []ConnID{owner},
	}
}

// AddMember inserts id into the member set. Adding an existing member is a
// no-op. Closed rooms refuse new members.
func (r *Room) AddMember(id ConnID) error {
	if r.Status == RoomClosed {
		return errors.ErrRoomClosed
	}
	if _, ok := r.members[id]; ok {
		return nil
	}
	r.members[id] = struct{}{}
	r.order = append(r.order, id)
	return nil
}

// RemoveMember deletes id from the member set. Unknown ids are ignored.
func (r *Room) RemoveMember(id ConnID) {
	if _, ok := r.members[id]; !ok {
		return
	}
	delete(r.members, id)
	if i := slices.Index(r.order, id); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
}

// HasMember is a plain set lookup; membership checks never need to suspend.
func (r *Room) HasMember(id ConnID) bool {
	_, ok := r.members[id]
	return ok
}

// Members returns the member ids in join order, owner first.
func (r *Room) Members() []ConnID {
	return slices.Clone(r.order)
}

func (r *Room) MemberCount() int {
	return len(r.members)
}

// Close stops the room from accepting new members. Existing members and
// broadcasts are unaffected.
func (r *Room) Close() {
	r.Status = RoomClosed
}
