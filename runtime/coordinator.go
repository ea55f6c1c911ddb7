package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"presence-lab/contract"
	"presence-lab/domain"
	"presence-lab/domain/event"
	"presence-lab/errors"
	"presence-lab/moderation"
	"presence-lab/observability"
)

// Coordinator is the membership state machine. Every transition runs as one
// atomic unit under a single mutation lock: contention is low for a chat
// coordinator and a global lock rules out the split read/mutate races that
// plague per-field locking here.
//
// A rejected transition leaves the registry and directory untouched and
// produces exactly one personal notice to the originating connection.
// Transitions arriving for a connection that already disconnected fail with
// the registry's not-found error instead of resurrecting state.
type Coordinator struct {
	mu        sync.Mutex
	log       *slog.Logger
	registry  *Registry
	directory *Directory
	gateway   contract.Gateway
	moderator *moderation.Moderator
	stats     *observability.Stats

	// maxRemoveOccupancy is the ad-hoc policy guard on explicit room
	// removal: a room holding more members than this refuses the remove.
	maxRemoveOccupancy int
}

func NewCoordinator(log *slog.Logger, registry *Registry, directory *Directory,
	gateway contract.Gateway, moderator *moderation.Moderator,
	stats *observability.Stats, maxRemoveOccupancy int) *Coordinator {
	return &Coordinator{
		log:                log,
		registry:           registry,
		directory:          directory,
		gateway:            gateway,
		moderator:          moderator,
		stats:              stats,
		maxRemoveOccupancy: maxRemoveOccupancy,
	}
}

// Connect registers the person behind a fresh connection and greets it:
// a personal welcome, an "is online" broadcast, the updated roster and the
// current room listing.
func (c *Coordinator) Connect(_ context.Context, cmd domain.ConnectCommand, sink contract.EventSink) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.registry.Register(cmd.ID, cmd.Name, sink)
	if err != nil {
		c.stats.IncrRejectedTransitions()
		return err
	}
	c.stats.IncrConnects()

	c.gateway.SendTo(p.ID, event.Notice{Text: "You have connected to the server."})
	c.gateway.BroadcastAll(event.Notice{Text: fmt.Sprintf("%s is online.", p.Name)})
	c.gateway.BroadcastAll(c.roster())
	c.gateway.SendTo(p.ID, c.roomListing())
	return nil
}

// CreateRoom opens a new room owned by the caller and attaches the caller
// to it. A connection owns at most one live room and belongs to at most one
// room, so either existing reference rejects the transition.
func (c *Coordinator) CreateRoom(_ context.Context, cmd domain.CreateRoomCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.registry.Lookup(cmd.ID)
	if err != nil {
		return err
	}
	if p.OwnedRoom != nil {
		return c.reject(p.ID, "You have already created a room.", errors.ErrAlreadyOwnsRoom)
	}
	if p.CurrentRoom != nil {
		return c.reject(p.ID, "You are already in a room, please leave it first.", errors.ErrAlreadyInRoom)
	}

	room := c.directory.Create(cmd.Name, p.ID)
	roomID := room.ID
	_ = c.registry.SetOwnedRoom(p.ID, &roomID)
	_ = c.registry.SetRoom(p.ID, &roomID)
	c.stats.IncrRoomsCreated()

	c.gateway.BroadcastAll(c.roomListing())
	c.gateway.SendTo(p.ID, event.Notice{Text: fmt.Sprintf("Welcome to %s.", room.Name)})
	c.gateway.SendTo(p.ID, event.RoomAssigned{ID: roomID})
	return nil
}

// JoinRoom attaches the caller to an existing room as a plain member.
// Joining a room you own or already joined is treated as success.
func (c *Coordinator) JoinRoom(_ context.Context, cmd domain.JoinRoomCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.registry.Lookup(cmd.ID)
	if err != nil {
		return err
	}
	room, err := c.directory.Get(cmd.Room)
	if err != nil {
		return c.reject(p.ID, "That room does not exist.", err)
	}

	if p.ID == room.OwnerID {
		c.gateway.SendTo(p.ID, event.Notice{Text: "You are the owner of this room and you have already been joined."})
		return nil
	}
	if room.HasMember(p.ID) {
		c.gateway.SendTo(p.ID, event.Notice{Text: "You have already joined this room."})
		return nil
	}
	if p.CurrentRoom != nil {
		text := "You are already in a room, please leave it first to join another room."
		if current, err := c.directory.Get(*p.CurrentRoom); err == nil {
			text = fmt.Sprintf("You are already in a room (%s), please leave it first to join another room.", current.Name)
		}
		return c.reject(p.ID, text, errors.ErrAlreadyInRoom)
	}

	if err := room.AddMember(p.ID); err != nil {
		return c.reject(p.ID, "That room is closed to new members.", err)
	}
	roomID := room.ID
	_ = c.registry.SetRoom(p.ID, &roomID)

	c.gateway.BroadcastRoom(roomID, event.Notice{Text: fmt.Sprintf("%s has connected to %s room.", p.Name, room.Name)})
	c.gateway.SendTo(p.ID, event.Notice{Text: fmt.Sprintf("Welcome to %s.", room.Name)})
	c.gateway.SendTo(p.ID, event.RoomAssigned{ID: roomID})
	return nil
}

// Send broadcasts a chat message, tagged with its sender, to the members of
// the sender's current room. Content passes through moderation first.
func (c *Coordinator) Send(_ context.Context, cmd domain.SendCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.registry.Lookup(cmd.ID)
	if err != nil {
		return err
	}
	if p.CurrentRoom == nil {
		return c.reject(p.ID, "Please connect to a room.", errors.ErrNotInRoom)
	}

	msg := event.ChatMessage{
		ID:         uuid.New(),
		Room:       *p.CurrentRoom,
		SenderID:   p.ID,
		SenderName: p.Name,
		Content:    c.moderator.Censor(cmd.Content),
		At:         time.Now().UTC(),
	}
	c.gateway.BroadcastRoom(*p.CurrentRoom, msg)
	c.stats.IncrMessagesBroadcast()
	return nil
}

// LeaveRoom detaches the caller from a room. For a plain member this only
// scrubs the membership; for the owner it tears the whole room down and
// evicts every member.
func (c *Coordinator) LeaveRoom(_ context.Context, cmd domain.LeaveRoomCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.registry.Lookup(cmd.ID)
	if err != nil {
		return err
	}
	room, err := c.directory.Get(cmd.Room)
	if err != nil {
		return c.reject(p.ID, "That room does not exist.", err)
	}

	if p.ID == room.OwnerID {
		c.teardownRoom(room, fmt.Sprintf("The owner (%s) is leaving the room. The room is removed.", p.Name))
		c.gateway.BroadcastAll(c.roomListing())
		return nil
	}

	if !room.HasMember(p.ID) {
		return nil
	}
	room.RemoveMember(p.ID)
	_ = c.registry.SetRoom(p.ID, nil)
	c.gateway.BroadcastRoom(room.ID, event.Notice{Text: fmt.Sprintf("%s has left the room.", p.Name)})
	c.gateway.SendTo(p.ID, event.Notice{Text: fmt.Sprintf("You have left %s.", room.Name)})
	return nil
}

// RemoveRoom is the owner-only explicit teardown. A room holding more
// members than the configured occupancy threshold refuses the removal;
// that guard is policy, not an invariant.
func (c *Coordinator) RemoveRoom(_ context.Context, cmd domain.RemoveRoomCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.registry.Lookup(cmd.ID)
	if err != nil {
		return err
	}
	room, err := c.directory.Get(cmd.Room)
	if err != nil {
		return c.reject(p.ID, "That room does not exist.", err)
	}
	if p.ID != room.OwnerID {
		return c.reject(p.ID, "Only the owner can remove a room.", errors.ErrNotOwner)
	}
	if room.MemberCount() > c.maxRemoveOccupancy {
		c.log.Warn("Room removal refused, still occupied",
			"room", room.ID, "members", room.MemberCount(), "max", c.maxRemoveOccupancy)
		return c.reject(p.ID, "There are still people in this room.", errors.ErrRoomOccupied)
	}

	c.teardownRoom(room, fmt.Sprintf("The owner (%s) removed the room.", p.Name))
	c.gateway.BroadcastAll(c.roomListing())
	return nil
}

// Disconnect removes the person entirely. An owned room is destroyed with
// full member eviction; a plain membership is scrubbed from the room's
// member set eagerly so no stale id lingers.
func (c *Coordinator) Disconnect(_ context.Context, cmd domain.DisconnectCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.registry.Lookup(cmd.ID)
	if err != nil {
		return err
	}

	roomDestroyed := false
	if p.OwnedRoom != nil {
		if room, err := c.directory.Get(*p.OwnedRoom); err == nil {
			c.teardownRoom(room, fmt.Sprintf("The owner (%s) is leaving the room. The room is removed.", p.Name))
			roomDestroyed = true
		}
	} else if p.CurrentRoom != nil {
		if room, err := c.directory.Get(*p.CurrentRoom); err == nil {
			room.RemoveMember(p.ID)
			c.gateway.BroadcastRoom(room.ID, event.Notice{Text: fmt.Sprintf("%s has left the room.", p.Name)})
		}
	}

	if _, err := c.registry.Unregister(p.ID); err != nil {
		return err
	}
	c.stats.IncrDisconnects()

	c.gateway.BroadcastAll(event.Notice{Text: fmt.Sprintf("%s has left the server.", p.Name)})
	c.gateway.BroadcastAll(c.roster())
	if roomDestroyed {
		c.gateway.BroadcastAll(c.roomListing())
	}
	return nil
}

// teardownRoom notifies the room, clears every member's joined-room
// reference, clears the owner's references and destroys the room. The
// notice goes out first so its recipient set still matches the room.
func (c *Coordinator) teardownRoom(room *domain.Room, notice string) {
	c.gateway.BroadcastRoom(room.ID, event.Notice{Text: notice})

	for _, member := range room.Members() {
		_ = c.registry.SetRoom(member, nil)
	}
	_ = c.registry.SetOwnedRoom(room.OwnerID, nil)

	if _, err := c.directory.Destroy(room.ID); err != nil {
		c.log.Error("Room vanished during teardown", "room", room.ID, "error", err)
		return
	}
	c.stats.IncrRoomsDestroyed()
}

// reject aborts a transition: one personal notice, no state change.
func (c *Coordinator) reject(conn domain.ConnID, text string, err error) error {
	c.stats.IncrRejectedTransitions()
	c.gateway.SendTo(conn, event.Notice{Text: text})
	return err
}

func (c *Coordinator) roster() event.RosterUpdate {
	return event.RosterUpdate{
		People: lo.Map(c.registry.Snapshot(), func(p domain.Person, _ int) event.PersonInfo {
			return event.PersonInfo{ID: p.ID, Name: p.Name, Room: p.CurrentRoom}
		}),
	}
}

func (c *Coordinator) roomListing() event.RoomListing {
	return event.RoomListing{
		Rooms: lo.Map(c.directory.List(), func(r *domain.Room, _ int) event.RoomInfo {
			return event.RoomInfo{
				ID:      r.ID,
				Name:    r.Name,
				OwnerID: r.OwnerID,
				Members: r.MemberCount(),
				Status:  string(r.Status),
			}
		}),
	}
}
