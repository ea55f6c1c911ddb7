package runtime

import (
	"sort"
	"sync"

	"presence-lab/domain"
	"presence-lab/errors"
)

// Directory owns the room id -> room mapping. Room contents are only
// mutated inside coordinator transitions; the lock protects the map itself
// so listing snapshots stay safe while transitions proceed.
type Directory struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*domain.Room
}

func NewDirectory() *Directory {
	return &Directory{rooms: make(map[domain.RoomID]*domain.Room)}
}

// Create allocates a fresh unique room id and registers the room with the
// owner as its first member.
func (d *Directory) Create(name string, owner domain.ConnID) *domain.Room {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := domain.NewRoomID()
	for {
		if _, taken := d.rooms[id]; !taken {
			break
		}
		// uuid collisions are theoretical, but live ids must stay unique
		id = domain.NewRoomID()
	}
	room := domain.NewRoom(id, name, owner)
	d.rooms[id] = room
	return room
}

func (d *Directory) Get(id domain.RoomID) (*domain.Room, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	room, ok := d.rooms[id]
	if !ok {
		return nil, errors.ErrRoomNotFound
	}
	return room, nil
}

// AddMember inserts a member into the room. Fails if the room is unknown or
// closed; adding an existing member is a no-op.
func (d *Directory) AddMember(id domain.RoomID, conn domain.ConnID) error {
	room, err := d.Get(id)
	if err != nil {
		return err
	}
	return room.AddMember(conn)
}

// RemoveMember scrubs a member from the room. Unknown members are ignored.
// An emptied room is NOT auto-deleted: only owner departure or an explicit
// remove call destroys a room.
func (d *Directory) RemoveMember(id domain.RoomID, conn domain.ConnID) error {
	room, err := d.Get(id)
	if err != nil {
		return err
	}
	room.RemoveMember(conn)
	return nil
}

// Destroy removes the room from the directory and returns it, so the
// coordinator can generate departure notifications from the final state.
func (d *Directory) Destroy(id domain.RoomID) (*domain.Room, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	room, ok := d.rooms[id]
	if !ok {
		return nil, errors.ErrRoomNotFound
	}
	delete(d.rooms, id)
	return room, nil
}

// List returns a point-in-time snapshot of the room set, sorted by name.
func (d *Directory) List() []*domain.Room {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*domain.Room, 0, len(d.rooms))
	for _, room := range d.rooms {
		out = append(out, room)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (d *Directory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.rooms)
}
