// Package runtime holds the presence state machine: the identity registry,
// the room directory, the membership coordinator and the gateway that turns
// transitions into outbound notifications. It contains no transport logic.
package runtime

import (
	"sort"
	"sync"

	"presence-lab/contract"
	"presence-lab/domain"
	"presence-lab/errors"
)

// Registry owns the connection -> person mapping plus each connection's
// delivery sink. Mutation is serialized by the Coordinator; the lock here
// protects concurrent reads from the fanout path.
type Registry struct {
	mu       sync.RWMutex
	people   map[domain.ConnID]*domain.Person
	sessions map[domain.ConnID]contract.EventSink
}

func NewRegistry() *Registry {
	return &Registry{
		people:   make(map[domain.ConnID]*domain.Person),
		sessions: make(map[domain.ConnID]contract.EventSink),
	}
}

// Register adds a fresh person with no room references and remembers the
// connection's sink for later delivery.
func (r *Registry) Register(id domain.ConnID, name string, sink contract.EventSink) (*domain.Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.people[id]; ok {
		return nil, errors.ErrDuplicateConnection
	}
	p := domain.NewPerson(id, name)
	r.people[id] = p
	r.sessions[id] = sink
	return p, nil
}

func (r *Registry) Lookup(id domain.ConnID) (*domain.Person, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.people[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return p, nil
}

// SetRoom updates the person's joined-room reference. nil clears it.
func (r *Registry) SetRoom(id domain.ConnID, room *domain.RoomID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.people[id]
	if !ok {
		return errors.ErrNotFound
	}
	p.CurrentRoom = room
	return nil
}

// SetOwnedRoom updates the person's owned-room reference. nil clears it.
func (r *Registry) SetOwnedRoom(id domain.ConnID, room *domain.RoomID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.people[id]
	if !ok {
		return errors.ErrNotFound
	}
	p.OwnedRoom = room
	return nil
}

// Unregister removes the person and its sink, returning the removed record
// so the coordinator can run its cleanup logic.
func (r *Registry) Unregister(id domain.ConnID) (*domain.Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.people[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	delete(r.people, id)
	delete(r.sessions, id)
	return p, nil
}

// Snapshot returns a copy of every registered person, sorted by name for
// stable roster listings.
func (r *Registry) Snapshot() []domain.Person {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Person, 0, len(r.people))
	for _, p := range r.people {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// ConnIDs returns every registered connection id.
func (r *Registry) ConnIDs() []domain.ConnID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.ConnID, 0, len(r.people))
	for id := range r.people {
		out = append(out, id)
	}
	return out
}

// SinksFor resolves ids to live sinks, skipping connections that vanished
// between emission and delivery.
func (r *Registry) SinksFor(ids []domain.ConnID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []contract.EventSink
	for _, id := range ids {
		if sink, ok := r.sessions[id]; ok {
			out = append(out, sink)
		}
	}
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.people)
}
