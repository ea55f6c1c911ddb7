package runtime

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"presence-lab/domain"
	"presence-lab/domain/event"
	"presence-lab/errors"
)

type nopSink struct{ id int }

func (nopSink) Consume(ctx context.Context, n event.Notification) error { return nil }

func TestRegistry_Register(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	id := domain.ConnID(uuid.NewString())

	// Given an empty registry
	req.Equal(0, registry.Count())

	// When a person registers
	p, err := registry.Register(id, "Alice", nopSink{})

	// Then the person exists with no room references
	req.NoError(err)
	req.Equal(id, p.ID)
	req.Equal("Alice", p.Name)
	req.Nil(p.CurrentRoom)
	req.Nil(p.OwnedRoom)
	req.Equal(1, registry.Count())
}

func TestRegistry_Register_DuplicateConnection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	id := domain.ConnID(uuid.NewString())

	_, err := registry.Register(id, "Alice", nopSink{})
	req.NoError(err)

	// When the same connection registers again
	_, err = registry.Register(id, "Bob", nopSink{})

	// Then the registration is refused and the original record survives
	req.ErrorIs(err, errors.ErrDuplicateConnection)
	p, err := registry.Lookup(id)
	req.NoError(err)
	req.Equal("Alice", p.Name)
}

func TestRegistry_Lookup_Unknown(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	_, err := registry.Lookup("ghost")

	req.ErrorIs(err, errors.ErrNotFound)
}

func TestRegistry_SetRoom(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	id := domain.ConnID(uuid.NewString())
	_, err := registry.Register(id, "Alice", nopSink{})
	req.NoError(err)
	roomID := domain.NewRoomID()

	req.NoError(registry.SetRoom(id, &roomID))
	p, err := registry.Lookup(id)
	req.NoError(err)
	req.Equal(&roomID, p.CurrentRoom)

	req.NoError(registry.SetRoom(id, nil))
	p, err = registry.Lookup(id)
	req.NoError(err)
	req.Nil(p.CurrentRoom)

	req.ErrorIs(registry.SetRoom("ghost", &roomID), errors.ErrNotFound)
}

func TestRegistry_Unregister(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	id := domain.ConnID(uuid.NewString())
	_, err := registry.Register(id, "Alice", nopSink{})
	req.NoError(err)

	// When the person unregisters
	p, err := registry.Unregister(id)

	// Then the removed record comes back for cleanup and the id is free
	req.NoError(err)
	req.Equal("Alice", p.Name)
	req.Equal(0, registry.Count())
	req.Empty(registry.SinksFor([]domain.ConnID{id}))

	_, err = registry.Unregister(id)
	req.ErrorIs(err, errors.ErrNotFound)
}

func TestRegistry_SinksFor_SkipsVanished(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	a := domain.ConnID("a")
	b := domain.ConnID("b")
	sinkA := nopSink{id: 1}
	_, err := registry.Register(a, "Alice", sinkA)
	req.NoError(err)
	_, err = registry.Register(b, "Bob", nopSink{id: 2})
	req.NoError(err)

	_, err = registry.Unregister(b)
	req.NoError(err)

	// Then only the live sink resolves
	sinks := registry.SinksFor([]domain.ConnID{a, b})
	req.Len(sinks, 1)
	req.Equal(sinkA, sinks[0])
}

func TestRegistry_Snapshot_SortedByName(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	_, err := registry.Register("c1", "Charlie", nopSink{})
	req.NoError(err)
	_, err = registry.Register("c2", "Alice", nopSink{})
	req.NoError(err)
	_, err = registry.Register("c3", "Bob", nopSink{})
	req.NoError(err)

	snapshot := registry.Snapshot()

	req.Len(snapshot, 3)
	req.Equal("Alice", snapshot[0].Name)
	req.Equal("Bob", snapshot[1].Name)
	req.Equal("Charlie", snapshot[2].Name)
}
