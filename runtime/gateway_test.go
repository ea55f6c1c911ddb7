package runtime

import (
	"context"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"presence-lab/domain"
	"presence-lab/domain/event"
	"presence-lab/moderation"
	"presence-lab/observability"
)

func TestChannelGateway_SendTo(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	gw := NewChannelGateway(logs.GetLoggerFromLevel(slog.LevelDebug), registry, NewDirectory(), 8)

	gw.SendTo("a", event.Notice{Text: "hi"})

	env := <-gw.Envelopes()
	req.Equal([]domain.ConnID{"a"}, env.Recipients)
	req.Equal(event.Notice{Text: "hi"}, env.Payload)
}

func TestChannelGateway_BroadcastAll_ResolvesAtEmitTime(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	gw := NewChannelGateway(logs.GetLoggerFromLevel(slog.LevelDebug), registry, NewDirectory(), 8)
	_, err := registry.Register("a", "Alice", nopSink{})
	req.NoError(err)
	_, err = registry.Register("b", "Bob", nopSink{})
	req.NoError(err)

	gw.BroadcastAll(event.Notice{Text: "hello"})

	// A later registration must not widen the already-emitted envelope
	_, err = registry.Register("late", "Late", nopSink{})
	req.NoError(err)

	env := <-gw.Envelopes()
	req.ElementsMatch([]domain.ConnID{"a", "b"}, env.Recipients)
}

func TestChannelGateway_BroadcastRoom(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	directory := NewDirectory()
	gw := NewChannelGateway(logs.GetLoggerFromLevel(slog.LevelDebug), registry, directory, 8)
	room := directory.Create("Lobby", "a")
	req.NoError(room.AddMember("b"))

	gw.BroadcastRoom(room.ID, event.Notice{Text: "room only"})

	env := <-gw.Envelopes()
	req.ElementsMatch([]domain.ConnID{"a", "b"}, env.Recipients)
}

func TestChannelGateway_BroadcastRoom_UnknownRoomSkipped(t *testing.T) {
	req := require.New(t)
	gw := NewChannelGateway(logs.GetLoggerFromLevel(slog.LevelDebug), NewRegistry(), NewDirectory(), 8)

	gw.BroadcastRoom(domain.NewRoomID(), event.Notice{Text: "nobody"})

	select {
	case env := <-gw.Envelopes():
		req.Failf("unexpected envelope", "%+v", env)
	default:
	}
}

func TestChannelGateway_FullChannelDrops(t *testing.T) {
	req := require.New(t)
	gw := NewChannelGateway(logs.GetLoggerFromLevel(slog.LevelDebug), NewRegistry(), NewDirectory(), 1)

	// When more envelopes are emitted than the buffer holds
	gw.SendTo("a", event.Notice{Text: "first"})
	gw.SendTo("a", event.Notice{Text: "dropped"})

	// Then the overflow is dropped, not blocked on
	env := <-gw.Envelopes()
	req.Equal(event.Notice{Text: "first"}, env.Payload)
	select {
	case env := <-gw.Envelopes():
		req.Failf("unexpected envelope", "%+v", env)
	default:
	}
}

// Owner teardown must emit the room notice while the membership is still
// resolvable, so departing members actually hear it.
func TestChannelGateway_TeardownNoticeReachesMembers(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry := NewRegistry()
	directory := NewDirectory()
	gw := NewChannelGateway(log, registry, directory, 64)
	moderator, err := moderation.NewModerator(nil, '*')
	req.NoError(err)
	c := NewCoordinator(log, registry, directory, gw, moderator, observability.NewStats(), 2)

	ctx := context.Background()
	req.NoError(c.Connect(ctx, domain.ConnectCommand{ID: "a", Name: "Alice"}, nopSink{}))
	req.NoError(c.Connect(ctx, domain.ConnectCommand{ID: "b", Name: "Bob"}, nopSink{}))
	req.NoError(c.CreateRoom(ctx, domain.CreateRoomCommand{ID: "a", Name: "Lobby"}))
	lobby := directory.List()[0].ID
	req.NoError(c.JoinRoom(ctx, domain.JoinRoomCommand{ID: "b", Room: lobby}))

	// Drain everything emitted so far
	for len(gw.Envelopes()) > 0 {
		<-gw.Envelopes()
	}

	// When the owner leaves and the room is destroyed
	req.NoError(c.LeaveRoom(ctx, domain.LeaveRoomCommand{ID: "a", Room: lobby}))

	// Then the first envelope is the teardown notice addressed to both
	env := <-gw.Envelopes()
	notice, ok := env.Payload.(event.Notice)
	req.True(ok)
	req.Contains(notice.Text, "removed")
	req.ElementsMatch([]domain.ConnID{"a", "b"}, env.Recipients)
}
