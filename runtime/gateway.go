package runtime

import (
	"log/slog"

	"presence-lab/domain"
	"presence-lab/domain/event"
)

// ChannelGateway implements the broadcast gateway over a buffered envelope
// channel drained by the EventFanout worker.
//
// Recipients are resolved here, inside the emitting transition, so delivery
// always matches the state the transition observed. When the channel is
// full the envelope is dropped with a warning: the gateway attempts
// delivery at most once and never blocks a transition.
type ChannelGateway struct {
	log       *slog.Logger
	registry  *Registry
	directory *Directory
	envelopes chan event.Envelope
}

func NewChannelGateway(log *slog.Logger, registry *Registry, directory *Directory, bufferSize int) *ChannelGateway {
	return &ChannelGateway{
		log:       log,
		registry:  registry,
		directory: directory,
		envelopes: make(chan event.Envelope, bufferSize),
	}
}

// Envelopes exposes the outbound queue for the fanout worker.
func (g *ChannelGateway) Envelopes() <-chan event.Envelope {
	return g.envelopes
}

func (g *ChannelGateway) SendTo(conn domain.ConnID, n event.Notification) {
	g.emit(event.Envelope{Recipients: []domain.ConnID{conn}, Payload: n})
}

func (g *ChannelGateway) BroadcastAll(n event.Notification) {
	g.emit(event.Envelope{Recipients: g.registry.ConnIDs(), Payload: n})
}

func (g *ChannelGateway) BroadcastRoom(room domain.RoomID, n event.Notification) {
	rm, err := g.directory.Get(room)
	if err != nil {
		g.log.Debug("Broadcast to unknown room skipped", "room", room, "kind", n.Kind())
		return
	}
	g.emit(event.Envelope{Recipients: rm.Members(), Payload: n})
}

func (g *ChannelGateway) emit(env event.Envelope) {
	if len(env.Recipients) == 0 {
		return
	}
	select {
	case g.envelopes <- env:
	default:
		g.log.Warn("Envelope channel full, dropping notification", "kind", env.Payload.Kind())
	}
}
