package ws

import (
	"context"

	"presence-lab/domain/event"
)

// Sink is one websocket connection's delivery channel. The fanout worker
// feeds it; the connection's write pump drains it.
type Sink struct {
	events chan event.Notification
}

func NewSink(bufferSize int) *Sink {
	return &Sink{events: make(chan event.Notification, bufferSize)}
}

func (s *Sink) Events() <-chan event.Notification {
	return s.events
}

// Consume is called by the fanout worker. A full buffer means the client is
// not keeping up; the notification is dropped rather than blocking fanout.
func (s *Sink) Consume(ctx context.Context, n event.Notification) error {
	select {
	case s.events <- n:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
