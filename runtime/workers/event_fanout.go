package workers

import (
	"context"
	"log/slog"
	"time"

	"presence-lab/contract"
	"presence-lab/domain/event"
)

// EventFanout drains the gateway's envelope queue and hands each
// notification to the sinks of its recipients.
//
// Best-effort fan-out: a sink that vanished loses the notification and a
// slow sink is cut off by the delivery timeout. A single fanout goroutine
// drains the queue, so the notifications emitted by one transition reach
// sinks in emission order.
type EventFanout struct {
	log       *slog.Logger
	resolver  contract.SinkResolver
	envelopes <-chan event.Envelope
	timeout   time.Duration
}

func NewEventFanout(log *slog.Logger, resolver contract.SinkResolver,
	envelopes <-chan event.Envelope, timeout time.Duration) *EventFanout {
	return &EventFanout{log: log, resolver: resolver, envelopes: envelopes, timeout: timeout}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping fanout")
			return nil
		case env := <-w.envelopes:
			w.deliver(ctx, env)
		}
	}
}

func (w *EventFanout) deliver(ctx context.Context, env event.Envelope) {
	for _, sink := range w.resolver.SinksFor(env.Recipients) {
		deliveryCtx, cancel := context.WithTimeout(ctx, w.timeout)
		if err := sink.Consume(deliveryCtx, env.Payload); err != nil {
			w.log.Debug("Notification lost", "kind", env.Payload.Kind(), "error", err)
		}
		cancel()
	}
}
