package ws

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"presence-lab/domain/event"
)

func TestSink_Consume(t *testing.T) {
	req := require.New(t)
	sink := NewSink(2)

	req.NoError(sink.Consume(context.Background(), event.Notice{Text: "one"}))
	req.NoError(sink.Consume(context.Background(), event.Notice{Text: "two"}))

	req.Equal(event.Notice{Text: "one"}, <-sink.Events())
	req.Equal(event.Notice{Text: "two"}, <-sink.Events())
}

func TestSink_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	req := require.New(t)
	sink := NewSink(1)

	req.NoError(sink.Consume(context.Background(), event.Notice{Text: "kept"}))
	// When the buffer is full, Consume must not block the fanout worker
	req.NoError(sink.Consume(context.Background(), event.Notice{Text: "dropped"}))

	req.Equal(event.Notice{Text: "kept"}, <-sink.Events())
	select {
	case n := <-sink.Events():
		req.Failf("unexpected notification", "%+v", n)
	default:
	}
}
