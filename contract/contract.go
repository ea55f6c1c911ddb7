//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"presence-lab/domain"
	"presence-lab/domain/event"
)

// Gateway is the transport-facing collaborator. The coordinator describes
// who must hear what; the gateway maps that onto actual delivery. Calls are
// fire-and-forget: delivery is attempted at most once and never acknowledged.
type Gateway interface {
	SendTo(conn domain.ConnID, n event.Notification)
	BroadcastAll(n event.Notification)
	BroadcastRoom(room domain.RoomID, n event.Notification)
}

// EventSink is one connected client's delivery channel.
type EventSink interface {
	Consume(ctx context.Context, n event.Notification) error
}

// SinkResolver maps connection ids onto the sinks that are still alive.
type SinkResolver interface {
	SinksFor(ids []domain.ConnID) []EventSink
}

// ICoordinator is the membership state machine consumed by the transport
// layer. Every method is one atomic transition.
type ICoordinator interface {
	Connect(ctx context.Context, cmd domain.ConnectCommand, sink EventSink) error
	CreateRoom(ctx context.Context, cmd domain.CreateRoomCommand) error
	JoinRoom(ctx context.Context, cmd domain.JoinRoomCommand) error
	Send(ctx context.Context, cmd domain.SendCommand) error
	LeaveRoom(ctx context.Context, cmd domain.LeaveRoomCommand) error
	RemoveRoom(ctx context.Context, cmd domain.RemoveRoomCommand) error
	Disconnect(ctx context.Context, cmd domain.DisconnectCommand) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself.
// Can be silly, focused.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used for logging and supervision, avoiding manual naming in the
// Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
