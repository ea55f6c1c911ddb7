package ws

import "presence-lab/domain/event"

// Inbound frame types, matching the historical client vocabulary.
const (
	TypeJoin       = "join"
	TypeCreateRoom = "createRoom"
	TypeJoinRoom   = "joinRoom"
	TypeSend       = "send"
	TypeLeaveRoom  = "leaveRoom"
	TypeRemoveRoom = "removeRoom"
)

// Frame is the outbound wire envelope: {"type": "...", "payload": {...}}.
type Frame struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

func EncodeFrame(n event.Notification) Frame {
	return Frame{Type: string(n.Kind()), Payload: n}
}

// ClientFrame is the inbound wire envelope. Fields are populated depending
// on Type; unused ones stay empty.
type ClientFrame struct {
	Type    string `json:"type"`
	Name    string `json:"name,omitempty"`
	Room    string `json:"room,omitempty"`
	Content string `json:"content,omitempty"`
}
