// Package event defines the outbound notifications a membership transition
// can produce. The Kind strings keep the historical wire vocabulary so old
// clients stay compatible.
package event

import (
	"time"

	"github.com/google/uuid"

	"presence-lab/domain"
)

type Kind string

const (
	KindNotice   Kind = "update"
	KindRoster   Kind = "update-people"
	KindRoomList Kind = "roomList"
	KindRoomID   Kind = "sendRoomID"
	KindChat     Kind = "chat"
)

// Notification is a single outbound payload produced by a transition.
type Notification interface {
	Kind() Kind
}

// Notice is a human-readable status line, personal or broadcast.
type Notice struct {
	Text string `json:"text"`
}

func (Notice) Kind() Kind { return KindNotice }

type PersonInfo struct {
	ID   domain.ConnID  `json:"id"`
	Name string         `json:"name"`
	Room *domain.RoomID `json:"room,omitempty"`
}

// RosterUpdate carries the full online-people listing.
type RosterUpdate struct {
	People []PersonInfo `json:"people"`
}

func (RosterUpdate) Kind() Kind { return KindRoster }

type RoomInfo struct {
	ID      domain.RoomID `json:"id"`
	Name    string        `json:"name"`
	OwnerID domain.ConnID `json:"ownerId"`
	Members int           `json:"members"`
	Status  string        `json:"status"`
}

// RoomListing carries the full room directory listing.
type RoomListing struct {
	Rooms []RoomInfo `json:"rooms"`
}

func (RoomListing) Kind() Kind { return KindRoomList }

// RoomAssigned confirms a join or create to the person who triggered it.
type RoomAssigned struct {
	ID domain.RoomID `json:"id"`
}

func (RoomAssigned) Kind() Kind { return KindRoomID }

// ChatMessage is a room-scoped message tagged with its sender identity.
type ChatMessage struct {
	ID         uuid.UUID     `json:"id"`
	Room       domain.RoomID `json:"room"`
	SenderID   domain.ConnID `json:"senderId"`
	SenderName string        `json:"senderName"`
	Content    string        `json:"content"`
	At         time.Time     `json:"at"`
}

func (ChatMessage) Kind() Kind { return KindChat }

// Envelope binds a notification to the connections that must receive it.
// Recipients are resolved when the transition emits, so later state changes
// cannot widen or shrink delivery.
type Envelope struct {
	Recipients []domain.ConnID
	Payload    Notification
}
