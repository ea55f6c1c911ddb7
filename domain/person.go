// Package domain contains core concepts of the presence system.
// This file defines Person entities and the room references they may hold.
// No runtime, network, or UI logic should be added here.
package domain

// ConnID identifies one live connection. It is assigned by the transport
// layer when the socket is accepted and stays stable until disconnect.
type ConnID string

// Person is the ephemeral identity behind one live connection.
//
// Both room references are explicit optionals and always initialized:
// OwnedRoom points at the room this person created (at most one),
// CurrentRoom at the room this person is currently attached to.
// nil means "none", never "unset".
type Person struct {
	ID          ConnID
	Name        string
	CurrentRoom *RoomID
	OwnedRoom   *RoomID
}

func NewPerson(id ConnID, name string) *Person {
	return &Person{ID: id, Name: name}
}
