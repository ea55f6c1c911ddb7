package domain

import (
	"github.com/go-playground/validator/v10"

	"presence-lab/errors"
)

var validate = validator.New()

// Command is an inbound client intent, keyed by the connection it came from.
type Command interface {
	Conn() ConnID
	Validate() error
}

func structValidate(cmd any) error {
	if err := validate.Struct(cmd); err != nil {
		return errors.ErrInvalidCommand
	}
	return nil
}

type ConnectCommand struct {
	ID   ConnID `validate:"required"`
	Name string `validate:"required,min=1,max=32"`
}

func (c ConnectCommand) Conn() ConnID    { return c.ID }
func (c ConnectCommand) Validate() error { return structValidate(c) }

type CreateRoomCommand struct {
	ID   ConnID `validate:"required"`
	Name string `validate:"required,min=1,max=64"`
}

func (c CreateRoomCommand) Conn() ConnID    { return c.ID }
func (c CreateRoomCommand) Validate() error { return structValidate(c) }

type JoinRoomCommand struct {
	ID   ConnID `validate:"required"`
	Room RoomID `validate:"required"`
}

func (c JoinRoomCommand) Conn() ConnID    { return c.ID }
func (c JoinRoomCommand) Validate() error { return structValidate(c) }

type SendCommand struct {
	ID      ConnID `validate:"required"`
	Content string `validate:"required,max=2000"`
}

func (c SendCommand) Conn() ConnID    { return c.ID }
func (c SendCommand) Validate() error { return structValidate(c) }

type LeaveRoomCommand struct {
	ID   ConnID `validate:"required"`
	Room RoomID `validate:"required"`
}

func (c LeaveRoomCommand) Conn() ConnID    { return c.ID }
func (c LeaveRoomCommand) Validate() error { return structValidate(c) }

type RemoveRoomCommand struct {
	ID   ConnID `validate:"required"`
	Room RoomID `validate:"required"`
}

func (c RemoveRoomCommand) Conn() ConnID    { return c.ID }
func (c RemoveRoomCommand) Validate() error { return structValidate(c) }

type DisconnectCommand struct {
	ID ConnID `validate:"required"`
}

func (c DisconnectCommand) Conn() ConnID    { return c.ID }
func (c DisconnectCommand) Validate() error { return structValidate(c) }
