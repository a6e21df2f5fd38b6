package events

import (
	"errors"
	"fmt"

	"github.com/hypebeast/go-osc/osc"
)

var (
	// ErrUnknownAddress is returned for inbound messages no handler recognizes.
	ErrUnknownAddress = errors.New("unknown OSC address")
	// ErrMalformedCommand is returned when a recognized command carries the
	// wrong number or types of arguments.
	ErrMalformedCommand = errors.New("malformed OSC command")
)

// AddPOI asks for a new point of interest.
type AddPOI struct {
	// ID labels the point in trigger messages.
	ID string
	// X and Y are normalized to [0, 1].
	X, Y float32
	// Radius is in pixels.
	Radius int32
}

// DecodeCommand decodes an inbound message.
//
// The only recognized address is AddressTriggerAdd, whose payload must be
// exactly (string, float32, float32, int32).
//
// Returns:
//   - AddPOI: The decoded command.
//   - error: ErrUnknownAddress or ErrMalformedCommand (wrapped) on failure.
func DecodeCommand(msg *osc.Message) (AddPOI, error) {
	if msg == nil {
		return AddPOI{}, fmt.Errorf("%w: nil message", ErrMalformedCommand)
	}
	if msg.Address != AddressTriggerAdd {
		return AddPOI{}, fmt.Errorf("%w: %q", ErrUnknownAddress, msg.Address)
	}
	return DecodeAddPOI(msg)
}

// DecodeAddPOI decodes the payload of an add command without checking the
// address.
func DecodeAddPOI(msg *osc.Message) (AddPOI, error) {
	args := msg.Arguments
	if len(args) != 4 {
		return AddPOI{}, fmt.Errorf("%w: %s expects 4 arguments, got %d", ErrMalformedCommand, msg.Address, len(args))
	}

	id, ok := args[0].(string)
	if !ok {
		return AddPOI{}, argumentError(msg.Address, 0, "string", args[0])
	}
	x, ok := args[1].(float32)
	if !ok {
		return AddPOI{}, argumentError(msg.Address, 1, "float32", args[1])
	}
	y, ok := args[2].(float32)
	if !ok {
		return AddPOI{}, argumentError(msg.Address, 2, "float32", args[2])
	}
	radius, ok := args[3].(int32)
	if !ok {
		return AddPOI{}, argumentError(msg.Address, 3, "int32", args[3])
	}

	return AddPOI{ID: id, X: x, Y: y, Radius: radius}, nil
}

// Message encodes the command, for clients and tests.
func (c AddPOI) Message() *osc.Message {
	return osc.NewMessage(AddressTriggerAdd, c.ID, c.X, c.Y, c.Radius)
}

func argumentError(address string, index int, want string, got interface{}) error {
	return fmt.Errorf("%w: %s argument %d must be %s, got %T", ErrMalformedCommand, address, index, want, got)
}
