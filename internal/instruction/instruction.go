// Package instruction defines the rig's instruction vocabulary and the
// classifier that maps slot readings onto it.
package instruction

import (
	"fmt"
	"strings"
)

// Instruction is one symbolic action decoded from a slot reading.
type Instruction uint8

const (
	None Instruction = iota
	Error
	MoveUp
	MoveDown
	MoveLeft
	MoveRight
	ControlBlock
	Negation
	Melody1
	Melody2
)

var names = [...]string{
	None:         "none",
	Error:        "error",
	MoveUp:       "move_up",
	MoveDown:     "move_down",
	MoveLeft:     "move_left",
	MoveRight:    "move_right",
	ControlBlock: "control_block",
	Negation:     "negation",
	Melody1:      "melody1",
	Melody2:      "melody2",
}

// codes are the bytes sent on the secondary link.
var codes = [...]byte{
	None:         '-',
	Error:        'E',
	MoveUp:       'U',
	MoveDown:     'D',
	MoveLeft:     'L',
	MoveRight:    'R',
	ControlBlock: 'C',
	Negation:     'N',
	Melody1:      'M',
	Melody2:      'W',
}

func (in Instruction) String() string {
	if int(in) < len(names) {
		return names[in]
	}
	return fmt.Sprintf("instruction(%d)", uint8(in))
}

// Code is the one byte identifier of in on the secondary link.
func (in Instruction) Code() byte {
	if int(in) < len(codes) {
		return codes[in]
	}
	return codes[Error]
}

// Parse returns the instruction named s, as printed by String.
func Parse(s string) (Instruction, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if n == s {
			return Instruction(i), nil
		}
	}
	return None, fmt.Errorf("unknown instruction %q", s)
}

// IsMove reports whether in moves or turns the robot.
func (in Instruction) IsMove() bool {
	switch in {
	case MoveUp, MoveDown, MoveLeft, MoveRight:
		return true
	}
	return false
}

// Invertible reports whether a pending negation can apply to in. Only
// movement has an opposite.
func (in Instruction) Invertible() bool {
	return in.IsMove()
}

// Invert returns the opposite movement. Everything else maps to itself.
func (in Instruction) Invert() Instruction {
	switch in {
	case MoveUp:
		return MoveDown
	case MoveDown:
		return MoveUp
	case MoveLeft:
		return MoveRight
	case MoveRight:
		return MoveLeft
	default:
		return in
	}
}

// MarshalText implements encoding.TextMarshaler.
func (in Instruction) MarshalText() ([]byte, error) {
	return []byte(in.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (in *Instruction) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*in = v
	return nil
}
