// Package robot models the rig's position on a bounded square grid.
package robot

import (
	"fmt"

	"colrig/internal/instruction"
)

// Orientation is the direction the robot faces on an oriented grid.
type Orientation uint8

const (
	North Orientation = iota
	East
	South
	West
)

func (o Orientation) String() string {
	switch o {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	}
	return fmt.Sprintf("orientation(%d)", uint8(o))
}

// delta is the unit step taken when moving forward while facing o.
func (o Orientation) delta() (dx, dy int) {
	switch o {
	case North:
		return 0, 1
	case East:
		return 1, 0
	case South:
		return 0, -1
	case West:
		return -1, 0
	}
	return 0, 0
}

func (o Orientation) turn(quarters int) Orientation {
	return Orientation((int(o) + quarters + 4) % 4)
}

// State is the robot's cell and facing.
type State struct {
	X, Y   int
	Facing Orientation
}

func (s State) String() string {
	return fmt.Sprintf("(%d,%d) %v", s.X, s.Y, s.Facing)
}

// Transition is the state before and after one dispatched instruction.
type Transition struct {
	From, To State
}

// Moved reports whether the transition changed position or facing. A move
// rejected at the grid edge does not.
func (t Transition) Moved() bool {
	return t.From != t.To
}

// Grid is a Size×Size board. On an oriented grid up and down travel along the
// current facing and left and right turn in place.
type Grid struct {
	Size     int
	Oriented bool
}

// Origin is the state the robot starts in.
func (g Grid) Origin() State {
	return State{X: 0, Y: 0, Facing: North}
}

// Contains reports whether (x, y) is a cell of g.
func (g Grid) Contains(x, y int) bool {
	return 0 <= x && x < g.Size && 0 <= y && y < g.Size
}

// Apply returns the state after in. Moves that would leave the grid are
// rejected and return s unchanged. Instructions other than movement never
// change state.
func (g Grid) Apply(in instruction.Instruction, s State) State {
	if !in.IsMove() {
		return s
	}
	var dx, dy int
	if g.Oriented {
		switch in {
		case instruction.MoveLeft:
			s.Facing = s.Facing.turn(-1)
			return s
		case instruction.MoveRight:
			s.Facing = s.Facing.turn(1)
			return s
		}
		dx, dy = s.Facing.delta()
		if in == instruction.MoveDown {
			dx, dy = -dx, -dy
		}
	} else {
		switch in {
		case instruction.MoveUp:
			dy = 1
		case instruction.MoveDown:
			dy = -1
		case instruction.MoveLeft:
			dx = -1
		case instruction.MoveRight:
			dx = 1
		}
	}
	x, y := s.X+dx, s.Y+dy
	if !g.Contains(x, y) {
		return s
	}
	s.X, s.Y = x, y
	return s
}
