package hw

import (
	"github.com/pion/logging"

	"colrig/internal/instruction"
	"colrig/internal/robot"
)

// Drive moves the robot one cell per instruction with two steppers. On a
// cartesian grid a and b are the X and Y axes; on an oriented grid they are
// the left and right wheels.
type Drive struct {
	a, b         *Stepper
	stepsPerCell int
	oriented     bool
	log          logging.LeveledLogger
}

func NewDrive(a, b *Stepper, stepsPerCell int, oriented bool, lf logging.LoggerFactory) *Drive {
	return &Drive{
		a:            a,
		b:            b,
		stepsPerCell: stepsPerCell,
		oriented:     oriented,
		log:          lf.NewLogger("drive"),
	}
}

// Move performs the motion for a dispatched transition. Rejected moves do
// not turn the motors.
func (d *Drive) Move(in instruction.Instruction, tr robot.Transition) {
	if !in.IsMove() || !tr.Moved() {
		return
	}
	na, nb := d.steps(in)
	d.log.Debugf("%v: %d/%d steps", in, na, nb)
	// half steps are interleaved so both axes finish together
	for na != 0 || nb != 0 {
		if na != 0 {
			d.a.Step(sign(na))
			na -= sign(na)
		}
		if nb != 0 {
			d.b.Step(sign(nb))
			nb -= sign(nb)
		}
	}
	d.a.Release()
	d.b.Release()
}

func (d *Drive) steps(in instruction.Instruction) (a, b int) {
	n := d.stepsPerCell
	if d.oriented {
		switch in {
		case instruction.MoveUp:
			return n, n
		case instruction.MoveDown:
			return -n, -n
		case instruction.MoveLeft:
			return -n / 2, n / 2
		case instruction.MoveRight:
			return n / 2, -n / 2
		}
		return 0, 0
	}
	switch in {
	case instruction.MoveUp:
		return 0, n
	case instruction.MoveDown:
		return 0, -n
	case instruction.MoveLeft:
		return -n, 0
	case instruction.MoveRight:
		return n, 0
	}
	return 0, 0
}

func sign(n int) int {
	if n < 0 {
		return -1
	}
	return 1
}
