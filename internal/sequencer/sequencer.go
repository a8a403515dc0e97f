// Package sequencer runs one cycle's main program and control block against
// the robot state and an actuator.
package sequencer

import (
	"time"

	"github.com/pion/logging"

	"colrig/internal/instruction"
	"colrig/internal/program"
	"colrig/internal/robot"
)

// Indicator levels written to a slot's indicator around its dispatch.
const (
	LevelActive uint8 = 0xff
	LevelDone   uint8 = 0x20
)

// Actuator performs dispatched instructions. Calls are best effort and may
// block.
type Actuator interface {
	// Perform carries out in. tr has already been applied to the robot state.
	Perform(in instruction.Instruction, tr robot.Transition)
	// SetIndicator sets the intensity of the indicator for a global slot.
	SetIndicator(slot int, level uint8)
	// Notify sends an instruction code on the secondary link.
	Notify(code byte)
}

// Dispatch records one instruction handed to the actuator.
type Dispatch struct {
	Slot        int
	Instruction instruction.Instruction
	Transition  robot.Transition
}

// Report summarises one run.
type Report struct {
	Dispatched []Dispatch
	// Skipped counts slots with a non-positive reading.
	Skipped int
	// Omitted counts slots dropped by a negation or the nested control block
	// guard.
	Omitted int
	// Silent counts slots whose reading matches no band.
	Silent int
	// Discarded counts negations still pending when their block ended.
	Discarded int
	// ControlRuns counts entries into the control block.
	ControlRuns int
}

type Config struct {
	Table  instruction.Table
	Grid   robot.Grid
	Settle time.Duration
}

// Sequencer interprets programs. It owns the robot state, which survives
// between runs. A Sequencer is not safe for concurrent use; the caller must
// not start a run while another is in progress.
type Sequencer struct {
	table  instruction.Table
	grid   robot.Grid
	settle time.Duration
	act    Actuator
	log    logging.LeveledLogger

	state robot.State

	// sleep is swapped out by tests.
	sleep func(time.Duration)
}

func New(cfg Config, act Actuator, lf logging.LoggerFactory) *Sequencer {
	table := cfg.Table
	if len(table) == 0 {
		table = instruction.DefaultTable
	}
	return &Sequencer{
		table:  table,
		grid:   cfg.Grid,
		settle: cfg.Settle,
		act:    act,
		log:    lf.NewLogger("sequencer"),
		state:  cfg.Grid.Origin(),
		sleep:  time.Sleep,
	}
}

// State returns the current robot state.
func (s *Sequencer) State() robot.State {
	return s.state
}

// Run executes p's main program, entering the control block wherever the main
// program decodes a control block instruction. Every slot is visited; bad
// readings produce no action.
func (s *Sequencer) Run(p program.Store) Report {
	var rep Report
	s.log.Debugf("run: main %v control %v from %v", p.Main, p.Control, s.state)
	s.block(p.Main, 0, &p, &rep)
	s.log.Infof("run done at %v: %d dispatched, %d skipped, %d omitted",
		s.state, len(rep.Dispatched), rep.Skipped, rep.Omitted)
	return rep
}

// block runs readings whose first slot has global index offset. Control block
// instructions enter p.Control when ctl is non-nil and are omitted otherwise.
func (s *Sequencer) block(readings []float64, offset int, ctl *program.Store, rep *Report) {
	negate := false
	for i, r := range readings {
		slot := offset + i
		if !(r > 0) {
			if name, ok := program.SentinelName(r); ok {
				s.log.Debugf("slot %d: skipped, %s", slot, name)
			} else {
				s.log.Debugf("slot %d: skipped, reading %v", slot, r)
			}
			rep.Skipped++
			continue
		}

		action := s.table.Classify(r)
		if negate {
			negate = false
			if !action.Invertible() {
				s.log.Debugf("slot %d: %v omitted by negation", slot, action)
				rep.Omitted++
				continue
			}
			s.dispatch(action.Invert(), slot, rep)
			continue
		}

		switch action {
		case instruction.Negation:
			negate = true
		case instruction.ControlBlock:
			if ctl == nil {
				s.log.Debugf("slot %d: nested control block omitted", slot)
				rep.Omitted++
				continue
			}
			rep.ControlRuns++
			s.block(ctl.Control, ctl.ControlOffset(), nil, rep)
		case instruction.None:
			// Error is unreachable: non-positive readings were skipped above
			s.log.Debugf("slot %d: reading %v matches no band", slot, r)
			rep.Silent++
		case instruction.MoveUp, instruction.MoveDown, instruction.MoveLeft, instruction.MoveRight,
			instruction.Melody1, instruction.Melody2:
			s.dispatch(action, slot, rep)
		}
	}
	if negate {
		s.log.Debugf("negation pending at end of block %d discarded", offset)
		rep.Discarded++
	}
}

// dispatch applies in to the robot state before the actuator moves, so the
// actuator and anything it reports observe the new state.
func (s *Sequencer) dispatch(in instruction.Instruction, slot int, rep *Report) {
	tr := robot.Transition{From: s.state, To: s.grid.Apply(in, s.state)}
	s.state = tr.To
	if in.IsMove() && !tr.Moved() {
		s.log.Infof("slot %d: %v rejected at %v", slot, in, tr.From)
	} else {
		s.log.Infof("slot %d: %v -> %v", slot, in, tr.To)
	}
	rep.Dispatched = append(rep.Dispatched, Dispatch{Slot: slot, Instruction: in, Transition: tr})

	s.act.SetIndicator(slot, LevelActive)
	s.act.Perform(in, tr)
	s.act.Notify(in.Code())
	s.sleep(s.settle)
	s.act.SetIndicator(slot, LevelDone)
}
