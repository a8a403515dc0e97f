package hw

import (
	"colrig/internal/instruction"
	"colrig/internal/robot"
)

// Facade is the rig's sequencer.Actuator. Any of its parts may be nil when
// the deployment lacks that hardware.
type Facade struct {
	Drive      *Drive
	Buzzer     *Buzzer
	Indicators *Indicators
	Link       *Link
}

func (f *Facade) Perform(in instruction.Instruction, tr robot.Transition) {
	switch in {
	case instruction.MoveUp, instruction.MoveDown, instruction.MoveLeft, instruction.MoveRight:
		if f.Drive != nil {
			f.Drive.Move(in, tr)
		}
	case instruction.Melody1, instruction.Melody2:
		if f.Buzzer != nil {
			f.Buzzer.Play(Tunes[in])
		}
	}
}

func (f *Facade) SetIndicator(slot int, level uint8) {
	if f.Indicators != nil {
		f.Indicators.Set(slot, level)
	}
}

func (f *Facade) Notify(code byte) {
	if f.Link != nil {
		f.Link.Send(code)
	}
}

// ClearIndicators turns every slot's indicator off.
func (f *Facade) ClearIndicators(slots int) {
	for i := 0; i < slots; i++ {
		f.SetIndicator(i, 0)
	}
}
