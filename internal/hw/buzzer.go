package hw

import (
	"time"

	"github.com/pion/logging"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	"colrig/internal/instruction"
)

// Note is one tone of a tune. A zero frequency is a rest.
type Note struct {
	Freq physic.Frequency
	Dur  time.Duration
}

const (
	noteC5 = 523 * physic.Hertz
	noteD5 = 587 * physic.Hertz
	noteE5 = 659 * physic.Hertz
	noteG5 = 784 * physic.Hertz
	noteA5 = 880 * physic.Hertz
	noteC6 = 1047 * physic.Hertz
)

// Tunes played for the melody instructions.
var Tunes = map[instruction.Instruction][]Note{
	instruction.Melody1: {
		{noteC5, 150 * time.Millisecond},
		{noteE5, 150 * time.Millisecond},
		{noteG5, 150 * time.Millisecond},
		{noteC6, 300 * time.Millisecond},
	},
	instruction.Melody2: {
		{noteA5, 200 * time.Millisecond},
		{0, 50 * time.Millisecond},
		{noteA5, 200 * time.Millisecond},
		{noteD5, 400 * time.Millisecond},
	},
}

// Buzzer plays tunes on a piezo driven by a PWM capable pin.
type Buzzer struct {
	pin gpio.PinOut
	log logging.LeveledLogger

	sleep func(time.Duration)
}

func NewBuzzer(pin gpio.PinOut, lf logging.LoggerFactory) *Buzzer {
	return &Buzzer{pin: pin, log: lf.NewLogger("buzzer"), sleep: time.Sleep}
}

// Play blocks until the tune has finished.
func (b *Buzzer) Play(tune []Note) {
	for _, n := range tune {
		if n.Freq == 0 {
			b.silence()
		} else if err := b.pin.PWM(gpio.DutyHalf, n.Freq); err != nil {
			b.log.Warnf("could not play %v: %v", n.Freq, err)
			b.silence()
			return
		}
		b.sleep(n.Dur)
	}
	b.silence()
}

func (b *Buzzer) silence() {
	if err := b.pin.Out(gpio.Low); err != nil {
		b.log.Warnf("could not silence buzzer: %v", err)
	}
}
