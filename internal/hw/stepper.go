package hw

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

const stepperPins = 4

// coilSeq is the half step sequence for a unipolar stepper, pin 0 in bit 0.
var coilSeq = [8]byte{
	0b0001,
	0b0011,
	0b0010,
	0b0110,
	0b0100,
	0b1100,
	0b1000,
	0b1001,
}

// Stepper is a unipolar stepper on four GPIO pins.
type Stepper struct {
	// pins are the coil pins in sequence order.
	pins [stepperPins]gpio.PinOut
	// pos is the current index into coilSeq.
	pos int
	// delay is the pause between half steps.
	delay time.Duration

	sleep func(time.Duration)
}

func NewStepper(pins [stepperPins]gpio.PinOut, delay time.Duration) (*Stepper, error) {
	for _, p := range pins {
		if err := p.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("could not configure stepper pin %v: %w", p, err)
		}
	}
	return &Stepper{pins: pins, delay: delay, sleep: time.Sleep}, nil
}

// OpenStepper looks up the named pins in the gpio registry.
func OpenStepper(names []string, delay time.Duration) (*Stepper, error) {
	if len(names) != stepperPins {
		return nil, fmt.Errorf("stepper needs %d pins, got %d", stepperPins, len(names))
	}
	var pins [stepperPins]gpio.PinOut
	for i, n := range names {
		p := gpioreg.ByName(n)
		if p == nil {
			return nil, fmt.Errorf("no such pin: %s", n)
		}
		pins[i] = p
	}
	return NewStepper(pins, delay)
}

// Step moves n half steps; negative n turns the other way.
func (s *Stepper) Step(n int) {
	dir := 1
	if n < 0 {
		dir, n = -1, -n
	}
	for i := 0; i < n; i++ {
		s.pos = (s.pos + dir + len(coilSeq)) % len(coilSeq)
		s.setPins()
		s.sleep(s.delay)
	}
}

func (s *Stepper) setPins() {
	v := coilSeq[s.pos]
	for i := 0; i < stepperPins; i++ {
		// a failed write only loses this half step
		_ = s.pins[i].Out(gpio.Level(v&1 == 1))
		v >>= 1
	}
}

// Release de-energises the coils.
func (s *Stepper) Release() {
	for _, p := range s.pins {
		_ = p.Out(gpio.Low)
	}
}
