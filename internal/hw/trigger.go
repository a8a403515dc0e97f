package hw

import (
	"fmt"
	"time"

	"github.com/pion/logging"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// Trigger is the start button. It fires once each time the input goes to its
// active level and stays there for the debounce interval.
type Trigger struct {
	pin      gpio.PinIn
	active   gpio.Level
	debounce time.Duration
	// armed is set once the input has been seen inactive.
	armed bool
	log   logging.LeveledLogger

	sleep func(time.Duration)
}

func NewTrigger(pin gpio.PinIn, activeHigh bool, debounce time.Duration, lf logging.LoggerFactory) (*Trigger, error) {
	pull := gpio.PullDown
	if !activeHigh {
		pull = gpio.PullUp
	}
	if err := pin.In(pull, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("could not configure trigger pin %v: %w", pin, err)
	}
	t := &Trigger{
		pin:      pin,
		active:   gpio.Level(activeHigh),
		debounce: debounce,
		log:      lf.NewLogger("trigger"),
		sleep:    time.Sleep,
	}
	t.Reset()
	return t, nil
}

// OpenTrigger looks up the named pin in the gpio registry.
func OpenTrigger(name string, activeHigh bool, debounce time.Duration, lf logging.LoggerFactory) (*Trigger, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("no such pin: %s", name)
	}
	return NewTrigger(p, activeHigh, debounce, lf)
}

// Fired reports whether the input has become active since the last call.
func (t *Trigger) Fired() bool {
	if t.pin.Read() != t.active {
		t.armed = true
		return false
	}
	if !t.armed {
		return false
	}
	t.sleep(t.debounce)
	if t.pin.Read() != t.active {
		t.log.Debugf("bounce on %v", t.pin)
		return false
	}
	t.armed = false
	t.log.Infof("start pressed")
	return true
}

// Reset discards presses made while a run was in progress. A button still
// held must be released before it fires again.
func (t *Trigger) Reset() {
	t.armed = t.pin.Read() != t.active
}
