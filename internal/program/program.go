// Package program partitions one polling cycle of slot readings into the main
// program and the control block.
package program

import (
	"errors"
	"fmt"
)

// Sentinel readings reported by the column boards in place of a resistance.
const (
	NotDetected = -1.0
	Short       = -2.0
	OpenCircuit = -3.0
	CommFailure = -4.0
)

// SentinelName describes r if it is one of the documented sentinels.
func SentinelName(r float64) (string, bool) {
	switch r {
	case NotDetected:
		return "not detected", true
	case Short:
		return "short", true
	case OpenCircuit:
		return "open circuit", true
	case CommFailure:
		return "communication failure", true
	}
	return "", false
}

var ErrLayout = errors.New("invalid program layout")

// Layout is how many physical slots belong to each program. The main program
// occupies the first Main slots and the control block the Control slots after
// it.
type Layout struct {
	Main    int `yaml:"main"`
	Control int `yaml:"control"`
}

// Slots is the number of readings a cycle is expected to deliver.
func (l Layout) Slots() int {
	return l.Main + l.Control
}

func (l Layout) Validate() error {
	if l.Main < 1 || l.Control < 0 {
		return fmt.Errorf("%w: main %d, control %d", ErrLayout, l.Main, l.Control)
	}
	return nil
}

// Store is one cycle's readings split by program.
type Store struct {
	Main    []float64
	Control []float64
}

// Partition copies readings into a Store. Missing slots read CommFailure and
// readings past l.Slots() are dropped.
func (l Layout) Partition(readings []float64) Store {
	buf := make([]float64, l.Slots())
	n := copy(buf, readings)
	for i := n; i < len(buf); i++ {
		buf[i] = CommFailure
	}
	return Store{
		Main:    buf[:l.Main:l.Main],
		Control: buf[l.Main:],
	}
}

// ControlOffset is the global index of the first control block slot.
func (s Store) ControlOffset() int {
	return len(s.Main)
}
