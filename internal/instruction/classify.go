package instruction

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrEmptyTable   = errors.New("band table is empty")
	ErrBandOrder    = errors.New("band minimum above maximum")
	ErrBandNegative = errors.New("band minimum must be positive")
	ErrBandTarget   = errors.New("band cannot map to none or error")
)

// Band is a closed interval of resistance, in ohms, that decodes to one
// instruction.
type Band struct {
	Min    float64     `yaml:"min"`
	Max    float64     `yaml:"max"`
	Action Instruction `yaml:"action"`
}

// Contains reports whether r lies in [b.Min, b.Max].
func (b Band) Contains(r float64) bool {
	return b.Min <= r && r <= b.Max
}

func (b Band) String() string {
	return fmt.Sprintf("[%g, %g] %v", b.Min, b.Max, b.Action)
}

// Table is an ordered list of bands. Earlier bands win when bands overlap.
type Table []Band

// DefaultTable is the calibration the column boards ship with.
var DefaultTable = Table{
	{190, 220, MoveUp},
	{850, 1100, MoveDown},
	{1500, 2500, MoveLeft},
	{3500, 4500, MoveRight},
	{5000, 6000, Melody1},
	{9000, 11000, ControlBlock},
	{19000, 21000, Negation},
}

// Classify decodes a reading with DefaultTable.
func Classify(r float64) Instruction {
	return DefaultTable.Classify(r)
}

// Classify decodes one reading. Non-positive readings, sentinels and NaN are
// Error; positive readings outside every band are None.
func (t Table) Classify(r float64) Instruction {
	if !(r > 0) {
		return Error
	}
	for _, b := range t {
		if b.Contains(r) {
			return b.Action
		}
	}
	return None
}

// Validate checks every band is usable.
func (t Table) Validate() error {
	if len(t) == 0 {
		return ErrEmptyTable
	}
	for i, b := range t {
		switch {
		case b.Min > b.Max:
			return fmt.Errorf("band %d %v: %w", i, b, ErrBandOrder)
		case !(b.Min > 0):
			return fmt.Errorf("band %d %v: %w", i, b, ErrBandNegative)
		case b.Action == None || b.Action == Error:
			return fmt.Errorf("band %d %v: %w", i, b, ErrBandTarget)
		case int(b.Action) >= len(names):
			return fmt.Errorf("band %d: unknown action %d", i, uint8(b.Action))
		}
	}
	return nil
}

// Overlaps returns the index pairs of bands that share at least one value.
func (t Table) Overlaps() [][2]int {
	var out [][2]int
	for i := range t {
		for j := i + 1; j < len(t); j++ {
			if math.Max(t[i].Min, t[j].Min) <= math.Min(t[i].Max, t[j].Max) {
				out = append(out, [2]int{i, j})
			}
		}
	}
	return out
}
