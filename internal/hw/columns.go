// Package hw drives the rig's boards and pins through periph.
package hw

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/pion/logging"
	"periph.io/x/conn/v3/i2c"

	"colrig/internal/config"
	"colrig/internal/program"
)

const (
	// Column board registers.
	registerReadings = 0x01 // n little endian float32 readings, in ohms.
)

// column is one sensing board and the number of slots it measures.
type column struct {
	dev   *i2c.Dev
	slots int
}

// Columns polls every column board on the bus for its readings, in slot
// order.
type Columns struct {
	sync.Mutex
	cols []column
	log  logging.LeveledLogger
}

func NewColumns(b i2c.Bus, cfg []config.ColumnConfig, lf logging.LoggerFactory) *Columns {
	c := &Columns{log: lf.NewLogger("columns")}
	for _, cc := range cfg {
		c.cols = append(c.cols, column{
			dev:   &i2c.Dev{Addr: cc.Addr, Bus: b},
			slots: cc.Slots,
		})
	}
	return c
}

// Slots is the total number of readings returned by Poll.
func (c *Columns) Slots() int {
	n := 0
	for _, col := range c.cols {
		n += col.slots
	}
	return n
}

// Poll reads every column. A board that does not answer reports
// program.CommFailure for all of its slots.
func (c *Columns) Poll() []float64 {
	c.Lock()
	defer c.Unlock()
	out := make([]float64, 0, c.Slots())
	for _, col := range c.cols {
		buf := make([]byte, 4*col.slots)
		if err := col.dev.Tx([]byte{registerReadings}, buf); err != nil {
			c.log.Warnf("could not read column %#02x: %v", col.dev.Addr, err)
			for i := 0; i < col.slots; i++ {
				out = append(out, program.CommFailure)
			}
			continue
		}
		for i := 0; i < col.slots; i++ {
			bits := binary.LittleEndian.Uint32(buf[4*i:])
			out = append(out, float64(math.Float32frombits(bits)))
		}
	}
	c.log.Tracef("poll: %v", out)
	return out
}
