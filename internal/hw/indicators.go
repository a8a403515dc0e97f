package hw

import (
	"fmt"
	"sync"

	"github.com/pion/logging"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/devices/v3/pca9685"
)

const (
	indicatorSlots  = 16
	indicatorMaxPWM = 4095
)

// Indicators drives one LED per slot from a PCA9685.
type Indicators struct {
	sync.Mutex
	dev *pca9685.Dev
	log logging.LeveledLogger
}

// OpenIndicators wakes the driver at addr. Every LED starts off.
func OpenIndicators(b i2c.Bus, addr uint16, lf logging.LoggerFactory) (*Indicators, error) {
	dev, err := pca9685.NewI2C(b, addr)
	if err != nil {
		return nil, fmt.Errorf("could not init pca9685 at %#02x: %w", addr, err)
	}
	return &Indicators{dev: dev, log: lf.NewLogger("indicators")}, nil
}

// Set sets the brightness of slot's LED. Slots without an LED are ignored.
func (d *Indicators) Set(slot int, level uint8) {
	if slot < 0 || slot >= indicatorSlots {
		d.log.Debugf("no indicator for slot %d", slot)
		return
	}
	d.Lock()
	defer d.Unlock()
	var err error
	if level == 0 {
		err = d.dev.SetFullOff(slot)
	} else {
		err = d.dev.SetPwm(slot, 0, gpio.Duty(int(level)*indicatorMaxPWM/0xff))
	}
	if err != nil {
		d.log.Warnf("could not set indicator %d: %v", slot, err)
	}
}
