// Package config loads the rig's deployment settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pion/logging"
	"gopkg.in/yaml.v3"

	"colrig/internal/instruction"
	"colrig/internal/program"
	"colrig/internal/robot"
)

// Config holds everything a deployment can change.
type Config struct {
	Grid   GridConfig        `yaml:"grid"`
	Layout program.Layout    `yaml:"layout"`
	Bands  instruction.Table `yaml:"bands"`

	// Settle is the pause after each dispatched instruction.
	Settle time.Duration `yaml:"settle"`
	// Poll is the pause between loop iterations while idle.
	Poll time.Duration `yaml:"poll"`

	Hardware HardwareConfig `yaml:"hardware"`
	HomeKit  HomeKitConfig  `yaml:"homekit"`
	Log      LogConfig      `yaml:"log"`
}

type GridConfig struct {
	Size     int  `yaml:"size"`
	Oriented bool `yaml:"oriented"`
}

func (g GridConfig) Grid() robot.Grid {
	return robot.Grid{Size: g.Size, Oriented: g.Oriented}
}

// HardwareConfig names the buses, pins and devices the daemon drives. Pin
// names are periph gpioreg names such as "GPIO17".
type HardwareConfig struct {
	// I2CBus is the i2creg bus name; empty picks the first bus.
	I2CBus     string           `yaml:"i2c_bus"`
	Columns    []ColumnConfig   `yaml:"columns"`
	Trigger    TriggerConfig    `yaml:"trigger"`
	Indicators IndicatorsConfig `yaml:"indicators"`
	Buzzer     string           `yaml:"buzzer"`
	Drive      DriveConfig      `yaml:"drive"`
	Link       LinkConfig       `yaml:"link"`
}

// ColumnConfig is one sensing board on the bus.
type ColumnConfig struct {
	Addr  uint16 `yaml:"addr"`
	Slots int    `yaml:"slots"`
}

type TriggerConfig struct {
	Pin        string        `yaml:"pin"`
	ActiveHigh bool          `yaml:"active_high"`
	Debounce   time.Duration `yaml:"debounce"`
}

type IndicatorsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    uint16 `yaml:"addr"`
}

type DriveConfig struct {
	// X and Y are the four coil pins of each stepper.
	X            []string      `yaml:"x"`
	Y            []string      `yaml:"y"`
	StepsPerCell int           `yaml:"steps_per_cell"`
	StepDelay    time.Duration `yaml:"step_delay"`
}

type LinkConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

type HomeKitConfig struct {
	Enabled bool   `yaml:"enabled"`
	Name    string `yaml:"name"`
}

// LogConfig sets pion log levels: disable, error, warn, info, debug, trace.
type LogConfig struct {
	Level  string            `yaml:"level"`
	Scopes map[string]string `yaml:"scopes,omitempty"`
}

// Default returns the configuration of the exhibit as built: three column
// boards of five slots, eleven main slots and a four slot control block.
func Default() *Config {
	return &Config{
		Grid:   GridConfig{Size: 5},
		Layout: program.Layout{Main: 11, Control: 4},
		Bands:  append(instruction.Table(nil), instruction.DefaultTable...),
		Settle: 1500 * time.Millisecond,
		Poll:   50 * time.Millisecond,
		Hardware: HardwareConfig{
			Columns: []ColumnConfig{
				{Addr: 0x08, Slots: 5},
				{Addr: 0x09, Slots: 5},
				{Addr: 0x0a, Slots: 5},
			},
			Trigger: TriggerConfig{
				Pin:        "GPIO17",
				ActiveHigh: true,
				Debounce:   30 * time.Millisecond,
			},
			Indicators: IndicatorsConfig{Enabled: true, Addr: 0x40},
			Buzzer:     "GPIO18",
			Drive: DriveConfig{
				X:            []string{"GPIO5", "GPIO6", "GPIO13", "GPIO19"},
				Y:            []string{"GPIO12", "GPIO16", "GPIO20", "GPIO21"},
				StepsPerCell: 512,
				StepDelay:    2 * time.Millisecond,
			},
			Link: LinkConfig{Port: "/dev/serial0", Baud: 9600},
		},
		HomeKit: HomeKitConfig{Name: "column rig"},
		Log:     LogConfig{Level: "info"},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}
	// a bands list in the file replaces the default table rather than
	// merging with it
	cfg.Bands = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("could not parse config: %w", err)
	}
	if len(cfg.Bands) == 0 {
		cfg.Bands = append(instruction.Table(nil), instruction.DefaultTable...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes c to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("could not encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("could not make config dir: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

var (
	ErrGrid    = errors.New("grid size must be positive")
	ErrColumns = errors.New("column slots do not match layout")
	ErrLevel   = errors.New("unknown log level")
)

// Validate checks c is self consistent.
func (c *Config) Validate() error {
	if c.Grid.Size < 1 {
		return fmt.Errorf("%w: %d", ErrGrid, c.Grid.Size)
	}
	if err := c.Layout.Validate(); err != nil {
		return err
	}
	if err := c.Bands.Validate(); err != nil {
		return fmt.Errorf("bands: %w", err)
	}
	if c.Settle < 0 || c.Poll < 0 {
		return fmt.Errorf("settle and poll must not be negative")
	}
	if len(c.Hardware.Columns) > 0 {
		n := 0
		for _, col := range c.Hardware.Columns {
			n += col.Slots
		}
		if n != c.Layout.Slots() {
			return fmt.Errorf("%w: columns provide %d, layout needs %d", ErrColumns, n, c.Layout.Slots())
		}
	}
	if d := c.Hardware.Drive; (len(d.X) != 0 && len(d.X) != 4) || (len(d.Y) != 0 && len(d.Y) != 4) {
		return fmt.Errorf("drive: steppers need exactly four pins")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	for scope, l := range c.Log.Scopes {
		if _, err := parseLevel(l); err != nil {
			return fmt.Errorf("log scope %s: %w", scope, err)
		}
	}
	return nil
}

func parseLevel(s string) (logging.LogLevel, error) {
	switch strings.ToLower(s) {
	case "disable", "disabled", "off":
		return logging.LogLevelDisabled, nil
	case "error":
		return logging.LogLevelError, nil
	case "warn", "warning":
		return logging.LogLevelWarn, nil
	case "", "info":
		return logging.LogLevelInfo, nil
	case "debug":
		return logging.LogLevelDebug, nil
	case "trace":
		return logging.LogLevelTrace, nil
	}
	return logging.LogLevelDisabled, fmt.Errorf("%w: %q", ErrLevel, s)
}

// LoggerFactory builds the pion logger factory for c. PION_LOG_* environment
// variables override the file: PION_LOG_<LEVEL>=all sets the default level,
// a list of scopes sets those scopes.
func (c *Config) LoggerFactory() *logging.DefaultLoggerFactory {
	f := logging.NewDefaultLoggerFactory()
	env := f.ScopeLevels
	if !envSetsDefault() {
		f.DefaultLogLevel, _ = parseLevel(c.Log.Level)
	}
	f.ScopeLevels = make(map[string]logging.LogLevel)
	for scope, l := range c.Log.Scopes {
		f.ScopeLevels[scope], _ = parseLevel(l)
	}
	for scope, l := range env {
		f.ScopeLevels[scope] = l
	}
	return f
}

// envSetsDefault reports whether a PION_LOG_<LEVEL> variable is "all".
func envSetsDefault() bool {
	for _, kv := range os.Environ() {
		k, v, _ := strings.Cut(kv, "=")
		if (strings.HasPrefix(k, "PION_LOG_") || strings.HasPrefix(k, "PIONS_LOG_")) && strings.EqualFold(v, "all") {
			return true
		}
	}
	return false
}
