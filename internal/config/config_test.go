package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pion/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"colrig/internal/instruction"
)

func TestDefaultValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 15, cfg.Layout.Slots())
	assert.Equal(t, instruction.DefaultTable, cfg.Bands)

	// the default table is copied, not shared
	cfg.Bands[0].Max = 1
	assert.Equal(t, 220.0, instruction.DefaultTable[0].Max)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rig.yaml")
	data := `
grid:
  size: 4
  oriented: true
layout:
  main: 10
  control: 5
settle: 800ms
bands:
  - {min: 190, max: 220, action: move_up}
  - {min: 3500, max: 4800, action: move_right}
  - {min: 4500, max: 6000, action: melody2}
hardware:
  columns:
    - {addr: 0x10, slots: 8}
    - {addr: 0x11, slots: 7}
log:
  level: debug
  scopes:
    columns: trace
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Grid.Size)
	assert.True(t, cfg.Grid.Grid().Oriented)
	assert.Equal(t, 10, cfg.Layout.Main)
	assert.Equal(t, 800*time.Millisecond, cfg.Settle)
	// unset keys keep their defaults
	assert.Equal(t, 50*time.Millisecond, cfg.Poll)
	assert.Equal(t, "GPIO17", cfg.Hardware.Trigger.Pin)

	require.Len(t, cfg.Bands, 3)
	assert.Equal(t, instruction.Melody2, cfg.Bands[2].Action)
	assert.Equal(t, instruction.MoveRight, cfg.Bands.Classify(4600))
	assert.Equal(t, [][2]int{{1, 2}}, cfg.Bands.Overlaps())

	require.Len(t, cfg.Hardware.Columns, 2)
	assert.Equal(t, uint16(0x10), cfg.Hardware.Columns[0].Addr)

	f := cfg.LoggerFactory()
	assert.Equal(t, logging.LogLevelDebug, f.DefaultLogLevel)
	assert.Equal(t, logging.LogLevelTrace, f.ScopeLevels["columns"])
}

func TestLoggerFactoryEnv(t *testing.T) {
	cfg := Default()
	cfg.Log.Scopes = map[string]string{"columns": "trace", "rig": "warn"}

	t.Setenv("PION_LOG_DEBUG", "all")
	t.Setenv("PION_LOG_ERROR", "rig")
	f := cfg.LoggerFactory()
	assert.Equal(t, logging.LogLevelDebug, f.DefaultLogLevel)
	assert.Equal(t, logging.LogLevelTrace, f.ScopeLevels["columns"])
	assert.Equal(t, logging.LogLevelError, f.ScopeLevels["rig"])

	// without "all" the file sets the default
	t.Setenv("PION_LOG_DEBUG", "")
	assert.Equal(t, logging.LogLevelInfo, cfg.LoggerFactory().DefaultLogLevel)
}

func TestLoadDefaultBands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rig.yaml")
	require.NoError(t, os.WriteFile(path, []byte("grid: {size: 3}\n"), 0644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, instruction.DefaultTable, cfg.Bands)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etc", "rig.yaml")
	cfg := Default()
	cfg.Grid.Size = 7
	cfg.Hardware.Link.Port = "/dev/rfcomm0"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	tests := []struct {
		name string
		data string
		want error
	}{
		{"grid", "grid: {size: 0}\n", ErrGrid},
		{"columns", "hardware:\n  columns: [{addr: 8, slots: 3}]\n", ErrColumns},
		{"level", "log: {level: loud}\n", ErrLevel},
		{"band", "bands: [{min: 10, max: 5, action: move_up}]\n", instruction.ErrBandOrder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.data), 0644))
			_, err := Load(path)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	path := filepath.Join(dir, "action.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bands: [{min: 1, max: 5, action: jump}]\n"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}
