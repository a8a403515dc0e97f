// Package replay reads and writes recorded cycles of column readings, so
// programs can be run without the columns attached.
package replay

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var ErrNoCycles = errors.New("no cycles")

// Cycle is one poll of every slot, in slot order.
type Cycle struct {
	Name     string    `yaml:"name,omitempty"`
	Readings []float64 `yaml:"readings,flow"`
}

// File is the on-disk form of a recording.
type File struct {
	Cycles []Cycle `yaml:"cycles"`
}

func Parse(data []byte) (*File, error) {
	f := &File{}
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("could not parse cycles: %w", err)
	}
	if len(f.Cycles) == 0 {
		return nil, ErrNoCycles
	}
	return f, nil
}

func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read cycles: %w", err)
	}
	return Parse(data)
}

// Append adds a copy of readings as a new cycle.
func (f *File) Append(name string, readings []float64) {
	f.Cycles = append(f.Cycles, Cycle{
		Name:     name,
		Readings: append([]float64(nil), readings...),
	})
}

// Save writes f to path, replacing any previous recording there.
func (f *File) Save(path string) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Source plays the cycles back one poll at a time, starting over after the
// last one. A Source with no cycles polls nothing.
type Source struct {
	cycles []Cycle
	next   int
}

func (f *File) Source() *Source {
	return &Source{cycles: f.Cycles}
}

func (s *Source) Poll() []float64 {
	if len(s.cycles) == 0 {
		return nil
	}
	c := s.cycles[s.next]
	s.next = (s.next + 1) % len(s.cycles)
	return append([]float64(nil), c.Readings...)
}
