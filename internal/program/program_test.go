package program

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartition(t *testing.T) {
	l := Layout{Main: 3, Control: 2}
	in := []float64{1, 2, 3, 4, 5}
	s := l.Partition(in)
	assert.Equal(t, []float64{1, 2, 3}, s.Main)
	assert.Equal(t, []float64{4, 5}, s.Control)
	assert.Equal(t, 3, s.ControlOffset())

	// the store does not alias the caller's buffer
	in[0] = 99
	assert.Equal(t, 1.0, s.Main[0])

	// appending to main never spills into control
	_ = append(s.Main, 42)
	assert.Equal(t, 4.0, s.Control[0])
}

func TestPartitionShortCycle(t *testing.T) {
	l := Layout{Main: 2, Control: 2}
	s := l.Partition([]float64{215})
	assert.Equal(t, []float64{215, CommFailure}, s.Main)
	assert.Equal(t, []float64{CommFailure, CommFailure}, s.Control)
}

func TestPartitionLongCycle(t *testing.T) {
	l := Layout{Main: 1, Control: 1}
	s := l.Partition([]float64{1, 2, 3, 4})
	assert.Equal(t, []float64{1}, s.Main)
	assert.Equal(t, []float64{2}, s.Control)
}

func TestLayoutValidate(t *testing.T) {
	assert.NoError(t, Layout{Main: 11, Control: 4}.Validate())
	assert.NoError(t, Layout{Main: 1}.Validate())
	assert.True(t, errors.Is(Layout{Main: 0, Control: 4}.Validate(), ErrLayout))
	assert.True(t, errors.Is(Layout{Main: 4, Control: -1}.Validate(), ErrLayout))
	assert.Equal(t, 15, Layout{Main: 11, Control: 4}.Slots())
}

func TestSentinelName(t *testing.T) {
	for _, r := range []float64{NotDetected, Short, OpenCircuit, CommFailure} {
		name, ok := SentinelName(r)
		assert.True(t, ok)
		assert.NotEmpty(t, name)
	}
	_, ok := SentinelName(-5)
	assert.False(t, ok)
	_, ok = SentinelName(215)
	assert.False(t, ok)
}
