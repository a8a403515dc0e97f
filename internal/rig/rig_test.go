package rig

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/pion/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"colrig/internal/instruction"
	"colrig/internal/program"
	"colrig/internal/robot"
	"colrig/internal/sequencer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func quietLogger() logging.LoggerFactory {
	return &logging.DefaultLoggerFactory{Writer: io.Discard, DefaultLogLevel: logging.LogLevelDebug}
}

type cycleSource struct {
	sync.Mutex
	cycles [][]float64
	polls  int
}

func (s *cycleSource) Poll() []float64 {
	s.Lock()
	defer s.Unlock()
	c := s.cycles[s.polls%len(s.cycles)]
	s.polls++
	return c
}

type scriptTrigger struct {
	sync.Mutex
	fires  []bool
	calls  int
	resets int
}

func (t *scriptTrigger) Fired() bool {
	t.Lock()
	defer t.Unlock()
	i := t.calls
	t.calls++
	return i < len(t.fires) && t.fires[i]
}

func (t *scriptTrigger) Reset() {
	t.Lock()
	defer t.Unlock()
	t.resets++
}

type recordingRunner struct {
	sync.Mutex
	stores []program.Store
}

func (r *recordingRunner) Run(p program.Store) sequencer.Report {
	r.Lock()
	defer r.Unlock()
	r.stores = append(r.stores, p)
	return sequencer.Report{}
}

func TestStep(t *testing.T) {
	src := &cycleSource{cycles: [][]float64{{1, 2, 3}, {4, 5, 6}}}
	trig := &scriptTrigger{fires: []bool{false, true}}
	run := &recordingRunner{}
	r := New(src, trig, program.Layout{Main: 2, Control: 1}, run, time.Millisecond, quietLogger())
	var before [][]float64
	r.BeforeRun = func(readings []float64) { before = append(before, readings) }

	assert.False(t, r.Step())
	assert.Empty(t, run.stores)
	assert.Equal(t, 0, trig.resets)

	assert.True(t, r.Step())
	require.Len(t, run.stores, 1)
	// the run uses the readings polled in the same iteration
	assert.Equal(t, program.Store{Main: []float64{4, 5}, Control: []float64{6}}, run.stores[0])
	assert.Equal(t, 1, trig.resets)
	assert.Equal(t, [][]float64{{4, 5, 6}}, before)
	assert.Equal(t, int64(1), r.Runs())
	assert.Equal(t, 2, src.polls)
}

type fakeActuator struct{ n int }

func (f *fakeActuator) Perform(instruction.Instruction, robot.Transition) { f.n++ }
func (f *fakeActuator) SetIndicator(int, uint8)                          {}
func (f *fakeActuator) Notify(byte)                                      {}

func TestRunCycleWithSequencer(t *testing.T) {
	act := &fakeActuator{}
	seq := sequencer.New(sequencer.Config{Grid: robot.Grid{Size: 3}}, act, quietLogger())
	r := New(&cycleSource{}, &Request{}, program.Layout{Main: 3, Control: 2}, seq, 0, quietLogger())

	rep := r.RunCycle([]float64{10000, 215, 215, 4000})
	// the missing last slot reads as a failed column
	assert.Equal(t, 3, len(rep.Dispatched))
	assert.Equal(t, 1, rep.Skipped)
	assert.Equal(t, 3, act.n)
	assert.Equal(t, robot.State{X: 1, Y: 2}, seq.State())
}

func TestLoopStops(t *testing.T) {
	src := &cycleSource{cycles: [][]float64{{215}}}
	req := &Request{}
	run := &recordingRunner{}
	r := New(src, req, program.Layout{Main: 1}, run, time.Millisecond, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- r.Loop(ctx) }()

	req.Request()
	require.Eventually(t, func() bool { return r.Runs() == 1 }, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
}

func TestAnyTrigger(t *testing.T) {
	a := &scriptTrigger{fires: []bool{false, true, false}}
	b := &scriptTrigger{fires: []bool{true, true, false}}
	trig := AnyTrigger{a, b}

	assert.True(t, trig.Fired())
	assert.True(t, trig.Fired())
	assert.False(t, trig.Fired())
	// every trigger is sampled each time
	assert.Equal(t, 3, a.calls)
	assert.Equal(t, 3, b.calls)

	trig.Reset()
	assert.Equal(t, 1, a.resets)
	assert.Equal(t, 1, b.resets)
}

func TestRequest(t *testing.T) {
	resets := 0
	q := &Request{OnReset: func() { resets++ }}
	assert.False(t, q.Fired())

	q.Request()
	q.Request()
	assert.True(t, q.Fired())
	assert.False(t, q.Fired())

	// a request made during a run is dropped
	q.Request()
	q.Reset()
	assert.False(t, q.Fired())
	assert.Equal(t, 1, resets)
}
