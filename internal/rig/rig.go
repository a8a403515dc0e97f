// Package rig runs the central controller loop: poll the columns, wait for
// the start trigger, run the program.
package rig

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pion/logging"

	"colrig/internal/program"
	"colrig/internal/sequencer"
)

// Source delivers one reading per slot each time it is polled. Failed slots
// are reported in band as sentinel readings.
type Source interface {
	Poll() []float64
}

// Trigger starts runs.
type Trigger interface {
	// Fired reports whether a run was requested since the last call.
	Fired() bool
	// Reset discards requests made while a run was in progress.
	Reset()
}

// Runner is the part of the sequencer the loop drives.
type Runner interface {
	Run(program.Store) sequencer.Report
}

// Rig is the controller loop. It is driven from a single goroutine.
type Rig struct {
	src    Source
	trig   Trigger
	layout program.Layout
	seq    Runner
	poll   time.Duration
	log    logging.LeveledLogger

	// BeforeRun, if set, is called with the cycle's readings before each run.
	BeforeRun func(readings []float64)

	runs atomic.Int64
}

func New(src Source, trig Trigger, layout program.Layout, seq Runner, poll time.Duration, lf logging.LoggerFactory) *Rig {
	if poll <= 0 {
		poll = time.Millisecond
	}
	return &Rig{
		src:    src,
		trig:   trig,
		layout: layout,
		seq:    seq,
		poll:   poll,
		log:    lf.NewLogger("rig"),
	}
}

// Runs is the number of completed runs.
func (r *Rig) Runs() int64 {
	return r.runs.Load()
}

// Step performs one loop iteration. It reports whether a run happened.
func (r *Rig) Step() bool {
	readings := r.src.Poll()
	if !r.trig.Fired() {
		return false
	}
	r.RunCycle(readings)
	r.trig.Reset()
	return true
}

// RunCycle runs the program held in one cycle of readings to completion.
func (r *Rig) RunCycle(readings []float64) sequencer.Report {
	if len(readings) != r.layout.Slots() {
		r.log.Warnf("cycle has %d readings, layout needs %d", len(readings), r.layout.Slots())
	}
	if r.BeforeRun != nil {
		r.BeforeRun(readings)
	}
	rep := r.seq.Run(r.layout.Partition(readings))
	r.runs.Add(1)
	return rep
}

// Loop runs Step until ctx is cancelled. A run in progress always completes
// before Loop returns.
func (r *Rig) Loop(ctx context.Context) error {
	r.log.Infof("waiting for trigger")
	t := time.NewTicker(r.poll)
	defer t.Stop()
	for {
		if r.Step() {
			r.log.Infof("waiting for trigger")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

// AnyTrigger fires when any of its triggers fires.
type AnyTrigger []Trigger

func (a AnyTrigger) Fired() bool {
	fired := false
	// every trigger is sampled so each one tracks its own edges
	for _, t := range a {
		if t.Fired() {
			fired = true
		}
	}
	return fired
}

func (a AnyTrigger) Reset() {
	for _, t := range a {
		t.Reset()
	}
}

// Request is a Trigger fired programmatically, for example by a remote
// switch. It is safe to call Request from any goroutine.
type Request struct {
	pending atomic.Bool
	// OnReset, if set, is called by Reset.
	OnReset func()
}

// Request asks for a run. Repeated requests before the loop notices
// collapse into one.
func (q *Request) Request() {
	q.pending.Store(true)
}

func (q *Request) Fired() bool {
	return q.pending.Swap(false)
}

func (q *Request) Reset() {
	q.pending.Store(false)
	if q.OnReset != nil {
		q.OnReset()
	}
}
