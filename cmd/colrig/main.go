// command colrig reads the program laid out in the rig's columns and runs it
// on the robot each time the start button is pressed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pion/logging"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"colrig/internal/config"
	"colrig/internal/hw"
	"colrig/internal/instruction"
	"colrig/internal/replay"
	"colrig/internal/rig"
	"colrig/internal/robot"
	"colrig/internal/sequencer"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("")
	cfgpath := flag.String("config", "", "config file")
	pin := flag.String("pin", "", "homekit pin")
	addr := flag.String("addr", ":8000", "listen address")
	statedir := flag.String("state", filepath.Join(os.Getenv("HOME"), "hk", filepath.Base(os.Args[0])), "state directory")
	replayPath := flag.String("replay", "", "run each cycle in this file once and exit")
	record := flag.String("record", "", "save the readings of every run to this file")
	dry := flag.Bool("dry", false, "log instructions instead of driving the robot")
	flag.Parse()

	cfg := config.Default()
	if *cfgpath != "" {
		var err error
		cfg, err = config.Load(*cfgpath)
		if err != nil {
			log.Fatalf("could not load config: %v", err)
		}
	}
	lf := cfg.LoggerFactory()
	for _, o := range cfg.Bands.Overlaps() {
		log.Printf("bands %v and %v overlap, %v wins", cfg.Bands[o[0]], cfg.Bands[o[1]], cfg.Bands[o[0]])
	}

	if *replayPath != "" {
		f, err := replay.Load(*replayPath)
		if err != nil {
			log.Fatalf("could not load replay: %v", err)
		}
		runReplay(f, cfg, lf)
		return
	}

	if _, err := host.Init(); err != nil {
		log.Fatalf("could not init host: %v", err)
	}
	b, err := i2creg.Open(cfg.Hardware.I2CBus)
	if err != nil {
		log.Fatalf("could not open i2c bus: %v", err)
	}
	defer b.Close()
	cols := hw.NewColumns(b, cfg.Hardware.Columns, lf)

	var act sequencer.Actuator
	var facade *hw.Facade
	if *dry {
		act = newLogActuator(lf)
	} else {
		var closeFacade func()
		facade, closeFacade, err = openFacade(cfg, b, lf)
		if err != nil {
			log.Fatalf("could not open actuators: %v", err)
		}
		defer closeFacade()
		act = facade
	}

	button, err := hw.OpenTrigger(cfg.Hardware.Trigger.Pin, cfg.Hardware.Trigger.ActiveHigh, cfg.Hardware.Trigger.Debounce, lf)
	if err != nil {
		log.Fatalf("could not open trigger: %v", err)
	}
	trig := rig.AnyTrigger{button}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.HomeKit.Enabled {
		req := &rig.Request{}
		sw := newRemote(cfg.HomeKit.Name, req, lf)
		trig = append(trig, req)
		go func() {
			if err := sw.serve(ctx, *statedir, *pin, *addr); err != nil && ctx.Err() == nil {
				log.Fatalf("could not serve homekit: %v", err)
			}
		}()
	}

	seq := sequencer.New(sequencerConfig(cfg), act, lf)
	r := rig.New(cols, trig, cfg.Layout, seq, cfg.Poll, lf)

	var rec *replay.File
	if *record != "" {
		if rec, err = replay.Load(*record); errors.Is(err, os.ErrNotExist) || errors.Is(err, replay.ErrNoCycles) {
			rec = &replay.File{}
		} else if err != nil {
			log.Fatalf("could not open recording: %v", err)
		}
	}
	r.BeforeRun = func(readings []float64) {
		if facade != nil {
			facade.ClearIndicators(cfg.Layout.Slots())
		}
		if rec != nil {
			rec.Append(time.Now().Format(time.RFC3339), readings)
			if err := rec.Save(*record); err != nil {
				log.Printf("could not save recording: %v", err)
			}
		}
	}

	if err := r.Loop(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
	log.Printf("stopped after %d runs", r.Runs())
}

func sequencerConfig(cfg *config.Config) sequencer.Config {
	return sequencer.Config{
		Table:  cfg.Bands,
		Grid:   cfg.Grid.Grid(),
		Settle: cfg.Settle,
	}
}

// openFacade opens every actuator the config names. Missing pins or ports
// leave that part out. The returned func releases what was opened.
func openFacade(cfg *config.Config, b i2c.Bus, lf logging.LoggerFactory) (*hw.Facade, func(), error) {
	hwc := cfg.Hardware
	f := &hw.Facade{}
	var link io.Closer
	closeAll := func() {
		if f.Indicators != nil {
			f.ClearIndicators(cfg.Layout.Slots())
		}
		if link != nil {
			link.Close()
		}
	}

	if hwc.Indicators.Enabled {
		ind, err := hw.OpenIndicators(b, hwc.Indicators.Addr, lf)
		if err != nil {
			return nil, nil, fmt.Errorf("indicators: %w", err)
		}
		f.Indicators = ind
	}

	if len(hwc.Drive.X) != 0 && len(hwc.Drive.Y) != 0 {
		x, err := hw.OpenStepper(hwc.Drive.X, hwc.Drive.StepDelay)
		if err != nil {
			return nil, nil, fmt.Errorf("x stepper: %w", err)
		}
		y, err := hw.OpenStepper(hwc.Drive.Y, hwc.Drive.StepDelay)
		if err != nil {
			return nil, nil, fmt.Errorf("y stepper: %w", err)
		}
		f.Drive = hw.NewDrive(x, y, hwc.Drive.StepsPerCell, cfg.Grid.Oriented, lf)
	}

	if hwc.Buzzer != "" {
		p := gpioreg.ByName(hwc.Buzzer)
		if p == nil {
			return nil, nil, fmt.Errorf("buzzer: no pin %s", hwc.Buzzer)
		}
		f.Buzzer = hw.NewBuzzer(p, lf)
	}

	if hwc.Link.Port != "" {
		// run without the link when the module is unplugged
		l, c, err := hw.OpenLink(hwc.Link.Port, hwc.Link.Baud, lf)
		if err != nil {
			log.Printf("could not open link: %v", err)
		} else {
			f.Link, link = l, c
		}
	}
	return f, closeAll, nil
}

func runReplay(f *replay.File, cfg *config.Config, lf logging.LoggerFactory) {
	seq := sequencer.New(sequencerConfig(cfg), newLogActuator(lf), lf)
	src := f.Source()
	r := rig.New(src, rig.AnyTrigger{}, cfg.Layout, seq, cfg.Poll, lf)
	for i, c := range f.Cycles {
		name := c.Name
		if name == "" {
			name = fmt.Sprint(i)
		}
		rep := r.RunCycle(src.Poll())
		log.Printf("cycle %s: %s", name, summary(rep))
		log.Printf("cycle %s: robot at %v", name, seq.State())
	}
}

func summary(rep sequencer.Report) string {
	return fmt.Sprintf("%d dispatched, %d skipped, %d omitted, %d silent, %d discarded, %d control block runs",
		len(rep.Dispatched), rep.Skipped, rep.Omitted, rep.Silent, rep.Discarded, rep.ControlRuns)
}

// logActuator stands in for the robot when running dry.
type logActuator struct {
	log logging.LeveledLogger
}

func newLogActuator(lf logging.LoggerFactory) *logActuator {
	return &logActuator{log: lf.NewLogger("actuator")}
}

func (a *logActuator) Perform(in instruction.Instruction, tr robot.Transition) {
	if in.IsMove() && !tr.Moved() {
		a.log.Infof("%v: stays at %v", in, tr.From)
		return
	}
	a.log.Infof("%v: %v -> %v", in, tr.From, tr.To)
}

func (a *logActuator) SetIndicator(slot int, level uint8) {
	a.log.Debugf("indicator %d: %#02x", slot, level)
}

func (a *logActuator) Notify(code byte) {
	a.log.Debugf("link: %c", code)
}
