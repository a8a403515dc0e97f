package main

import (
	"context"

	"github.com/brutella/hap"
	"github.com/brutella/hap/accessory"
	"github.com/pion/logging"

	"colrig/internal/rig"
)

// remote is a homekit switch that starts a run. It stays on until the run
// it started has finished.
type remote struct {
	sw  *accessory.Switch
	req *rig.Request
	log logging.LeveledLogger
}

func newRemote(name string, req *rig.Request, lf logging.LoggerFactory) *remote {
	r := &remote{
		sw:  accessory.NewSwitch(accessory.Info{Name: name, Manufacturer: "aljammaz labs"}),
		req: req,
		log: lf.NewLogger("homekit"),
	}
	r.sw.Switch.On.SetValue(false)
	r.sw.Switch.On.OnValueRemoteUpdate(r.update)
	req.OnReset = func() {
		r.sw.Switch.On.SetValue(false)
	}
	return r
}

func (r *remote) update(on bool) {
	if !on {
		// runs can't be cancelled
		r.log.Debugf("switched off remotely")
		return
	}
	r.log.Infof("run requested")
	r.req.Request()
}

func (r *remote) serve(ctx context.Context, statedir, pin, addr string) error {
	server, err := hap.NewServer(hap.NewFsStore(statedir), r.sw.A)
	if err != nil {
		return err
	}
	server.Pin = pin
	server.Addr = addr
	return server.ListenAndServe(ctx)
}
