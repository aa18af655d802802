package main

import (
	"context"
	"log/slog"

	"ficonsole/pkg/config"
	"ficonsole/pkg/sim"
	"ficonsole/pkg/sim/mocksim"
	"ficonsole/pkg/sim/xpc"
)

// newSimFactory returns the factory the session uses for every (re)connect.
func newSimFactory(cfg *config.Config) sim.Factory {
	if cfg.Sim.Provider == "mock" {
		slog.Info("Sim Source: Mock")
		mc := mocksim.DefaultConfig()
		m := cfg.Sim.Mock
		mc.StartLat, mc.StartLon = m.StartLat, m.StartLon
		mc.StartAltFt = m.StartAlt
		mc.StartHeading = m.StartHeading
		mc.StartAirspeed = m.StartAirspeed
		return func(ctx context.Context) (sim.Client, error) {
			return mocksim.NewClient(mc), nil
		}
	}

	x := cfg.Sim.XPC
	slog.Info("Sim Source: X-Plane Connect", "host", x.Host, "port", x.Port)
	return xpc.NewFactory(x.Host, x.Port, x.Timeout.D())
}
