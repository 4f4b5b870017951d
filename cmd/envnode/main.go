// Hosted environment node: virtual or I2C-attached sensor, MQTT or serial
// uplink. Fatal bring-up errors exit non-zero; per-cycle failures are logged
// and the node keeps running.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/matishsiao/goInfo"

	"envnode-go/board"
	"envnode-go/bus"
	"envnode-go/services/config"
	"envnode-go/services/heartbeat"
	"envnode-go/services/sensor"
	"envnode-go/services/stack"
	"envnode-go/services/uplink"
)

const nodeID = "envnode"

func main() {
	if gi, err := goInfo.GetInfo(); err == nil {
		println("[main] envnode starting on", gi.OS, gi.Kernel, "host", gi.Hostname, "(go", gi.GoVersion+")")
	}

	if err := board.Init(); err != nil {
		println("[main] board init failed:", err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b := bus.NewBus(16)

	println("[main] starting stack ...")
	stackSvc := stack.New(b.NewConnection("stack"))
	go stackSvc.Run(ctx)

	println("[main] starting heartbeat ...")
	hb := &heartbeat.Service{}
	_ = hb.Start(ctx, b.NewConnection("heartbeat"))

	println("[main] starting uplink ...")
	go uplink.Start(ctx, b.NewConnection("uplink"))

	println("[main] starting sensor ...")
	sensorSvc := sensor.New(b.NewConnection("sensor"), stack.NewAccessor(b.NewConnection("accessor")))
	errCh := make(chan error, 1)
	go func() { errCh <- sensorSvc.Run(ctx) }()

	// Config goes out last; services idle until their retained key appears.
	println("[main] publishing config for", nodeID, "...")
	cfgCtx := context.WithValue(ctx, config.CtxNodeKey, nodeID)
	config.NewConfigService().Start(cfgCtx, b.NewConnection("config"))

	board.SetStatusLED(true)

	select {
	case <-ctx.Done():
		println("[main] shutting down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			println("[main] sensor failed:", err.Error())
			board.SetStatusLED(false)
			os.Exit(1)
		}
	}
	board.SetStatusLED(false)
}
