// cmd/piconode/main.go
//go:build rp2040 || rp2350

// Pico environment node: AHT20 on i2c0, framed serial uplink on uart0.
package main

import (
	"context"
	"runtime"
	"time"

	"envnode-go/board"
	"envnode-go/bus"
	"envnode-go/services/config"
	"envnode-go/services/heartbeat"
	"envnode-go/services/sensor"
	"envnode-go/services/stack"
	"envnode-go/services/uplink"
)

const nodeID = "pico"

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(3 * time.Second)
	println("[main] piconode boot")

	if err := board.Init(); err != nil {
		fatal("board init failed: " + err.Error())
	}

	ctx := context.Background()
	b := bus.NewBus(4)

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

	println("[main] publishing config for", nodeID, "...")
	cfgCtx := context.WithValue(ctx, config.CtxNodeKey, nodeID)
	config.NewConfigService().Start(cfgCtx, b.NewConnection("config"))

	board.SetStatusLED(true)

	tick := time.NewTicker(10 * time.Second)
	defer tick.Stop()
	for {
		select {
		case err := <-errCh:
			if err != nil {
				fatal("sensor failed: " + err.Error())
			}
			return
		case <-tick.C:
			printMem()
		}
	}
}

// fatal parks the node with a blinking status LED; there is no exit code on
// the MCU.
func fatal(msg string) {
	println("[main] fatal:", msg)
	for {
		board.SetStatusLED(true)
		time.Sleep(100 * time.Millisecond)
		board.SetStatusLED(false)
		time.Sleep(900 * time.Millisecond)
	}
}

// printMem prints a compact snapshot of TinyGo runtime memory stats.
// Uses builtin println to avoid fmt overhead/allocations.
func printMem() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	println(
		"[mem]",
		"alloc:", uint32(ms.Alloc),
		"heapInuse:", uint32(ms.HeapInuse),
		"heapSys:", uint32(ms.HeapSys),
		"mallocs:", uint32(ms.Mallocs),
		"frees:", uint32(ms.Frees),
	)
}
