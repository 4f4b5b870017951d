// Minimal liveness binary for board bring-up. The real entry points are
// cmd/envnode (hosted) and cmd/piconode (RP2).
package main

import (
	"time"

	"envnode-go/x/fmtx"
	"envnode-go/x/timex"
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("boot")

	tick := time.NewTicker(1 * time.Second)
	defer tick.Stop()

	for range tick.C {
		println("up", fmtx.Utoa(uint32(timex.UptimeMs()/1000))+"s")
	}
}
