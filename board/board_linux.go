// board/board_linux.go
//go:build linux && !(rp2040 || rp2350)

package board

import (
	rpio "github.com/stianeikeland/go-rpio/v4"
)

// statusPin is the header GPIO wired to the status LED on Pi deployments.
const statusPin = 16

var gpioAvailable bool

// Not every linux host is a Pi; a missing GPIO header means headless, not
// broken.
func platformInit() error {
	if err := rpio.Open(); err != nil {
		println("[board] gpio unavailable, running headless:", err.Error())
		return nil
	}
	gpioAvailable = true
	pin := rpio.Pin(statusPin)
	pin.Output()
	pin.High()
	return nil
}

func platformLED(on bool) {
	if !gpioAvailable {
		return
	}
	pin := rpio.Pin(statusPin)
	if on {
		pin.High()
	} else {
		pin.Low()
	}
}
