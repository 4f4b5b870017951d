// board/board_rp2.go
//go:build rp2040 || rp2350

package board

import "machine"

func platformInit() error {
	machine.LED.Configure(machine.PinConfig{Mode: machine.PinOutput})
	machine.LED.High()
	return nil
}

func platformLED(on bool) {
	if on {
		machine.LED.High()
	} else {
		machine.LED.Low()
	}
}
