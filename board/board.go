// Package board owns platform bring-up. Hosted builds probe the Pi GPIO
// header and fall back to headless; MCU builds drive the on-board LED.
package board

// Init prepares the board and lights the status LED. A non-nil error is
// fatal to node start.
func Init() error { return platformInit() }

// SetStatusLED drives the status LED where the platform has one.
func SetStatusLED(on bool) { platformLED(on) }
