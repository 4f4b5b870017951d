// board/board_stub.go
//go:build !linux && !(rp2040 || rp2350)

package board

func platformInit() error { return nil }

func platformLED(bool) {}
