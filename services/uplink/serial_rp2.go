// services/uplink/serial_rp2.go
//go:build rp2040 || rp2350

package uplink

import (
	"context"
	"io"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"envnode-go/errcode"
	"envnode-go/types"
)

func init() {
	RegisterTransport("serial", newSerialTransport)
}

type serialTransport struct {
	cfg types.SerialConfig
}

func newSerialTransport(cfg types.TransportConfig) (Transport, error) {
	if cfg.Serial == nil {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "uplink", Msg: "serial transport requires serial config"}
	}
	return &serialTransport{cfg: *cfg.Serial}, nil
}

func (t *serialTransport) String() string { return "serial" }

// Open configures uart0 on board-default pins. Zero pins in UARTConfig make
// uartx apply its defaults.
func (t *serialTransport) Open(ctx context.Context) (Link, error) {
	u := uartx.UART0
	if err := u.Configure(uartx.UARTConfig{BaudRate: uint32(t.cfg.Baud)}); err != nil {
		return nil, err
	}
	return newFrameLink(nopCloser{u}), nil
}

// The UART itself stays up across link restarts.
type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
