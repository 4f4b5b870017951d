// services/uplink/serial_host.go
//go:build !(rp2040 || rp2350)

package uplink

import (
	"context"

	"github.com/tarm/serial"

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

func (t *serialTransport) Open(ctx context.Context) (Link, error) {
	if t.cfg.Port == "" {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "uplink", Msg: "serial port not set"}
	}
	p, err := serial.OpenPort(&serial.Config{Name: t.cfg.Port, Baud: t.cfg.Baud})
	if err != nil {
		return nil, err
	}
	return newFrameLink(p), nil
}
