// services/sensor/hw_stub.go
//go:build !linux && !(rp2040 || rp2350)

package sensor

import (
	"envnode-go/errcode"
	"envnode-go/types"
)

// Real AHT20 support exists for linux (periph) and the RP2 family (TinyGo
// drivers) only.
func newAHT20(cfg types.SensorConfig) (Source, error) {
	return nil, &errcode.E{C: errcode.UnknownSource, Op: "sensor", Msg: "aht20 not supported on this platform"}
}
