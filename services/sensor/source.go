package sensor

import (
	"context"

	"envnode-go/errcode"
	"envnode-go/types"
)

// Reading is one sample in natural units.
type Reading struct {
	TempC      float32
	HumidityRH float32
}

// Source produces environment readings. Implementations are called from the
// service goroutine only.
type Source interface {
	// Init brings the source up. Failures here are fatal to the service.
	Init(ctx context.Context) error
	// Sample takes one reading. Failures are logged and the cycle skipped.
	Sample(ctx context.Context) (Reading, error)
}

// newSource selects the implementation named by config. The zero value
// selects the virtual walk so a bare node still produces data.
func newSource(cfg types.SensorConfig) (Source, error) {
	switch cfg.Source {
	case "", "virtual":
		return NewVirtual(), nil
	case "aht20":
		return newAHT20(cfg)
	default:
		return nil, &errcode.E{C: errcode.UnknownSource, Op: "sensor", Msg: cfg.Source}
	}
}
