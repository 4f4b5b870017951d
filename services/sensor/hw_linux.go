// services/sensor/hw_linux.go
//go:build linux && !(rp2040 || rp2350)

package sensor

import (
	"context"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/aht20"
	"periph.io/x/host/v3"

	"envnode-go/types"
)

// aht20Source reads a real AHT20 over I2C via periph. An empty bus name
// opens the first bus the host registers.
type aht20Source struct {
	busName string
	bus     i2c.BusCloser
	dev     *aht20.Dev
}

func newAHT20(cfg types.SensorConfig) (Source, error) {
	return &aht20Source{busName: cfg.I2CBus}, nil
}

func (a *aht20Source) Init(ctx context.Context) error {
	if _, err := host.Init(); err != nil {
		return err
	}
	b, err := i2creg.Open(a.busName)
	if err != nil {
		return err
	}
	d, err := aht20.NewI2C(b, nil)
	if err != nil {
		b.Close()
		return err
	}
	a.bus, a.dev = b, d
	return nil
}

func (a *aht20Source) Sample(ctx context.Context) (Reading, error) {
	var e physic.Env
	if err := a.dev.Sense(&e); err != nil {
		return Reading{}, err
	}
	return Reading{
		TempC:      float32(e.Temperature.Celsius()),
		HumidityRH: float32(float64(e.Humidity) / float64(physic.PercentRH)),
	}, nil
}
