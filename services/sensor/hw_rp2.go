// services/sensor/hw_rp2.go
//go:build rp2040 || rp2350

package sensor

import (
	"context"
	"machine"

	"tinygo.org/x/drivers/aht20"

	"envnode-go/types"
)

// aht20Source reads a real AHT20 on i2c0 with board-default pins.
type aht20Source struct {
	dev aht20.Device
}

func newAHT20(cfg types.SensorConfig) (Source, error) {
	return &aht20Source{}, nil
}

func (a *aht20Source) Init(ctx context.Context) error {
	if err := machine.I2C0.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       machine.I2C0_SDA_PIN,
		SCL:       machine.I2C0_SCL_PIN,
	}); err != nil {
		return err
	}
	a.dev = aht20.New(machine.I2C0)
	a.dev.Configure()
	return nil
}

func (a *aht20Source) Sample(ctx context.Context) (Reading, error) {
	if err := a.dev.Read(); err != nil {
		return Reading{}, err
	}
	return Reading{TempC: a.dev.Celsius(), HumidityRH: a.dev.RelHumidity()}, nil
}
