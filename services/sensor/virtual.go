package sensor

import (
	"context"

	"envnode-go/x/mathx"
	"envnode-go/x/timex"
)

// Virtual walk parameters. Values stay inside the clamp window whatever the
// step sequence.
const (
	virtTempStart float32 = 25.0
	virtTempStep  float32 = 0.1
	virtTempMin   float32 = 20.0
	virtTempMax   float32 = 30.0

	virtHumStart float32 = 50.0
	virtHumStep  float32 = 0.5
	virtHumMin   float32 = 40.0
	virtHumMax   float32 = 60.0
)

// Virtual is a bounded random walk. Step direction is derived from uptime,
// which is noisy enough on a live system and costs nothing; tests inject
// their own clock.
type Virtual struct {
	temp float32
	hum  float32
	now  func() int64
}

func NewVirtual() *Virtual {
	return &Virtual{
		temp: virtTempStart,
		hum:  virtHumStart,
		now:  timex.UptimeMs,
	}
}

func (v *Virtual) Init(ctx context.Context) error { return nil }

// Sample advances the walk. Each attribute draws its own step, so
// temperature and humidity drift independently.
func (v *Virtual) Sample(ctx context.Context) (Reading, error) {
	v.temp = mathx.Clamp(v.temp+float32(v.step())*virtTempStep, virtTempMin, virtTempMax)
	v.hum = mathx.Clamp(v.hum+float32(v.step())*virtHumStep, virtHumMin, virtHumMax)
	return Reading{TempC: v.temp, HumidityRH: v.hum}, nil
}

// step maps the clock onto {-1, 0, +1}.
func (v *Virtual) step() int64 {
	return v.now()%3 - 1
}
