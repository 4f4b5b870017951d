package sensor

import (
	"math"

	"envnode-go/x/mathx"
)

// The data model carries hundredths: 25.34 C is 2534. Conversion truncates
// toward zero, it never rounds. Inputs are clamped to the representable
// window first because Go leaves out-of-range float-to-int conversions
// undefined.

// TempX100 converts degrees Celsius to 0.01 C units.
func TempX100(c float32) int16 {
	return int16(mathx.Clamp(float64(c)*100, math.MinInt16, math.MaxInt16))
}

// HumX100 converts percent relative humidity to 0.01 %RH units.
func HumX100(rh float32) uint16 {
	return uint16(mathx.Clamp(float64(rh)*100, 0, math.MaxUint16))
}
