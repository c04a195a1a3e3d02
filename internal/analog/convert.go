package analog

import (
	"github.com/chewxy/math32"
	"golang.org/x/exp/constraints"
)

// Converter maps raw counts to volts for an ADC of the given resolution.
type Converter struct {
	VRef float32
	Bits int
}

// Voltage converts a (possibly averaged) raw count to volts.
func (c Converter) Voltage(raw float32) float32 {
	full := float32(uint32(1)<<uint(c.Bits) - 1)
	if full <= 0 {
		return 0
	}
	return clamp(raw, 0, full) * c.VRef / full
}

// TemperatureC converts a TMP36 output voltage to degrees Celsius.
func TemperatureC(v float32) float32 {
	return (v - 0.5) * 100
}

// UVIndex converts a GUVA-S12SD module voltage to UV index (0.1 V per step).
func UVIndex(v float32) float32 {
	return math32.Max(v/0.1, 0)
}

// TurbidityNTU converts a turbidity module voltage with the vendor's
// quadratic fit. Negative results read as clear water.
func TurbidityNTU(v float32) float32 {
	ntu := -1120.4*v*v + 5742.3*v - 4352.9
	return math32.Max(ntu, 0)
}

func clamp[T constraints.Float](v, lo, hi T) T {
	return max(lo, min(v, hi))
}
