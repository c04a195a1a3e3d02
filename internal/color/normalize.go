package color

import (
	"github.com/chewxy/math32"
	"golang.org/x/exp/constraints"
)

// Gamma is the display gamma used for 8-bit encoding.
const Gamma float32 = 2.2

// Normalize converts smoothed R, G, B values into chromaticity fractions and
// gamma-encodes each to 0..255. Clear is not part of the sum. A non-positive
// sum encodes as black.
func Normalize(r, g, b float32) (uint8, uint8, uint8) {
	sum := r + g + b
	if sum <= 0 {
		return 0, 0, 0
	}
	return Encode(Clamp(r/sum, 0, 1)), Encode(Clamp(g/sum, 0, 1)), Encode(Clamp(b/sum, 0, 1))
}

// Encode maps a linear fraction in [0,1] to round(255 * f^(1/Gamma)),
// clamped to 0..255.
func Encode(f float32) uint8 {
	v := math32.Round(255 * math32.Pow(f, 1/Gamma))
	return uint8(Clamp(v, 0, 255))
}

// Clamp limits v to [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
