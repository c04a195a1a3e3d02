// Package gpio provides digital line access with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "io"

// Line is a digital output line.
type Line interface {
	// Set drives the line high (true) or low (false).
	Set(high bool) error

	// Close releases the line.
	Close() error
}

// Chip hands out output lines and edge-watched inputs.
type Chip interface {
	// Output requests offset as an output, initially low.
	Output(offset int) (Line, error)

	// WatchRising requests offset as an input and calls onEdge for every
	// rising edge until the returned closer is closed. onEdge runs
	// asynchronously to the caller and must not block.
	WatchRising(offset int, onEdge func()) (io.Closer, error)

	// Close releases the chip and everything requested from it.
	Close() error
}

// Consumer is the label attached to every requested line.
const Consumer = "dye-reactor"

// Default line offsets (BCM numbering) for the two colour sensors.
const (
	DefaultChip = "gpiochip0"

	DefaultSensor1S0  = 5
	DefaultSensor1S1  = 6
	DefaultSensor1S2  = 13
	DefaultSensor1S3  = 19
	DefaultSensor1Out = 26

	DefaultSensor2S0  = 12
	DefaultSensor2S1  = 16
	DefaultSensor2S2  = 20
	DefaultSensor2S3  = 21
	DefaultSensor2Out = 23
)
