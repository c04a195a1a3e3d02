package analog

import (
	"fmt"
	"time"

	"github.com/reef-pi/hal"
)

// DefaultSamples is the averaging depth used when none is configured.
const DefaultSamples = 10

// Averager returns the mean of a fixed number of conversions per read.
type Averager struct {
	adc     ADC
	pins    map[int]hal.AnalogInputPin
	samples int
	delay   time.Duration
	sleep   func(time.Duration)
}

// NewAverager averages samples conversions, pausing delay between each.
// samples < 1 uses DefaultSamples.
func NewAverager(adc ADC, samples int, delay time.Duration) *Averager {
	if samples < 1 {
		samples = DefaultSamples
	}
	return &Averager{
		adc:     adc,
		pins:    make(map[int]hal.AnalogInputPin),
		samples: samples,
		delay:   delay,
		sleep:   time.Sleep,
	}
}

// Read returns the mean calibrated count of channel.
func (a *Averager) Read(channel int) (float32, error) {
	pin, ok := a.pins[channel]
	if !ok {
		var err error
		if pin, err = a.adc.AnalogInputPin(channel); err != nil {
			return 0, err
		}
		a.pins[channel] = pin
	}

	var sum float64
	for i := 0; i < a.samples; i++ {
		v, err := pin.Measure()
		if err != nil {
			return 0, fmt.Errorf("sample %d: %w", i, err)
		}
		sum += v
		if a.delay > 0 && i < a.samples-1 {
			a.sleep(a.delay)
		}
	}
	return float32(sum / float64(a.samples)), nil
}
