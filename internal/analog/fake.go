package analog

import (
	"fmt"

	"github.com/reef-pi/hal"
)

// FakeADC returns scripted raw counts.
type FakeADC struct {
	// Values maps channel to raw count. Missing channels read 0.
	Values map[int]int

	// Sequence, if set for a channel, is consumed one value per read
	// before falling back to Values.
	Sequence map[int][]int

	// Error, if set, is returned by every read.
	Error error

	// Calibration records the points last installed per channel.
	Calibration map[int][]hal.Measurement

	Reads int

	pins map[int]*fakePin
}

// AnalogInputPin returns the pin reading channel from f, the same one on
// every call.
func (f *FakeADC) AnalogInputPin(channel int) (hal.AnalogInputPin, error) {
	if channel < 0 {
		return nil, fmt.Errorf("fake adc: invalid channel %d", channel)
	}
	if f.pins == nil {
		f.pins = make(map[int]*fakePin)
	}
	p, ok := f.pins[channel]
	if !ok {
		p = &fakePin{adc: f, channel: channel}
		f.pins[channel] = p
	}
	return p, nil
}

type fakePin struct {
	adc     *FakeADC
	channel int
	cal     hal.Calibrator
}

func (p *fakePin) Name() string { return fmt.Sprintf("fake/%d", p.channel) }
func (p *fakePin) Number() int  { return p.channel }
func (p *fakePin) Close() error { return nil }

func (p *fakePin) Value() (float64, error) {
	f := p.adc
	f.Reads++
	if f.Error != nil {
		return 0, f.Error
	}
	if seq := f.Sequence[p.channel]; len(seq) > 0 {
		f.Sequence[p.channel] = seq[1:]
		return float64(seq[0]), nil
	}
	return float64(f.Values[p.channel]), nil
}

func (p *fakePin) Calibrate(ms []hal.Measurement) error {
	cal, err := hal.CalibratorFactory(ms)
	if err != nil {
		return err
	}
	p.cal = cal
	if p.adc.Calibration == nil {
		p.adc.Calibration = make(map[int][]hal.Measurement)
	}
	p.adc.Calibration[p.channel] = ms
	return nil
}

func (p *fakePin) Measure() (float64, error) {
	v, err := p.Value()
	if err != nil || p.cal == nil {
		return v, err
	}
	return p.cal.Calibrate(v), nil
}
