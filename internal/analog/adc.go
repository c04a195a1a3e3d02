// Package analog samples the reactor's auxiliary analog sensors
// (temperature, UV, photodiode, turbidity) and converts averaged ADC counts
// to engineering units.
package analog

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/reef-pi/hal"
)

// ADC hands out analog input pins by channel number.
type ADC interface {
	AnalogInputPin(channel int) (hal.AnalogInputPin, error)
}

// IIORoot is where the kernel exposes industrial I/O devices.
var IIORoot = "/sys/bus/iio/devices"

var _ hal.AnalogInputDriver = (*IIO)(nil)

var rawFile = regexp.MustCompile(`^in_voltage(\d+)_raw$`)

// IIO is an ADC exposed through the Linux IIO sysfs interface
// (in_voltage<N>_raw), one hal.AnalogInputPin per channel.
type IIO struct {
	device string
	dir    string
	pins   map[int]*iioPin
}

// OpenIIO opens device, e.g. "iio:device0".
func OpenIIO(device string) (*IIO, error) {
	dir := filepath.Join(IIORoot, device)
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("open iio device %s: %w", device, err)
	}
	return &IIO{device: device, dir: dir, pins: make(map[int]*iioPin)}, nil
}

// Metadata describes the driver.
func (a *IIO) Metadata() hal.Metadata {
	return hal.Metadata{
		Name:         "iio",
		Description:  "Linux IIO ADC " + a.device,
		Capabilities: []hal.Capability{hal.AnalogInput},
	}
}

// Pins lists the analog inputs the device exposes.
func (a *IIO) Pins(cap hal.Capability) ([]hal.Pin, error) {
	if cap != hal.AnalogInput {
		return nil, fmt.Errorf("iio: unsupported capability %s", cap)
	}
	var pins []hal.Pin
	for _, p := range a.AnalogInputPins() {
		pins = append(pins, p)
	}
	return pins, nil
}

// AnalogInputPins returns a pin for every in_voltage<N>_raw file, ordered
// by channel.
func (a *IIO) AnalogInputPins() []hal.AnalogInputPin {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return nil
	}
	var channels []int
	for _, e := range entries {
		m := rawFile.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		channels = append(channels, n)
	}
	sort.Ints(channels)

	pins := make([]hal.AnalogInputPin, 0, len(channels))
	for _, n := range channels {
		pins = append(pins, a.pin(n))
	}
	return pins
}

// AnalogInputPin returns the pin for channel n. Calibration set on a pin is
// kept for the life of the driver.
func (a *IIO) AnalogInputPin(n int) (hal.AnalogInputPin, error) {
	if n < 0 {
		return nil, fmt.Errorf("iio: invalid channel %d", n)
	}
	if _, err := os.Stat(filepath.Join(a.dir, fmt.Sprintf("in_voltage%d_raw", n))); err != nil {
		return nil, fmt.Errorf("iio: channel %d: %w", n, err)
	}
	return a.pin(n), nil
}

func (a *IIO) pin(n int) *iioPin {
	p, ok := a.pins[n]
	if !ok {
		p = &iioPin{
			name:    fmt.Sprintf("%s/in_voltage%d", a.device, n),
			channel: n,
			path:    filepath.Join(a.dir, fmt.Sprintf("in_voltage%d_raw", n)),
		}
		a.pins[n] = p
	}
	return p
}

// Close releases nothing; sysfs attributes are opened per read.
func (a *IIO) Close() error {
	return nil
}

type iioPin struct {
	name    string
	channel int
	path    string
	cal     hal.Calibrator
}

func (p *iioPin) Name() string { return p.name }
func (p *iioPin) Number() int  { return p.channel }
func (p *iioPin) Close() error { return nil }

// Value returns the raw conversion count.
func (p *iioPin) Value() (float64, error) {
	b, err := os.ReadFile(p.path)
	if err != nil {
		return 0, fmt.Errorf("read channel %d: %w", p.channel, err)
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil {
		return 0, fmt.Errorf("parse channel %d: %w", p.channel, err)
	}
	return float64(v), nil
}

// Calibrate installs a zero, one or two point correction of raw counts.
func (p *iioPin) Calibrate(ms []hal.Measurement) error {
	cal, err := hal.CalibratorFactory(ms)
	if err != nil {
		return fmt.Errorf("channel %d: %w", p.channel, err)
	}
	p.cal = cal
	return nil
}

// Measure returns the calibrated count.
func (p *iioPin) Measure() (float64, error) {
	v, err := p.Value()
	if err != nil {
		return 0, err
	}
	if p.cal == nil {
		return v, nil
	}
	return p.cal.Calibrate(v), nil
}
