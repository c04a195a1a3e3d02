package color

import (
	"fmt"
	"time"

	"github.com/sweeney/dye-reactor/internal/clock"
)

// GateWindow is how long edges are counted for one channel sample.
const GateWindow = 100 * time.Millisecond

// Line is a digital output used to drive the sensor's select pins.
type Line interface {
	Set(high bool) error
}

// Reading is the result of one full acquisition.
type Reading struct {
	// Raw holds the smoothed counts indexed by Channel.
	Raw [4]float32

	// R, G, B are the normalized, gamma-encoded colour components.
	R, G, B uint8
}

// Sensor sequences the four filter channels of one colour sensor and
// smooths the gated counts. A Sensor is driven from a single goroutine; only
// its Counter is touched by the edge handler.
type Sensor struct {
	name    string
	s2, s3  Line
	mapping Mapping
	clk     clock.Clock
	counter Counter
	smooth  Smoother
}

// NewSensor creates a sensor that selects channels on s2/s3 using mapping.
func NewSensor(name string, s2, s3 Line, mapping Mapping, clk clock.Clock) *Sensor {
	return &Sensor{
		name:    name,
		s2:      s2,
		s3:      s3,
		mapping: mapping,
		clk:     clk,
	}
}

// Name returns the sensor label.
func (s *Sensor) Name() string {
	return s.name
}

// Edge is the edge handler. Wire it to the sensor's OUT line.
func (s *Sensor) Edge() {
	s.counter.Increment()
}

// Select drives the select lines for ch.
func (s *Sensor) Select(ch Channel) error {
	lv := s.mapping.Levels(ch)
	if err := s.s2.Set(lv.S2); err != nil {
		return fmt.Errorf("%s: select %s: S2: %w", s.name, ch, err)
	}
	if err := s.s3.Set(lv.S3); err != nil {
		return fmt.Errorf("%s: select %s: S3: %w", s.name, ch, err)
	}
	return nil
}

// Sample selects ch and returns the edges counted over one GateWindow.
// The wait blocks the caller for the full window.
func (s *Sensor) Sample(ch Channel) (uint32, error) {
	if err := s.Select(ch); err != nil {
		return 0, err
	}
	s.counter.Reset()
	clock.WaitFor(s.clk, GateWindow)
	return s.counter.ResetAndRead(), nil
}

// Acquire samples all four channels, folds them into the smoother and
// returns the updated reading. It takes 4×GateWindow. On a select failure
// the remaining channels keep their previous smoothed values.
func (s *Sensor) Acquire() (Reading, error) {
	for _, ch := range Channels {
		n, err := s.Sample(ch)
		if err != nil {
			return s.Reading(), err
		}
		s.smooth.Update(ch, n)
	}
	return s.Reading(), nil
}

// Reading returns the current smoothed state without sampling.
func (s *Sensor) Reading() Reading {
	var rd Reading
	for _, ch := range Channels {
		rd.Raw[ch] = s.smooth.Value(ch)
	}
	rd.R, rd.G, rd.B = Normalize(rd.Raw[Red], rd.Raw[Green], rd.Raw[Blue])
	return rd
}
