//go:build linux

package gpio

import (
	"fmt"
	"io"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// RealChip drives lines on an actual GPIO character device.
type RealChip struct {
	chip *gpiocdev.Chip

	mu    sync.Mutex
	lines []*gpiocdev.Line
}

// NewRealChip opens the named chip, e.g. "gpiochip0".
func NewRealChip(name string) (*RealChip, error) {
	chip, err := gpiocdev.NewChip(name, gpiocdev.WithConsumer(Consumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", name, err)
	}
	return &RealChip{chip: chip}, nil
}

// Output requests offset as an output driven low.
func (c *RealChip) Output(offset int) (Line, error) {
	l, err := c.chip.RequestLine(offset, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("request output %d: %w", offset, err)
	}
	c.track(l)
	return &realLine{line: l}, nil
}

// WatchRising requests offset as a pulled-down input and forwards rising
// edges to onEdge. gpiocdev delivers events from its own goroutine, which
// plays the role of the interrupt handler.
func (c *RealChip) WatchRising(offset int, onEdge func()) (io.Closer, error) {
	l, err := c.chip.RequestLine(offset,
		gpiocdev.WithPullDown,
		gpiocdev.WithRisingEdge,
		gpiocdev.WithEventHandler(func(gpiocdev.LineEvent) { onEdge() }),
	)
	if err != nil {
		return nil, fmt.Errorf("request edge input %d: %w", offset, err)
	}
	c.track(l)
	return l, nil
}

func (c *RealChip) track(l *gpiocdev.Line) {
	c.mu.Lock()
	c.lines = append(c.lines, l)
	c.mu.Unlock()
}

// Close returns every requested line to an input with pull-down (the Pi boot
// default) and releases the chip.
func (c *RealChip) Close() error {
	c.mu.Lock()
	lines := c.lines
	c.lines = nil
	c.mu.Unlock()

	var errs []error
	for _, l := range lines {
		if err := l.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure line %d: %w", l.Offset(), err))
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line %d: %w", l.Offset(), err))
		}
	}
	if c.chip != nil {
		if err := c.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

type realLine struct {
	line *gpiocdev.Line
}

func (l *realLine) Set(high bool) error {
	v := 0
	if high {
		v = 1
	}
	if err := l.line.SetValue(v); err != nil {
		return fmt.Errorf("set line %d: %w", l.line.Offset(), err)
	}
	return nil
}

func (l *realLine) Close() error {
	return l.line.Close()
}
