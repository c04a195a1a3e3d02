package gpio

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// FakeChip is a test double that records output levels and lets tests fire
// edges on watched inputs.
type FakeChip struct {
	mu       sync.Mutex
	outputs  map[int]*FakeLine
	watchers map[int]func()

	// OutputError, if set, is returned by Output.
	OutputError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeChip creates an empty FakeChip.
func NewFakeChip() *FakeChip {
	return &FakeChip{
		outputs:  map[int]*FakeLine{},
		watchers: map[int]func(){},
	}
}

// Output returns a FakeLine for offset. Requesting the same offset twice fails.
func (c *FakeChip) Output(offset int) (Line, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.OutputError != nil {
		return nil, c.OutputError
	}
	if _, ok := c.outputs[offset]; ok {
		return nil, fmt.Errorf("line %d busy", offset)
	}
	l := &FakeLine{Offset: offset}
	c.outputs[offset] = l
	return l, nil
}

// WatchRising registers onEdge for offset.
func (c *FakeChip) WatchRising(offset int, onEdge func()) (io.Closer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.watchers[offset]; ok {
		return nil, fmt.Errorf("line %d busy", offset)
	}
	c.watchers[offset] = onEdge
	return closerFunc(func() error {
		c.mu.Lock()
		delete(c.watchers, offset)
		c.mu.Unlock()
		return nil
	}), nil
}

// Pulse fires n rising edges on offset. It returns an error if nothing
// watches the line.
func (c *FakeChip) Pulse(offset, n int) error {
	c.mu.Lock()
	h := c.watchers[offset]
	c.mu.Unlock()
	if h == nil {
		return errors.New("no watcher on line")
	}
	for i := 0; i < n; i++ {
		h()
	}
	return nil
}

// Line returns the FakeLine previously requested for offset, or nil.
func (c *FakeChip) Line(offset int) *FakeLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outputs[offset]
}

// Close marks the chip as closed.
func (c *FakeChip) Close() error {
	c.mu.Lock()
	c.Closed = true
	c.mu.Unlock()
	return nil
}

// FakeLine records every level written to it.
type FakeLine struct {
	mu sync.Mutex

	Offset int
	Levels []bool

	// SetError, if set, is returned by Set.
	SetError error

	// Closed tracks if Close was called.
	Closed bool
}

// Set records the level.
func (l *FakeLine) Set(high bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.SetError != nil {
		return l.SetError
	}
	l.Levels = append(l.Levels, high)
	return nil
}

// Level returns the last level written, false if none.
func (l *FakeLine) Level() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.Levels) == 0 {
		return false
	}
	return l.Levels[len(l.Levels)-1]
}

// Close marks the line as closed.
func (l *FakeLine) Close() error {
	l.mu.Lock()
	l.Closed = true
	l.mu.Unlock()
	return nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
