// Package color acquires frequency-encoded colour measurements from
// photodiode-array sensors of the TCS3200 family.
//
// Each sensor exposes two filter select lines (S2, S3) and a square-wave
// output whose frequency tracks light intensity. A Sensor selects each
// filter in turn, counts output edges over a fixed gate window, smooths the
// counts and reports them alongside a gamma-corrected 8-bit RGB triple.
package color

import "sync/atomic"

// Counter counts edges delivered by an asynchronous edge handler.
//
// Increment is the only operation the handler may call. The acquisition loop
// uses Reset and ResetAndRead, which are single atomic accesses so the
// handler is never held off for longer than the access itself.
type Counter struct {
	n atomic.Uint32
}

// Increment records one edge. Safe to call from the edge handler.
func (c *Counter) Increment() {
	c.n.Add(1)
}

// Reset zeroes the counter.
func (c *Counter) Reset() {
	c.n.Store(0)
}

// ResetAndRead returns the current count and zeroes it in one step.
func (c *Counter) ResetAndRead() uint32 {
	return c.n.Swap(0)
}
