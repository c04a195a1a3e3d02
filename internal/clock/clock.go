// Package clock provides the wrapping millisecond time base shared by the
// colour acquisition path and the actuator timers.
//
// Timestamps are uint32 milliseconds that wrap roughly every 49.7 days.
// Never compare two timestamps with < or >; use Elapsed and Expired.
package clock

import (
	"math"
	"time"
)

// Clock is a monotonic millisecond counter.
type Clock interface {
	// Millis returns the current timestamp. The value wraps at 2^32.
	Millis() uint32

	// Yield gives up the processor briefly while a caller busy-waits.
	Yield()
}

// Elapsed returns the milliseconds between start and now, correct across a
// single wrap of the counter.
func Elapsed(start, now uint32) uint32 {
	return now - start
}

// Expired reports whether now is strictly after deadline. Deadlines must lie
// at most MaxWindow in the future of the time they were set.
func Expired(now, deadline uint32) bool {
	return int32(now-deadline) > 0
}

// MaxWindow is the longest interval Expired can measure.
const MaxWindow = math.MaxInt32 * time.Millisecond

// CapWindow limits d to MaxWindow.
func CapWindow(d time.Duration) time.Duration {
	return min(d, MaxWindow)
}

// Deadline returns the timestamp d after now, with d capped at MaxWindow.
func Deadline(now uint32, d time.Duration) uint32 {
	return now + uint32(CapWindow(d)/time.Millisecond)
}

// WaitFor blocks until at least d has elapsed on c.
func WaitFor(c Clock, d time.Duration) {
	ms := uint32(d / time.Millisecond)
	start := c.Millis()
	for Elapsed(start, c.Millis()) < ms {
		c.Yield()
	}
}

// Real is the wall clock, counted from the moment it was created.
type Real struct {
	origin time.Time
	tick   time.Duration
}

// NewReal creates a real clock. tick is the sleep used by Yield; zero means
// a plain scheduler yield of 100µs.
func NewReal(tick time.Duration) *Real {
	if tick <= 0 {
		tick = 100 * time.Microsecond
	}
	return &Real{origin: time.Now(), tick: tick}
}

// Millis returns milliseconds since the clock was created, truncated to 32 bits.
func (r *Real) Millis() uint32 {
	return uint32(time.Since(r.origin).Milliseconds())
}

// Yield sleeps for one tick.
func (r *Real) Yield() {
	time.Sleep(r.tick)
}
