package clock

import "sync"

// Fake is a test clock. Time only moves when Advance or Yield is called.
type Fake struct {
	mu  sync.Mutex
	now uint32

	// Step is how far each Yield advances the clock. Defaults to 1ms.
	Step uint32

	// OnAdvance, if set, is called once per elapsed millisecond with the new
	// timestamp. Tests use it to inject edges while a gate window is open.
	OnAdvance func(now uint32)

	// Yields counts calls to Yield.
	Yields int
}

// NewFake creates a fake clock starting at start.
func NewFake(start uint32) *Fake {
	return &Fake{now: start, Step: 1}
}

// Millis returns the current fake time.
func (f *Fake) Millis() uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Yield advances the clock by Step.
func (f *Fake) Yield() {
	f.mu.Lock()
	f.Yields++
	step := f.Step
	f.mu.Unlock()
	if step == 0 {
		step = 1
	}
	f.Advance(step)
}

// Advance moves the clock forward by ms, one millisecond at a time.
func (f *Fake) Advance(ms uint32) {
	for i := uint32(0); i < ms; i++ {
		f.mu.Lock()
		f.now++
		now := f.now
		hook := f.OnAdvance
		f.mu.Unlock()
		if hook != nil {
			hook(now)
		}
	}
}

// Set jumps the clock to now without running OnAdvance.
func (f *Fake) Set(now uint32) {
	f.mu.Lock()
	f.now = now
	f.mu.Unlock()
}
