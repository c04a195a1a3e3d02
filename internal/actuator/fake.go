package actuator

import "time"

// FakePWM records PWM writes for test assertions.
type FakePWM struct {
	Period  time.Duration
	Duty    time.Duration
	Enabled bool

	// Duties is every duty written, in order.
	Duties []time.Duration

	// Writes counts all calls that reached the channel.
	Writes int

	// Error, if set, is returned by every setter.
	Error error

	Closed bool
}

// SetPeriod records the period.
func (f *FakePWM) SetPeriod(d time.Duration) error {
	if f.Error != nil {
		return f.Error
	}
	f.Writes++
	f.Period = d
	return nil
}

// SetDuty records the duty.
func (f *FakePWM) SetDuty(d time.Duration) error {
	if f.Error != nil {
		return f.Error
	}
	f.Writes++
	f.Duty = d
	f.Duties = append(f.Duties, d)
	return nil
}

// Enable records the enable state.
func (f *FakePWM) Enable(on bool) error {
	if f.Error != nil {
		return f.Error
	}
	f.Writes++
	f.Enabled = on
	return nil
}

// Close marks the channel closed and disabled.
func (f *FakePWM) Close() error {
	f.Enabled = false
	f.Closed = true
	return nil
}
