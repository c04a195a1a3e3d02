package actuator

import (
	"fmt"
	"time"
)

// LEDPeriod is the PWM period for the UV LED driver.
const LEDPeriod = 2 * time.Millisecond

// LED dims the UV LED through PWM. Level 0 disables the output.
type LED struct {
	pwm        PWM
	configured bool
	written    bool
	level      uint8
}

// NewLED wraps pwm.
func NewLED(pwm PWM) *LED {
	return &LED{pwm: pwm}
}

// SetLevel drives level 0..255. Unchanged levels are not rewritten.
func (l *LED) SetLevel(level uint8) error {
	if l.written && level == l.level {
		return nil
	}
	if !l.configured {
		if err := l.pwm.SetPeriod(LEDPeriod); err != nil {
			return fmt.Errorf("led: %w", err)
		}
		l.configured = true
	}
	if err := l.pwm.SetDuty(LEDPeriod * time.Duration(level) / 255); err != nil {
		return fmt.Errorf("led: %w", err)
	}
	if err := l.pwm.Enable(level > 0); err != nil {
		return fmt.Errorf("led: %w", err)
	}
	l.level = level
	l.written = true
	return nil
}

// Level returns the last level written.
func (l *LED) Level() uint8 {
	return l.level
}
