package actuator

import (
	"time"

	"github.com/sweeney/dye-reactor/internal/logic"
)

// Standard hobby servo timing.
const (
	ServoPeriod   = 20 * time.Millisecond
	ServoMinPulse = 500 * time.Microsecond
	ServoMaxPulse = 2500 * time.Microsecond
)

var _ logic.Servo = (*Servo)(nil)

// Servo positions a hobby servo on a PWM channel. Detaching stops the pulse
// train so the servo no longer holds position.
type Servo struct {
	pwm        PWM
	configured bool
}

// NewServo wraps pwm.
func NewServo(pwm PWM) *Servo {
	return &Servo{pwm: pwm}
}

func (s *Servo) configure() error {
	if s.configured {
		return nil
	}
	if err := s.pwm.SetPeriod(ServoPeriod); err != nil {
		return err
	}
	s.configured = true
	return nil
}

// Attach starts the 50 Hz pulse train.
func (s *Servo) Attach() error {
	if err := s.configure(); err != nil {
		return err
	}
	return s.pwm.Enable(true)
}

// Write moves to angle degrees, clamped to 0..180. The position is held
// only while attached.
func (s *Servo) Write(angle int) error {
	if err := s.configure(); err != nil {
		return err
	}
	return s.pwm.SetDuty(PulseForAngle(angle))
}

// Detach stops the pulse train.
func (s *Servo) Detach() error {
	return s.pwm.Enable(false)
}

// PulseForAngle maps 0..180 degrees onto the servo pulse width.
func PulseForAngle(angle int) time.Duration {
	if angle < 0 {
		angle = 0
	}
	if angle > 180 {
		angle = 180
	}
	return ServoMinPulse + (ServoMaxPulse-ServoMinPulse)*time.Duration(angle)/180
}
