package actuator

import (
	"errors"
	"fmt"
	"time"

	"github.com/sweeney/dye-reactor/internal/clock"
	"github.com/sweeney/dye-reactor/internal/logic"
)

// PumpPeriod is the PWM period for the pump motor driver (1 kHz).
const PumpPeriod = time.Millisecond

var _ logic.PumpDriver = (*Pump)(nil)

// Pump drives the variable-speed dosing pump. Speed 0..89 maps linearly to
// duty cycle; the flow at a speed comes from the calibration table.
type Pump struct {
	pwm          PWM
	cal          *Calibration
	defaultSpeed int
	configured   bool
}

// NewPump creates a pump driver. defaultSpeed is used for doses that do not
// name a speed.
func NewPump(pwm PWM, cal *Calibration, defaultSpeed int) *Pump {
	return &Pump{pwm: pwm, cal: cal, defaultSpeed: defaultSpeed}
}

func (p *Pump) resolve(speed int) int {
	if speed == logic.SpeedUnset {
		return p.defaultSpeed
	}
	return speed
}

// DosingDuration returns how long to run to deliver volumeML at speed. It
// is 0 when the calibrated rate is not positive and at most
// clock.MaxWindow.
func (p *Pump) DosingDuration(speed int, volumeML float64) time.Duration {
	rate := p.cal.FlowRate(p.resolve(speed))
	if !(rate > 0) || !(volumeML > 0) {
		return 0
	}
	secs := volumeML / rate
	if secs >= clock.MaxWindow.Seconds() {
		return clock.MaxWindow
	}
	return time.Duration(secs * float64(time.Second))
}

// FlowRate returns the calibrated rate for speed (SpeedUnset = default).
func (p *Pump) FlowRate(speed int) float64 {
	return p.cal.FlowRate(p.resolve(speed))
}

// Drive runs the motor at speed. 0 disables the output.
func (p *Pump) Drive(speed int) error {
	speed = p.resolve(speed)
	if speed < 0 || speed >= logic.MaxSpeed {
		return fmt.Errorf("pump speed %d out of range", speed)
	}
	if !p.configured {
		if err := p.pwm.SetPeriod(PumpPeriod); err != nil {
			return err
		}
		p.configured = true
	}
	if speed == 0 {
		return errors.Join(p.pwm.SetDuty(0), p.pwm.Enable(false))
	}
	duty := PumpPeriod * time.Duration(speed) / (logic.MaxSpeed - 1)
	if err := p.pwm.SetDuty(duty); err != nil {
		return err
	}
	return p.pwm.Enable(true)
}
