package logic

import (
	"errors"
	"fmt"
	"math"

	"github.com/sweeney/dye-reactor/internal/clock"
)

// Pump2 is the servo pump state machine. Its duration comes from the fixed
// Pump2FlowRate; there is no speed and no duplicate suppression.
type Pump2 struct {
	servo Servo

	active  bool
	endTime uint32
}

// NewPump2 creates an idle pump-2 state machine.
func NewPump2(servo Servo) *Pump2 {
	return &Pump2{servo: servo}
}

// Duration2 returns the dosing window for volumeML on pump 2, in ms, capped
// at clock.MaxWindow.
func Duration2(volumeML float64) uint32 {
	ms := volumeML / Pump2FlowRate * 1000
	if !(ms > 0) {
		return 0
	}
	if ms >= math.MaxInt32 {
		return math.MaxInt32
	}
	return uint32(ms)
}

// Dose starts a dosing window. Non-positive volumes are ignored.
func (p *Pump2) Dose(volumeML float64, now uint32) (bool, uint32, error) {
	if !(volumeML > 0) {
		return false, 0, nil
	}
	ms := Duration2(volumeML)
	p.active = true
	p.endTime = now + ms

	if err := p.servo.Attach(); err != nil {
		return true, ms, fmt.Errorf("attach servo: %w", err)
	}
	if err := p.servo.Write(Pump2ActiveAngle); err != nil {
		return true, ms, fmt.Errorf("write servo: %w", err)
	}
	return true, ms, nil
}

// Stop returns the servo to neutral and detaches it.
func (p *Pump2) Stop() error {
	p.active = false
	p.endTime = 0

	var errs []error
	if err := p.servo.Write(Pump2NeutralAngle); err != nil {
		errs = append(errs, fmt.Errorf("write servo: %w", err))
	}
	if err := p.servo.Detach(); err != nil {
		errs = append(errs, fmt.Errorf("detach servo: %w", err))
	}
	return errors.Join(errs...)
}

// Poll stops the pump if its window has passed.
func (p *Pump2) Poll(now uint32) (bool, error) {
	if !p.active || !clock.Expired(now, p.endTime) {
		return false, nil
	}
	return true, p.Stop()
}

// Active reports whether the pump is dosing.
func (p *Pump2) Active() bool { return p.active }

// EndTime returns the scheduled stop time while active.
func (p *Pump2) EndTime() (uint32, bool) {
	return p.endTime, p.active
}
