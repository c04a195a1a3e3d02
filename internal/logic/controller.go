package logic

import (
	"errors"
	"fmt"
	"time"
)

// Controller owns both pump state machines and the LED state, and routes
// parsed commands to them.
type Controller struct {
	pump  *Pump
	pump2 *Pump2
	led   LED
}

// NewController creates a controller with both pumps idle and the LED off.
func NewController(driver PumpDriver, servo Servo) *Controller {
	return &Controller{
		pump:  NewPump(driver),
		pump2: NewPump2(servo),
	}
}

// Poll runs the level-triggered expiry check for both pumps. Call it once
// per cycle, before Handle.
func (c *Controller) Poll(now uint32) (Expiry, error) {
	var exp Expiry
	var errs []error

	stopped, err := c.pump.Poll(now)
	exp.Pump1 = stopped
	if err != nil {
		errs = append(errs, fmt.Errorf("pump: %w", err))
	}

	stopped, err = c.pump2.Poll(now)
	exp.Pump2 = stopped
	if err != nil {
		errs = append(errs, fmt.Errorf("pump2: %w", err))
	}

	return exp, errors.Join(errs...)
}

// Handle parses and applies one command line.
func (c *Controller) Handle(line string, now uint32) Result {
	cmd, err := Parse(line)
	res := Result{Command: cmd}
	if err != nil {
		res.Err = err
		res.Message = err.Error()
		return res
	}

	switch cmd.Kind {
	case KindLEDOn:
		c.led = LED{On: true, Intensity: cmd.Intensity}
		res.Changed = true
		res.Message = fmt.Sprintf("led on at intensity %d", cmd.Intensity)

	case KindLEDOff:
		c.led.On = false
		res.Changed = true
		res.Message = "led off"

	case KindPumpDose:
		started, d, err := c.pump.Dose(cmd, now)
		if errors.Is(err, ErrDuplicate) {
			res.Err = err
			res.Message = err.Error()
			return res
		}
		res.ActuatorErr = err
		if started {
			res.Changed = true
			res.Message = pumpStartedMessage(cmd, d)
		}

	case KindPumpStop:
		res.ActuatorErr = c.pump.Stop()
		res.Changed = true
		res.Message = "pump stopped"

	case KindPump2Dose:
		started, ms, err := c.pump2.Dose(cmd.Volume, now)
		res.ActuatorErr = err
		if started {
			res.Changed = true
			res.Message = fmt.Sprintf("pump2 started: %g mL for %d ms", cmd.Volume, ms)
		}

	case KindPump2Stop:
		res.ActuatorErr = c.pump2.Stop()
		res.Changed = true
		res.Message = "pump2 stopped"
	}

	return res
}

func pumpStartedMessage(cmd Command, d time.Duration) string {
	speed := "default"
	if cmd.Speed != SpeedUnset {
		speed = fmt.Sprint(cmd.Speed)
	}
	if d <= 0 {
		return fmt.Sprintf("pump started: %g mL at speed %s, no auto-stop", cmd.Volume, speed)
	}
	return fmt.Sprintf("pump started: %g mL at speed %s for %d ms", cmd.Volume, speed, d.Milliseconds())
}

// LED returns the current LED state.
func (c *Controller) LED() LED { return c.led }

// Pump returns the pump-1 state machine.
func (c *Controller) Pump() *Pump { return c.pump }

// Pump2 returns the pump-2 state machine.
func (c *Controller) Pump2() *Pump2 { return c.pump2 }

// State returns a snapshot for telemetry.
func (c *Controller) State() State {
	return State{
		Pump1Active:  c.pump.Active(),
		Pump1Speed:   c.pump.Speed(),
		Pump2Active:  c.pump2.Active(),
		LEDOn:        c.led.On,
		LEDIntensity: c.led.Intensity,
		LEDLevel:     c.led.Level(),
	}
}

// Shutdown stops both pumps and turns the LED off.
func (c *Controller) Shutdown() error {
	c.led.On = false
	return errors.Join(c.pump.Stop(), c.pump2.Stop())
}
