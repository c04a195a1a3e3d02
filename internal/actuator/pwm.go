// Package actuator drives the reactor's PWM outputs: the variable-speed
// dosing pump, the pump-2 servo and the UV LED.
package actuator

import (
	"errors"
	"fmt"
	"time"

	"github.com/reef-pi/rpi/pwm"
)

// PWM is one hardware PWM channel.
type PWM interface {
	SetPeriod(d time.Duration) error
	SetDuty(d time.Duration) error
	Enable(on bool) error
	Close() error
}

var _ PWM = (*Channel)(nil)

// Channel is one output of a sysfs PWM chip driven through pwm.Driver.
// The driver works in Hz and percent; Channel converts from durations.
type Channel struct {
	driver  pwm.Driver
	channel int
	period  time.Duration
}

// OpenChannel exports channel on driver unless it is already exported.
func OpenChannel(driver pwm.Driver, channel int) (*Channel, error) {
	exported, err := driver.IsExported(channel)
	if err != nil {
		return nil, fmt.Errorf("pwm%d: %w", channel, err)
	}
	if !exported {
		if err := driver.Export(channel); err != nil {
			return nil, fmt.Errorf("export pwm%d: %w", channel, err)
		}
	}
	return &Channel{driver: driver, channel: channel}, nil
}

// SetPeriod sets the PWM period. d must divide one second into whole Hz.
func (c *Channel) SetPeriod(d time.Duration) error {
	if d <= 0 || d > time.Second {
		return fmt.Errorf("pwm%d: period %v out of range", c.channel, d)
	}
	hz := int(time.Second / d)
	if err := c.driver.Frequency(c.channel, hz); err != nil {
		return fmt.Errorf("pwm%d: set frequency %d Hz: %w", c.channel, hz, err)
	}
	c.period = time.Second / time.Duration(hz)
	return nil
}

// SetDuty sets the active time per period. The period must be set first.
func (c *Channel) SetDuty(d time.Duration) error {
	if c.period == 0 {
		return fmt.Errorf("pwm%d: duty before period", c.channel)
	}
	if d < 0 {
		d = 0
	}
	if d > c.period {
		d = c.period
	}
	pct := 100 * float64(d) / float64(c.period)
	if err := c.driver.DutyCycle(c.channel, pct); err != nil {
		return fmt.Errorf("pwm%d: set duty: %w", c.channel, err)
	}
	return nil
}

// Enable starts or stops the output.
func (c *Channel) Enable(on bool) error {
	var err error
	if on {
		err = c.driver.Enable(c.channel)
	} else {
		err = c.driver.Disable(c.channel)
	}
	if err != nil {
		return fmt.Errorf("pwm%d: enable %t: %w", c.channel, on, err)
	}
	return nil
}

// Close disables and unexports the channel.
func (c *Channel) Close() error {
	var errs []error
	if err := c.Enable(false); err != nil {
		errs = append(errs, err)
	}
	if err := c.driver.Unexport(c.channel); err != nil {
		errs = append(errs, fmt.Errorf("unexport pwm%d: %w", c.channel, err))
	}
	return errors.Join(errs...)
}
