package logic

import (
	"time"

	"github.com/sweeney/dye-reactor/internal/clock"
)

// Pump is the pump-1 state machine (IDLE ⇄ DOSING).
type Pump struct {
	driver PumpDriver

	active    bool
	scheduled bool   // endTime is set
	endTime   uint32 // meaningful only while active && scheduled
	speed     int
	last      string // raw text of the last accepted dose command
}

// NewPump creates an idle pump-1 state machine.
func NewPump(driver PumpDriver) *Pump {
	return &Pump{driver: driver, speed: SpeedUnset}
}

// Dose handles a dose command. The duplicate check compares raw text and
// runs before the volume check, so a repeated zero-volume command is also
// reported as a duplicate. It returns whether dosing started.
//
// If the driver reports a non-positive duration the pump stays active with
// no scheduled stop; only "pump stop" ends it. Longer windows are capped at
// clock.MaxWindow.
func (p *Pump) Dose(cmd Command, now uint32) (bool, time.Duration, error) {
	if cmd.Raw == p.last {
		return false, 0, ErrDuplicate
	}
	p.last = cmd.Raw

	if !(cmd.Volume > 0) {
		return false, 0, nil
	}

	d := clock.CapWindow(p.driver.DosingDuration(cmd.Speed, cmd.Volume))
	p.active = true
	p.speed = cmd.Speed
	p.scheduled = d > 0
	if p.scheduled {
		p.endTime = clock.Deadline(now, d)
	}
	return true, d, p.driver.Drive(cmd.Speed)
}

// Stop ends any dosing window and zeroes the driver output.
func (p *Pump) Stop() error {
	p.active = false
	p.scheduled = false
	p.endTime = 0
	return p.driver.Drive(0)
}

// Poll stops the pump if its window has passed. It reports whether a stop
// happened.
func (p *Pump) Poll(now uint32) (bool, error) {
	if !p.active || !p.scheduled || !clock.Expired(now, p.endTime) {
		return false, nil
	}
	return true, p.Stop()
}

// Active reports whether the pump is dosing.
func (p *Pump) Active() bool { return p.active }

// Speed returns the speed of the last dose, or SpeedUnset.
func (p *Pump) Speed() int { return p.speed }

// EndTime returns the scheduled stop time and whether one is set.
func (p *Pump) EndTime() (uint32, bool) {
	return p.endTime, p.active && p.scheduled
}
