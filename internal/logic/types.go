// Package logic contains the command parser and the actuator state machines.
// This package has NO I/O of its own (no GPIO, PWM, serial, or time.Sleep);
// actuators are reached through the interfaces below and time is always
// injected as a wrapping millisecond timestamp.
package logic

import (
	"errors"
	"time"
)

// SpeedUnset marks a pump-1 dose that did not name a speed.
const SpeedUnset = -1

// MaxSpeed is the exclusive upper bound for pump-1 speed.
const MaxSpeed = 90

// Pump-2 constants. The servo pump is not calibrated.
const (
	Pump2FlowRate     = 0.5 // mL/s
	Pump2ActiveAngle  = 180
	Pump2NeutralAngle = 90
)

// PumpDriver is the variable-speed pump behind pump 1.
type PumpDriver interface {
	// DosingDuration returns how long to run at speed to deliver volumeML.
	// speed may be SpeedUnset, meaning the driver's default speed.
	DosingDuration(speed int, volumeML float64) time.Duration

	// Drive runs the pump at speed; 0 stops it. SpeedUnset selects the
	// driver's default speed.
	Drive(speed int) error
}

// Servo is the actuation primitive behind pump 2.
type Servo interface {
	Attach() error
	Write(angle int) error
	Detach() error
}

// Kind identifies a parsed command.
type Kind int

const (
	KindUnknown Kind = iota
	KindLEDOn
	KindLEDOff
	KindPumpDose
	KindPumpStop
	KindPump2Dose
	KindPump2Stop
)

func (k Kind) String() string {
	switch k {
	case KindLEDOn:
		return "LED_ON"
	case KindLEDOff:
		return "LED_OFF"
	case KindPumpDose:
		return "PUMP_DOSE"
	case KindPumpStop:
		return "PUMP_STOP"
	case KindPump2Dose:
		return "PUMP2_DOSE"
	case KindPump2Stop:
		return "PUMP2_STOP"
	}
	return "UNKNOWN"
}

// Command is one parsed serial line.
type Command struct {
	Kind Kind
	// Raw is the trimmed line as received; used for duplicate detection.
	Raw       string
	Volume    float64 // mL
	Speed     int     // pump 1 only; SpeedUnset if not given
	Intensity uint8   // LED only
}

// Rejection reasons. The error text is the advisory message sent back over
// the serial link.
var (
	ErrLEDIntensity = errors.New("invalid intensity, use 0-255")
	ErrPumpSpeed    = errors.New("invalid speed, use 0-89")
	ErrDuplicate    = errors.New("duplicate pump command ignored")
)

// Result describes the effect of one command line.
type Result struct {
	Command Command

	// Changed is true if any state transition happened.
	Changed bool

	// Err is the rejection reason, nil if the command was accepted or
	// silently ignored.
	Err error

	// Message is the advisory text for the serial link, empty when silent.
	Message string

	// ActuatorErr reports a driver failure. State was updated regardless.
	ActuatorErr error
}

// Expiry reports which pumps the scheduler stopped during a poll.
type Expiry struct {
	Pump1 bool
	Pump2 bool
}

// State is a point-in-time view of actuator and LED state.
type State struct {
	Pump1Active  bool
	Pump1Speed   int
	Pump2Active  bool
	LEDOn        bool
	LEDIntensity uint8
	LEDLevel     uint8
}
