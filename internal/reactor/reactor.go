// Package reactor runs one cycle of the control loop: timer expiry, one
// serial command, LED drive, analog sampling, colour acquisition and
// telemetry.
package reactor

import (
	"log"
	"time"

	"github.com/sweeney/dye-reactor/internal/analog"
	"github.com/sweeney/dye-reactor/internal/clock"
	"github.com/sweeney/dye-reactor/internal/color"
	"github.com/sweeney/dye-reactor/internal/logic"
	"github.com/sweeney/dye-reactor/internal/status"
)

// LineDevice is the host link: one command line in, text lines out.
type LineDevice interface {
	PollLine() (string, bool)
	WriteLine(s string) error
}

// LEDOutput drives the UV LED at a level 0..255.
type LEDOutput interface {
	SetLevel(level uint8) error
}

// FlowRater reports the calibrated pump-1 flow rate at a speed.
type FlowRater interface {
	FlowRate(speed int) float64
}

// AnalogReader samples the auxiliary sensors.
type AnalogReader interface {
	Read() (analog.Readings, error)
}

// Mirror receives a copy of each telemetry line.
type Mirror interface {
	PublishTelemetry(payload []byte) error
}

// Deps are the collaborators of a Reactor. Analog, Mirror and Tracker may
// be nil.
type Deps struct {
	Clock      clock.Clock
	Controller *logic.Controller
	LED        LEDOutput
	Flow       FlowRater
	Analog     AnalogReader
	Sensors    [2]*color.Sensor
	Device     LineDevice
	Mirror     Mirror
	Tracker    *status.Tracker
	FinalDelay time.Duration
}

// Reactor owns the control loop state between cycles.
type Reactor struct {
	d      Deps
	analog analog.Readings
}

// New creates a Reactor.
func New(d Deps) *Reactor {
	return &Reactor{d: d}
}

// Cycle runs one pass of the control loop. Driver failures are logged and
// never stop the loop.
func (r *Reactor) Cycle() status.Telemetry {
	ctrl := r.d.Controller

	exp, err := ctrl.Poll(r.d.Clock.Millis())
	if err != nil {
		log.Printf("reactor: expiry: %v", err)
	}
	if exp.Pump1 {
		log.Printf("reactor: pump dose complete")
	}
	if exp.Pump2 {
		log.Printf("reactor: pump2 dose complete")
	}

	if line, ok := r.d.Device.PollLine(); ok {
		r.handle(line)
	}

	if err := r.d.LED.SetLevel(ctrl.State().LEDLevel); err != nil {
		log.Printf("reactor: led: %v", err)
	}

	if r.d.Analog != nil {
		rd, err := r.d.Analog.Read()
		if err != nil {
			log.Printf("reactor: analog: %v", err)
		} else {
			r.analog = rd
		}
	}

	var readings [2]color.Reading
	for i, s := range r.d.Sensors {
		rd, err := s.Acquire()
		if err != nil {
			log.Printf("reactor: %v", err)
		}
		readings[i] = rd
	}

	tel := r.telemetry(readings)
	r.emit(tel)

	if r.d.FinalDelay > 0 {
		clock.WaitFor(r.d.Clock, r.d.FinalDelay)
	}
	return tel
}

func (r *Reactor) handle(line string) {
	res := r.d.Controller.Handle(line, r.d.Clock.Millis())
	if res.ActuatorErr != nil {
		log.Printf("reactor: %s: %v", res.Command.Kind, res.ActuatorErr)
	}
	if res.Err != nil {
		log.Printf("reactor: rejected %q: %v", res.Command.Raw, res.Err)
	}
	if res.Message == "" {
		return
	}
	if err := r.d.Device.WriteLine(res.Message); err != nil {
		log.Printf("reactor: write message: %v", err)
	}
}

func (r *Reactor) telemetry(rd [2]color.Reading) status.Telemetry {
	st := r.d.Controller.State()
	return status.Telemetry{
		Temp:        r.analog.Temperature,
		UVLed:       status.Flag(st.LEDOn),
		UVIntensity: int(st.LEDIntensity),
		Pump:        status.Flag(st.Pump1Active),
		Pump2:       status.Flag(st.Pump2Active),
		PumpSpeed:   st.Pump1Speed,
		FlowRate:    float32(r.d.Flow.FlowRate(st.Pump1Speed)),
		UV1:         r.analog.UV,
		Photodiode:  r.analog.Photodiode,
		Turbidity:   r.analog.Turbidity,

		RGB1R: rd[0].R, RGB1G: rd[0].G, RGB1B: rd[0].B,
		RGB2R: rd[1].R, RGB2G: rd[1].G, RGB2B: rd[1].B,

		Raw1R: rd[0].Raw[color.Red], Raw1G: rd[0].Raw[color.Green],
		Raw1B: rd[0].Raw[color.Blue], Raw1C: rd[0].Raw[color.Clear],
		Raw2R: rd[1].Raw[color.Red], Raw2G: rd[1].Raw[color.Green],
		Raw2B: rd[1].Raw[color.Blue], Raw2C: rd[1].Raw[color.Clear],
	}
}

func (r *Reactor) emit(tel status.Telemetry) {
	data, err := status.FormatTelemetry(tel)
	if err != nil {
		log.Printf("reactor: %v", err)
		return
	}
	if err := r.d.Device.WriteLine(string(data)); err != nil {
		log.Printf("reactor: write telemetry: %v", err)
	}
	if r.d.Mirror != nil {
		if err := r.d.Mirror.PublishTelemetry(data); err != nil {
			log.Printf("reactor: mirror: %v", err)
		}
	}
	if r.d.Tracker != nil {
		r.d.Tracker.Update(tel)
	}
}

// Acquire takes one colour reading from each sensor without touching the
// actuators.
func (r *Reactor) Acquire() ([2]color.Reading, error) {
	var out [2]color.Reading
	for i, s := range r.d.Sensors {
		rd, err := s.Acquire()
		if err != nil {
			return out, err
		}
		out[i] = rd
	}
	return out, nil
}

// Shutdown stops both pumps and darkens the LED.
func (r *Reactor) Shutdown() error {
	err := r.d.Controller.Shutdown()
	if lerr := r.d.LED.SetLevel(0); lerr != nil {
		log.Printf("reactor: led: %v", lerr)
	}
	return err
}
